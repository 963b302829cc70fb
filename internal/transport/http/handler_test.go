package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"travelkeep/internal/audit"
	jwttoken "travelkeep/internal/jwt_token"
	"travelkeep/internal/platform/metrics"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/service"
	storemem "travelkeep/internal/profile/store/memory"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
	"travelkeep/pkg/platform/blob/core"
	blobmem "travelkeep/pkg/platform/blob/memory"
	"travelkeep/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	jwt    *jwttoken.JWTService
	blobs  *blobmem.Store
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adapter := storemem.New()
	s.blobs = blobmem.New()
	svc := service.New(adapter, service.WithAudit(audit.New(adapter, s.blobs)))

	reg := prometheus.NewRegistry()
	s.jwt = jwttoken.NewJWTService("test-key", "travelkeep-test")
	h := New(svc, jwttoken.NewJWTServiceAdapter(s.jwt), logger, metrics.New(reg), 5*time.Second)
	s.router = NewRouter(h, reg)
}

func (s *HandlerSuite) do(method, path string, body any, userID id.UserID) *httptest.ResponseRecorder {
	s.T().Helper()
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = testutil.NewRequest(s.T(), method, path)
	case string:
		req = testutil.NewRequestWithBody(s.T(), method, path, b)
	default:
		req = testutil.NewJSONRequest(s.T(), method, path, b)
	}
	if userID != "" {
		token, err := s.jwt.GenerateAccessToken(userID, time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) seedProfile(userID id.UserID) {
	rr := s.do(http.MethodPut, "/v1/me/passport", map[string]string{
		"passportNumber": "E1", "fullName": "ZHANG WEI", "dateOfBirth": "1990-01-02",
		"nationality": "CHN", "expiryDate": "2030-01-01",
	}, userID)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	rr = s.do(http.MethodPut, "/v1/me/personal-info", map[string]string{
		"phoneNumber": "123", "email": "a@x.com", "occupation": "engineer",
	}, userID)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	rr = s.do(http.MethodPut, "/v1/me/travel/hk", map[string]string{
		"travelPurpose": "tourism", "arrivalDate": "2026-11-01", "arrivalFlightNumber": "CX1", "hotelName": "Harbour Inn",
	}, userID)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	rr = s.do(http.MethodPost, "/v1/me/fund-items", map[string]string{"type": "cash", "amount": "500", "currency": "USD"}, userID)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
}

func (s *HandlerSuite) TestHealthAndMetricsAreOpen() {
	rr := s.do(http.MethodGet, "/healthz", nil, "")
	testutil.AssertStatusOK(s.T(), rr)

	s.do(http.MethodGet, "/v1/me/data", nil, "user1")
	rr = s.do(http.MethodGet, "/metrics", nil, "")
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "travelkeep_http_requests_total")
}

func (s *HandlerSuite) TestRequiresBearerToken() {
	rr := s.do(http.MethodGet, "/v1/me/data", nil, "")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *HandlerSuite) TestSaveThenReadPassport() {
	s.seedProfile("user1")

	rr := s.do(http.MethodGet, "/v1/me/data", nil, "user1")
	testutil.AssertStatusOK(s.T(), rr)
	data := testutil.UnmarshalResponse[models.UserData](s.T(), rr)
	s.Require().NotNil(data.Passport)
	s.Equal("E1", data.Passport.PassportNumber)
	s.Len(data.FundItems, 1)

	rr = s.do(http.MethodGet, "/v1/me/data?batch=true", nil, "user1")
	testutil.AssertStatusOK(s.T(), rr)

	rr = s.do(http.MethodGet, "/v1/me/data", nil, "user2")
	data = testutil.UnmarshalResponse[models.UserData](s.T(), rr)
	s.Nil(data.Passport)
}

func (s *HandlerSuite) TestRejectsBadInput() {
	s.T().Run("malformed json - 400", func(t *testing.T) {
		rr := s.do(http.MethodPut, "/v1/me/passport", "{bad-json", "user1")
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
	s.T().Run("unknown field - 400", func(t *testing.T) {
		rr := s.do(http.MethodPut, "/v1/me/passport", `{"passportNo":"E1"}`, "user1")
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
	s.T().Run("invalid date - 400", func(t *testing.T) {
		rr := s.do(http.MethodPut, "/v1/me/passport", map[string]string{"dateOfBirth": "02/01/1990"}, "user1")
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
	s.T().Run("invalid destination - 400", func(t *testing.T) {
		rr := s.do(http.MethodPut, "/v1/me/travel/..", map[string]string{}, "user1")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func (s *HandlerSuite) TestFundItemLifecycle() {
	rr := s.do(http.MethodPost, "/v1/me/fund-items", map[string]string{"type": "cash", "amount": "10"}, "user1")
	s.Require().Equal(http.StatusCreated, rr.Code)
	item := testutil.UnmarshalResponse[models.FundItem](s.T(), rr)

	rr = s.do(http.MethodDelete, "/v1/me/fund-items/"+item.ID.String(), nil, "user1")
	s.Equal(http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodDelete, "/v1/me/fund-items/"+item.ID.String(), nil, "user1")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func (s *HandlerSuite) TestBatchUpdate() {
	rr := s.do(http.MethodPatch, "/v1/me", map[string]any{}, "user1")
	testutil.AssertStatusOK(s.T(), rr)

	rr = s.do(http.MethodPatch, "/v1/me", map[string]any{
		"passport":     map[string]string{"passportNumber": "E9"},
		"personalInfo": map[string]string{"email": "z@x.com"},
	}, "user1")
	testutil.AssertStatusOK(s.T(), rr)
	data := testutil.UnmarshalResponse[models.UserData](s.T(), rr)
	s.Equal("E9", data.Passport.PassportNumber)
	s.Equal("z@x.com", data.PersonalInfo.Email)
}

func (s *HandlerSuite) TestSaveEntryFormReportsFailedSections() {
	rr := s.do(http.MethodPut, "/v1/me/destinations/hk/form", map[string]any{
		"passport":     map[string]string{"dateOfBirth": "bad"},
		"personalInfo": map[string]string{"email": "a@x.com"},
	}, "user1")
	testutil.AssertStatusOK(s.T(), rr)
	res := testutil.UnmarshalResponse[service.FormResult](s.T(), rr)
	s.Equal([]string{service.FormPersonalInfo}, res.Saved)
	s.Contains(res.Failed, service.FormPassport)
}

func (s *HandlerSuite) TestSaveEntryFormInvalidOnlySectionIsBadRequest() {
	rr := s.do(http.MethodPut, "/v1/me/destinations/hk/form", map[string]any{
		"passport": map[string]string{"issueDate": "2030-01-01", "expiryDate": "2020-01-01"},
	}, "user1")
	body := testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	s.Equal("passport: passport issue date must be before expiry date", body.Description)
}

func (s *HandlerSuite) TestSubmissionWarningAndAuditFlow() {
	s.seedProfile("user1")

	rr := s.do(http.MethodPost, "/v1/me/destinations/hk/entry", nil, "user1")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	entry := testutil.UnmarshalResponse[models.EntryInfo](s.T(), rr)
	s.Equal(models.EntryReady, entry.Status)

	rr = s.do(http.MethodPost, "/v1/me/entries/"+entry.ID.String()+"/submission", nil, "user1")
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	snap := testutil.UnmarshalResponse[models.Snapshot](s.T(), rr)

	rr = s.do(http.MethodPut, "/v1/me/passport", map[string]string{
		"passportNumber": "E2", "fullName": "ZHANG WEI", "dateOfBirth": "1990-01-02",
		"nationality": "CHN", "expiryDate": "2030-01-01",
	}, "user1")
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/v1/me/entries/"+entry.ID.String(), nil, "user1")
	got := testutil.UnmarshalResponse[models.EntryInfo](s.T(), rr)
	s.Equal(models.EntrySuperseded, got.Status)

	rr = s.do(http.MethodGet, "/v1/me/warnings", nil, "user1")
	warnings := testutil.UnmarshalResponse[[]models.ResubmissionWarning](s.T(), rr)
	s.Require().Len(*warnings, 1)
	w := (*warnings)[0]
	s.Contains(w.ChangedFields, "passportNumber")

	rr = s.do(http.MethodDelete, "/v1/me/warnings/"+w.ID.String(), map[string]string{"resolution": "later"}, "user1")
	s.Equal(http.StatusBadRequest, rr.Code)
	rr = s.do(http.MethodDelete, "/v1/me/warnings/"+w.ID.String(), map[string]string{"resolution": "ignored"}, "user1")
	testutil.AssertStatusOK(s.T(), rr)

	base := "/v1/audit/" + snap.ID.String()
	rr = s.do(http.MethodGet, base, nil, "user1")
	testutil.AssertStatusOK(s.T(), rr)
	log := testutil.UnmarshalResponse[audit.Log](s.T(), rr)
	s.Positive(log.TotalEvents)

	rr = s.do(http.MethodGet, base, nil, "intruder")
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.do(http.MethodGet, base+"/integrity", nil, "user1")
	testutil.AssertStatusOK(s.T(), rr)
	report := testutil.UnmarshalResponse[audit.IntegrityReport](s.T(), rr)
	s.True(report.Intact, report.Issues)

	rr = s.do(http.MethodPost, base+"/export?format=xml", nil, "user1")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	rr = s.do(http.MethodPost, base+"/export?format=csv", nil, "user1")
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	export := testutil.UnmarshalResponse[audit.Export](s.T(), rr)
	s.True(strings.HasSuffix(export.Key, ".csv"))
	body, err := core.ReadAll(context.Background(), s.blobs, export.Key)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(string(body), "id,eventType,"), string(body))

	rr = s.do(http.MethodGet, "/v1/me/snapshots/"+snap.ID.String(), nil, "user1")
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestMigrationWithoutLegacyStore() {
	rr := s.do(http.MethodPost, "/v1/me/migration", nil, "user1")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))

	rr = s.do(http.MethodGet, "/v1/me/conflicts", nil, "user1")
	testutil.AssertStatusOK(s.T(), rr)
}

func TestStatusFor(t *testing.T) {
	tests := map[dErrors.Code]int{
		dErrors.CodeValidation:   http.StatusBadRequest,
		dErrors.CodeBadRequest:   http.StatusBadRequest,
		dErrors.CodeUnauthorized: http.StatusUnauthorized,
		dErrors.CodeNotFound:     http.StatusNotFound,
		dErrors.CodeConflict:     http.StatusConflict,
		dErrors.CodeInvalidState: http.StatusConflict,
		dErrors.CodeInternal:     http.StatusInternalServerError,
		dErrors.Code("other"):    http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusFor(code), code)
	}
}

func TestWriteErrorHidesUncodedErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, io.ErrUnexpectedEOF)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := testutil.UnmarshalErrorResponse(t, rr)
	assert.Equal(t, "internal error", body["error_description"])
}

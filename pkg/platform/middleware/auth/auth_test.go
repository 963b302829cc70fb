package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "travelkeep/pkg/domain"
	"travelkeep/pkg/requestcontext"
)

type stubValidator map[string]*JWTClaims

func (s stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := stubValidator{
		"good":    {UserID: "user1"},
		"no-user": {UserID: ""},
	}

	var seen id.UserID
	h := RequireAuth(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer good", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"token without user", "Bearer no-user", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/v1/me/data", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, r)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, id.UserID("user1"), seen)
			} else {
				assert.Empty(t, seen)
				assert.Contains(t, rr.Body.String(), `"error":"unauthorized"`)
			}
		})
	}
}

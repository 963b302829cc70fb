package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	storemem "travelkeep/internal/profile/store/memory"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
	"travelkeep/pkg/platform/blob/core"
	blobmem "travelkeep/pkg/platform/blob/memory"
	"travelkeep/pkg/requestcontext"
)

type failingBlobs struct{ core.Store }

func (failingBlobs) Put(context.Context, string, io.Reader, core.PutOptions) (core.Info, error) {
	return core.Info{}, errors.New("disk full")
}

type AuditSuite struct {
	suite.Suite
	ctx   context.Context
	sink  *storemem.Store
	blobs *blobmem.Store
	now   time.Time
	svc   *Service
}

func (s *AuditSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-1")
	s.sink = storemem.New()
	s.blobs = blobmem.New()
	s.now = time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	s.svc = New(s.sink, s.blobs, WithClock(s.clock), WithAppVersion("1.2.3"), WithHostname("test-host"))
}

func (s *AuditSuite) clock() time.Time {
	s.now = s.now.Add(time.Millisecond)
	return s.now
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) record(eventType models.AuditEventType, snapshotID id.SnapshotID) id.EventID {
	eventID, err := s.svc.Record(s.ctx, eventType, Entry{SnapshotID: snapshotID, EntryPackID: "entry1", UserID: "user1"})
	s.Require().NoError(err)
	return eventID
}

func (s *AuditSuite) TestRecordWritesBothTargets() {
	eventID := s.record(models.AuditCreated, "snap1")

	events, err := s.sink.AuditEventsBySnapshot(s.ctx, "snap1", storeQuery())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	e := events[0]
	s.Equal(eventID, e.ID)
	s.True(e.Immutable)
	s.Equal(1, e.Version)
	s.Equal("req-1", e.SystemInfo.RequestID)
	s.Equal("1.2.3", e.SystemInfo.AppVersion)
	s.Equal("test-host", e.SystemInfo.Hostname)

	body, err := core.ReadAll(s.ctx, s.blobs, "audit_logs/2026/07/04/"+string(eventID)+".json")
	s.Require().NoError(err)
	var fromFile models.AuditEvent
	s.Require().NoError(json.Unmarshal(body, &fromFile))
	s.Equal(e.Timestamp, fromFile.Timestamp)
}

func (s *AuditSuite) TestRecordSucceedsWhenOneTargetFails() {
	svc := New(s.sink, failingBlobs{s.blobs}, WithClock(s.clock))
	eventID, err := svc.Record(s.ctx, models.AuditViewed, Entry{SnapshotID: "snap1"})
	s.Require().NoError(err)
	s.NotEmpty(eventID)
}

func (s *AuditSuite) TestRecordFailsWhenEveryTargetFails() {
	svc := New(nil, failingBlobs{s.blobs}, WithClock(s.clock))
	_, err := svc.Record(s.ctx, models.AuditViewed, Entry{SnapshotID: "snap1"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *AuditSuite) TestGetAuditLogPrefersAdapter() {
	s.record(models.AuditCreated, "snap1")
	s.record(models.AuditViewed, "snap1")
	s.record(models.AuditViewed, "snap1")
	s.record(models.AuditCreated, "snap2")

	log, err := s.svc.GetAuditLog(s.ctx, "snap1")
	s.Require().NoError(err)
	s.Equal(SourceAdapter, log.Source)
	s.Equal(3, log.TotalEvents)
	s.Equal(map[models.AuditEventType]int{models.AuditCreated: 1, models.AuditViewed: 2}, log.EventSummary)
	s.Equal(models.AuditCreated, log.Events[0].EventType)
}

func (s *AuditSuite) TestGetAuditLogFallsBackToFileTree() {
	s.record(models.AuditCreated, "snap1")
	s.record(models.AuditStatusChanged, "snap1")

	svc := New(storemem.New(), s.blobs, WithClock(s.clock))
	log, err := svc.GetAuditLog(s.ctx, "snap1")
	s.Require().NoError(err)
	s.Equal(SourceFileTree, log.Source)
	s.Equal(2, log.TotalEvents)
	s.True(log.Events[0].Time().Before(log.Events[1].Time()))
}

func (s *AuditSuite) TestGetAuditLogEmpty() {
	log, err := s.svc.GetAuditLog(s.ctx, "missing")
	s.Require().NoError(err)
	s.Equal(SourceNone, log.Source)
	s.Zero(log.TotalEvents)
	s.NotNil(log.Events)
}

func (s *AuditSuite) TestVerifyIntegrityIntact() {
	s.record(models.AuditCreated, "snap1")
	s.record(models.AuditViewed, "snap1")

	report, err := s.svc.VerifyIntegrity(s.ctx, "snap1")
	s.Require().NoError(err)
	s.True(report.Intact)
	s.Equal(2, report.TotalEvents)
	s.Empty(report.Issues)
}

func (s *AuditSuite) TestVerifyIntegrityDetectsEachIssueKind() {
	eventID := s.record(models.AuditCreated, "snap1")

	tampered, err := s.sink.AuditEventsBySnapshot(s.ctx, "snap1", storeQuery())
	s.Require().NoError(err)
	copyEvent := tampered[0]
	copyEvent.Metadata = map[string]any{"edited": true}
	body, err := json.Marshal(copyEvent)
	s.Require().NoError(err)
	_, err = s.blobs.Put(s.ctx, "audit_logs/2026/07/05/"+string(eventID)+".json", bytes.NewReader(body), core.PutOptions{})
	s.Require().NoError(err)

	s.Require().NoError(s.sink.SaveAuditEvent(s.ctx, models.AuditEvent{
		ID: "unmarked", EventType: models.AuditViewed, SnapshotID: "snap1",
		Timestamp: s.now.Format(time.RFC3339Nano),
	}))

	adapterOnly := New(s.sink, failingBlobs{s.blobs}, WithClock(s.clock))
	_, err = adapterOnly.Record(s.ctx, models.AuditViewed, Entry{SnapshotID: "snap1"})
	s.Require().NoError(err)

	report, err := s.svc.VerifyIntegrity(s.ctx, "snap1")
	s.Require().NoError(err)
	s.False(report.Intact)
	s.Equal(3, report.AdapterEvents)
	s.Equal(2, report.FileEvents)

	kinds := map[IssueKind]id.EventID{}
	for _, issue := range report.Issues {
		kinds[issue.Kind] = issue.EventID
	}
	s.Contains(kinds, IssueCountMismatch)
	s.Equal(eventID, kinds[IssueContentMismatch])
	s.Equal(id.EventID("unmarked"), kinds[IssueMissingMarkers])
}

func (s *AuditSuite) TestJSONExportRoundTripsTotals() {
	s.record(models.AuditCreated, "snap1")
	s.record(models.AuditViewed, "snap1")
	s.record(models.AuditStatusChanged, "snap1")

	live, err := s.svc.GetAuditLog(s.ctx, "snap1")
	s.Require().NoError(err)

	export, err := s.svc.ExportAuditLog(s.ctx, "snap1", FormatJSON)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(export.Key, "exports/audit_log_snap1_"))
	s.True(strings.HasSuffix(export.Key, ".json"))

	body, err := core.ReadAll(s.ctx, s.blobs, export.Key)
	s.Require().NoError(err)
	doc, err := ParseExport(body)
	s.Require().NoError(err)
	s.Equal(live.TotalEvents, doc.TotalEvents)
	s.Equal(live.EventSummary, doc.EventSummary)
	s.Len(doc.Events, 3)

	after, err := s.svc.GetAuditLog(s.ctx, "snap1")
	s.Require().NoError(err)
	s.Equal(1, after.EventSummary[models.AuditExported])
	s.Equal(export.EventID, after.Events[len(after.Events)-1].ID)
}

func (s *AuditSuite) TestCSVExport() {
	s.record(models.AuditCreated, "snap1")

	export, err := s.svc.ExportAuditLog(s.ctx, "snap1", FormatCSV)
	s.Require().NoError(err)
	s.True(strings.HasSuffix(export.Key, ".csv"))

	body, err := core.ReadAll(s.ctx, s.blobs, export.Key)
	s.Require().NoError(err)
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(csvHeader, rows[0])
	s.Equal("created", rows[1][1])
	s.Equal("true", rows[1][6])
}

func (s *AuditSuite) TestParseFormat() {
	f, err := ParseFormat("")
	s.Require().NoError(err)
	s.Equal(FormatJSON, f)
	_, err = ParseFormat("xml")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func storeQuery() store.AuditQuery { return store.AuditQuery{} }

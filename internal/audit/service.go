// Package audit keeps the append-only trail of entry-pack lifecycle events.
//
// Every event is written to two targets: the storage adapter's audit sink
// (when the adapter has one) and a date-partitioned JSON file tree in blob
// storage. Writes are create-only on both. An event counts as recorded when
// at least one target accepted it; audit failures never fail the business
// operation that produced them.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
	"travelkeep/pkg/platform/blob/core"
	"travelkeep/pkg/requestcontext"
)

// Blob tree prefixes.
const (
	TreePrefix   = "audit_logs/"
	ExportPrefix = "exports/"
)

const (
	targetAdapter = "adapter"
	targetFiles   = "file_tree"
)

type Service struct {
	sink       store.AuditSink
	blobs      core.Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	hostname   string
	appVersion string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithAppVersion(v string) Option {
	return func(s *Service) { s.appVersion = v }
}

func WithHostname(h string) Option {
	return func(s *Service) { s.hostname = h }
}

// New builds the audit service. sink may be nil when the adapter has no
// audit table; blobs may be nil to disable the file tree.
func New(sink store.AuditSink, blobs core.Store, opts ...Option) *Service {
	hostname, _ := os.Hostname()
	s := &Service{
		sink:       sink,
		blobs:      blobs,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		hostname:   hostname,
		appVersion: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TreeKey is the blob path of an event: audit_logs/YYYY/MM/DD/<id>.json.
func TreeKey(e models.AuditEvent) string {
	t := e.Time().UTC()
	return fmt.Sprintf("%s%s/%s.json", TreePrefix, t.Format("2006/01/02"), e.ID)
}

// Record writes a new event to every target in parallel. The returned
// error is non-nil only when no target accepted the event.
func (s *Service) Record(ctx context.Context, eventType models.AuditEventType, entry Entry) (id.EventID, error) {
	event := models.AuditEvent{
		ID:          id.NewEventID(),
		EventType:   eventType,
		Timestamp:   s.now().UTC().Format(time.RFC3339Nano),
		SnapshotID:  entry.SnapshotID,
		EntryPackID: entry.EntryPackID,
		UserID:      entry.UserID,
		Metadata:    entry.Metadata,
		SystemInfo:  s.systemInfo(ctx),
		Immutable:   true,
		Version:     models.AuditEventVersion,
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	var (
		g                  errgroup.Group
		sinkErr, filesErr  error
		wroteSink, wroteFS bool
	)
	if s.sink != nil {
		g.Go(func() error {
			sinkErr = s.sink.SaveAuditEvent(ctx, event)
			wroteSink = sinkErr == nil
			return nil
		})
	}
	if s.blobs != nil {
		g.Go(func() error {
			filesErr = s.writeFile(ctx, event)
			wroteFS = filesErr == nil
			return nil
		})
	}
	_ = g.Wait()

	if sinkErr != nil {
		s.metrics.IncAuditWriteFailure(targetAdapter)
		s.logger.WarnContext(ctx, "audit adapter write failed", "event_id", event.ID, "event_type", eventType, "error", sinkErr)
	}
	if filesErr != nil {
		s.metrics.IncAuditWriteFailure(targetFiles)
		s.logger.WarnContext(ctx, "audit file write failed", "event_id", event.ID, "event_type", eventType, "error", filesErr)
	}
	if !wroteSink && !wroteFS {
		err := errors.Join(sinkErr, filesErr)
		if err == nil {
			err = errors.New("no audit target configured")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record audit event")
	}
	s.logger.DebugContext(ctx, "audit event recorded", "event_id", event.ID, "event_type", eventType, "snapshot_id", event.SnapshotID)
	return event.ID, nil
}

func (s *Service) writeFile(ctx context.Context, event models.AuditEvent) error {
	body, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	_, err = s.blobs.Put(ctx, TreeKey(event), bytes.NewReader(body), core.PutOptions{ContentType: "application/json"})
	return err
}

func (s *Service) systemInfo(ctx context.Context) models.SystemInfo {
	return models.SystemInfo{
		Hostname:   s.hostname,
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		AppVersion: s.appVersion,
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
	}
}

// GetAuditLog returns the trail of a snapshot. The adapter is read first;
// the file tree is scanned when the adapter has nothing or fails.
func (s *Service) GetAuditLog(ctx context.Context, snapshotID id.SnapshotID) (Log, error) {
	if s.sink != nil {
		events, err := s.sink.AuditEventsBySnapshot(ctx, snapshotID, store.AuditQuery{})
		if err != nil {
			s.logger.WarnContext(ctx, "audit adapter read failed, scanning file tree", "snapshot_id", snapshotID, "error", err)
		} else if len(events) > 0 {
			return newLog(snapshotID, events, SourceAdapter), nil
		}
	}
	if s.blobs != nil {
		events, err := s.scanTree(ctx, snapshotID)
		if err != nil {
			return Log{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit log")
		}
		if len(events) > 0 {
			return newLog(snapshotID, events, SourceFileTree), nil
		}
	}
	return newLog(snapshotID, nil, SourceNone), nil
}

func newLog(snapshotID id.SnapshotID, events []models.AuditEvent, src Source) Log {
	if events == nil {
		events = []models.AuditEvent{}
	}
	models.SortAuditEvents(events)
	return Log{
		SnapshotID:   snapshotID,
		Events:       events,
		TotalEvents:  len(events),
		EventSummary: summarize(events),
		Source:       src,
	}
}

// scanTree reads every event file and keeps those of snapshotID. Files
// that do not decode are logged and skipped.
func (s *Service) scanTree(ctx context.Context, snapshotID id.SnapshotID) ([]models.AuditEvent, error) {
	infos, err := s.blobs.List(ctx, TreePrefix)
	if err != nil {
		return nil, fmt.Errorf("list audit tree: %w", err)
	}
	var out []models.AuditEvent
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, ".json") {
			continue
		}
		body, err := core.ReadAll(ctx, s.blobs, info.Key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", info.Key, err)
		}
		var e models.AuditEvent
		if err := json.Unmarshal(body, &e); err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable audit file", "key", info.Key, "error", err)
			continue
		}
		if e.SnapshotID == snapshotID {
			out = append(out, e)
		}
	}
	return out, nil
}

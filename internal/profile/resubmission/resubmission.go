// Package resubmission tracks submitted entry packs and raises a warning
// when the live profile drifts significantly from what was submitted.
//
//	incomplete/ready --Submit--> submitted --significant diff--> superseded
//	superseded --ClearWarning(resubmitted)--> submitted (newer snapshot)
//	superseded --ClearWarning(ignored)------> ready
package resubmission

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"travelkeep/internal/audit"
	"travelkeep/internal/profile/batch"
	"travelkeep/internal/profile/diff"
	"travelkeep/internal/profile/events"
	"travelkeep/internal/profile/metrics"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// Auditor records lifecycle events.
type Auditor interface {
	Record(ctx context.Context, eventType models.AuditEventType, entry audit.Entry) (id.EventID, error)
}

// Supersede explains why a pack was superseded.
type Supersede struct {
	ChangedFields []string
	Changes       []models.FieldChange
	Reason        string
}

type Engine struct {
	batch   *batch.Coordinator
	adapter store.Adapter
	auditor Auditor
	bus     events.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithAuditor(a Auditor) Option {
	return func(e *Engine) { e.auditor = a }
}

func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.bus = p }
}

func New(coord *batch.Coordinator, adapter store.Adapter, opts ...Option) *Engine {
	e := &Engine{
		batch:   coord,
		adapter: adapter,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot loads one of the user's snapshots.
func (e *Engine) Snapshot(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) (*models.Snapshot, error) {
	records, err := e.adapter.Load(ctx, models.EntitySnapshot, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshots")
	}
	for _, r := range records {
		if r.ID == snapshotID.String() {
			snap, err := models.FromRecord[models.Snapshot](r)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode snapshot")
			}
			return snap, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "snapshot not found")
}

// Submit records a successful external submission: the pack is refreshed,
// a snapshot of its current values is stored and the pack points at it.
// Pending warnings of the pack are cleared as resubmitted.
func (e *Engine) Submit(ctx context.Context, userID id.UserID, entryID id.EntityID) (*models.Snapshot, error) {
	var (
		snap       *models.Snapshot
		fromStatus models.EntryStatus
		cleared    []*models.ResubmissionWarning
	)
	res, err := e.batch.Apply(ctx, userID, func(s *batch.State, now time.Time) ([]models.Entity, error) {
		entry := s.Entry(entryID)
		if entry == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "entry pack not found")
		}
		entry.Refresh(s.Data, now)
		if err := entry.CanSubmit(); err != nil {
			return nil, err
		}
		fromStatus = entry.Status
		snap = models.NewSnapshot(entry, s.Data.SnapshotData(entry.DestinationID), now)
		entry.ApplySubmission(snap.ID, now)

		changed := []models.Entity{entry, snap}
		for _, w := range s.Warnings {
			if w.EntryInfoID == entryID && w.IsPending() {
				if err := w.Clear(models.ResolutionResubmitted, now); err != nil {
					return nil, err
				}
				cleared = append(cleared, w)
				changed = append(changed, w)
			}
		}
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	entry := res.State.Entry(entryID)

	e.record(ctx, models.AuditCreated, audit.Entry{
		SnapshotID:  snap.ID,
		EntryPackID: entryID,
		UserID:      userID,
		Metadata:    map[string]any{"destinationId": string(entry.DestinationID)},
	})
	e.record(ctx, models.AuditStatusChanged, audit.Entry{
		SnapshotID:  snap.ID,
		EntryPackID: entryID,
		UserID:      userID,
		Metadata:    map[string]any{"from": string(fromStatus), "to": string(models.EntrySubmitted)},
	})
	for _, w := range cleared {
		e.publish(events.Event{
			Kind:          events.KindWarningCleared,
			UserID:        userID,
			DestinationID: w.DestinationID,
			EntryInfoID:   entryID,
			SnapshotID:    w.SnapshotID,
			WarningID:     w.ID,
			Reason:        string(models.ResolutionResubmitted),
		})
	}
	e.logger.InfoContext(ctx, "entry pack submitted", "user_id", userID, "entry_info_id", entryID, "snapshot_id", snap.ID)
	return snap, nil
}

// Evaluate diffs every submitted pack of the user against its snapshot and
// supersedes the ones that drifted significantly.
func (e *Engine) Evaluate(ctx context.Context, userID id.UserID, s *batch.State) ([]*models.ResubmissionWarning, error) {
	var raised []*models.ResubmissionWarning
	for _, entry := range s.Entries {
		if entry.Status != models.EntrySubmitted || entry.CurrentSnapshotID.IsNil() {
			continue
		}
		snap, err := e.Snapshot(ctx, userID, entry.CurrentSnapshotID)
		if err != nil {
			return raised, fmt.Errorf("entry %s: %w", entry.ID, err)
		}
		d := diff.CalculateDiff(snap.Data, s.Data.SnapshotData(entry.DestinationID))
		if !d.RequiresImmediateResubmission() {
			continue
		}
		significant := d.SignificantFields()
		w, err := e.MarkEntryPackAsSuperseded(ctx, userID, entry.ID, Supersede{
			ChangedFields: significant,
			Changes:       d.Changes,
			Reason:        "significant changes: " + strings.Join(significant, ", "),
		})
		if err != nil {
			return raised, err
		}
		raised = append(raised, w)
	}
	return raised, nil
}

// MarkEntryPackAsSuperseded moves a submitted pack to superseded and
// persists a pending warning in the same batch.
func (e *Engine) MarkEntryPackAsSuperseded(ctx context.Context, userID id.UserID, entryID id.EntityID, change Supersede) (*models.ResubmissionWarning, error) {
	var warning *models.ResubmissionWarning
	_, err := e.batch.Apply(ctx, userID, func(s *batch.State, now time.Time) ([]models.Entity, error) {
		entry := s.Entry(entryID)
		if entry == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "entry pack not found")
		}
		if err := entry.CanSupersede(); err != nil {
			return nil, err
		}
		entry.ApplySupersede(now)
		changes := change.Changes
		if changes == nil {
			changes = []models.FieldChange{}
		}
		warning = &models.ResubmissionWarning{
			ID:            id.NewEntityID(),
			EntryInfoID:   entry.ID,
			UserID:        userID,
			DestinationID: entry.DestinationID,
			SnapshotID:    entry.CurrentSnapshotID,
			ChangedFields: change.ChangedFields,
			Changes:       changes,
			Reason:        change.Reason,
			CreatedAt:     now,
		}
		s.Warnings = append(s.Warnings, warning)
		return []models.Entity{entry, warning}, nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncResubmissionWarning()
	e.record(ctx, models.AuditStatusChanged, audit.Entry{
		SnapshotID:  warning.SnapshotID,
		EntryPackID: entryID,
		UserID:      userID,
		Metadata: map[string]any{
			"from":          string(models.EntrySubmitted),
			"to":            string(models.EntrySuperseded),
			"changedFields": warning.ChangedFields,
			"reason":        warning.Reason,
			"warningId":     string(warning.ID),
		},
	})
	e.publish(events.Event{
		Kind:          events.KindResubmissionRequired,
		UserID:        userID,
		DestinationID: warning.DestinationID,
		EntryInfoID:   entryID,
		SnapshotID:    warning.SnapshotID,
		WarningID:     warning.ID,
		ChangedFields: warning.ChangedFields,
		Reason:        warning.Reason,
	})
	e.logger.InfoContext(ctx, "entry pack superseded", "user_id", userID, "entry_info_id", entryID, "changed_fields", warning.ChangedFields)
	return warning, nil
}

// PendingWarnings lists the user's uncleared warnings, oldest first.
func (e *Engine) PendingWarnings(ctx context.Context, userID id.UserID) ([]*models.ResubmissionWarning, error) {
	s, err := e.batch.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ResubmissionWarning, 0, len(s.Warnings))
	for _, w := range s.Warnings {
		if w.IsPending() {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ClearWarning resolves a pending warning. ignored returns the pack to
// ready; resubmitted requires the pack to be submitted again with a newer
// snapshot than the one the warning was raised against.
func (e *Engine) ClearWarning(ctx context.Context, userID id.UserID, warningID id.EntityID, resolution models.WarningResolution) (*models.ResubmissionWarning, error) {
	var (
		warning              *models.ResubmissionWarning
		fromStatus, toStatus models.EntryStatus
	)
	_, err := e.batch.Apply(ctx, userID, func(s *batch.State, now time.Time) ([]models.Entity, error) {
		warning = s.Warning(warningID)
		if warning == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "warning not found")
		}
		entry := s.Entry(warning.EntryInfoID)
		if entry == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "entry pack not found")
		}
		fromStatus = entry.Status
		switch resolution {
		case models.ResolutionIgnored:
			entry.ApplyIgnore(now)
		case models.ResolutionResubmitted:
			if entry.Status != models.EntrySubmitted || entry.CurrentSnapshotID == warning.SnapshotID {
				return nil, dErrors.New(dErrors.CodeInvalidState, "entry pack has not been resubmitted")
			}
		default:
			return nil, dErrors.New(dErrors.CodeValidation, "resolution must be resubmitted or ignored")
		}
		if err := warning.Clear(resolution, now); err != nil {
			return nil, err
		}
		toStatus = entry.Status
		return []models.Entity{warning, entry}, nil
	})
	if err != nil {
		return nil, err
	}

	e.record(ctx, models.AuditStatusChanged, audit.Entry{
		SnapshotID:  warning.SnapshotID,
		EntryPackID: warning.EntryInfoID,
		UserID:      userID,
		Metadata: map[string]any{
			"from":       string(fromStatus),
			"to":         string(toStatus),
			"resolution": string(resolution),
			"warningId":  string(warning.ID),
		},
	})
	e.publish(events.Event{
		Kind:          events.KindWarningCleared,
		UserID:        userID,
		DestinationID: warning.DestinationID,
		EntryInfoID:   warning.EntryInfoID,
		SnapshotID:    warning.SnapshotID,
		WarningID:     warning.ID,
		Reason:        string(resolution),
	})
	return warning, nil
}

func (e *Engine) record(ctx context.Context, eventType models.AuditEventType, entry audit.Entry) {
	if e.auditor == nil {
		return
	}
	if _, err := e.auditor.Record(ctx, eventType, entry); err != nil {
		e.logger.WarnContext(ctx, "audit record failed", "event_type", eventType, "entry_info_id", entry.EntryPackID, "error", err)
	}
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		ev.OccurredAt = e.now().UTC()
		e.bus.Publish(ev)
	}
}

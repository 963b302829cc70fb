package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	"travelkeep/pkg/platform/sentinel"
)

// SaveAuditEvent inserts the event; an existing id is never overwritten.
func (s *Store) SaveAuditEvent(ctx context.Context, event models.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	res, err := s.exec(ctx).ExecContext(ctx, s.rebind(`
		INSERT INTO audit_events (id, snapshot_id, entry_pack_id, user_id, event_type, timestamp, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		event.ID.String(), event.SnapshotID.String(), event.EntryPackID.String(), event.UserID.String(),
		string(event.EventType), event.Timestamp, payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("audit event %s: %w", event.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *Store) AuditEventsBySnapshot(ctx context.Context, snapshotID id.SnapshotID, opts store.AuditQuery) ([]models.AuditEvent, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		s.rebind(`SELECT payload FROM audit_events WHERE snapshot_id = ?`), snapshotID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var e models.AuditEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", sentinel.ErrCorrupt)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	models.SortAuditEvents(events)
	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[:opts.Limit]
	}
	return events, nil
}

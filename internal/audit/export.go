package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
	"travelkeep/pkg/platform/blob/core"
)

var csvHeader = []string{"id", "eventType", "timestamp", "snapshotId", "entryPackId", "userId", "immutable", "version", "metadata"}

// ExportAuditLog writes the snapshot's trail to
// exports/audit_log_<snapshotId>_<timestamp>.<ext> and records an exported
// event. The export holds the trail as it was before that event.
func (s *Service) ExportAuditLog(ctx context.Context, snapshotID id.SnapshotID, format Format) (Export, error) {
	if s.blobs == nil {
		return Export{}, dErrors.New(dErrors.CodeUnavailable, "blob storage is not configured")
	}
	log, err := s.GetAuditLog(ctx, snapshotID)
	if err != nil {
		return Export{}, err
	}
	now := s.now().UTC()

	var body []byte
	contentType := "application/json"
	switch format {
	case FormatJSON:
		body, err = json.MarshalIndent(ExportDocument{
			SnapshotID:   snapshotID,
			ExportedAt:   now.Format(time.RFC3339Nano),
			TotalEvents:  log.TotalEvents,
			EventSummary: log.EventSummary,
			Events:       log.Events,
		}, "", "  ")
	case FormatCSV:
		contentType = "text/csv"
		body, err = encodeCSV(log.Events)
	default:
		return Export{}, dErrors.New(dErrors.CodeValidation, "format must be json or csv")
	}
	if err != nil {
		return Export{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode audit export")
	}

	key := fmt.Sprintf("%saudit_log_%s_%s.%s", ExportPrefix, snapshotID, now.Format("20060102T150405.000000000Z"), format)
	if _, err := s.blobs.Put(ctx, key, bytes.NewReader(body), core.PutOptions{ContentType: contentType}); err != nil {
		return Export{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit export")
	}

	out := Export{Key: key, Format: format, TotalEvents: log.TotalEvents, EventSummary: log.EventSummary}
	var entryPackID id.EntityID
	var userID id.UserID
	if len(log.Events) > 0 {
		entryPackID, userID = log.Events[0].EntryPackID, log.Events[0].UserID
	}
	eventID, err := s.Record(ctx, models.AuditExported, Entry{
		SnapshotID:  snapshotID,
		EntryPackID: entryPackID,
		UserID:      userID,
		Metadata:    map[string]any{"format": string(format), "key": key, "totalEvents": log.TotalEvents},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record export event", "snapshot_id", snapshotID, "error", err)
	}
	out.EventID = eventID
	s.logger.InfoContext(ctx, "audit log exported", "snapshot_id", snapshotID, "format", format, "key", key)
	return out, nil
}

// ParseExport decodes a JSON export.
func ParseExport(body []byte) (ExportDocument, error) {
	var doc ExportDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return ExportDocument{}, fmt.Errorf("decode audit export: %w", err)
	}
	return doc, nil
}

func encodeCSV(events []models.AuditEvent) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range events {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		if err := w.Write([]string{
			string(e.ID),
			string(e.EventType),
			e.Timestamp,
			string(e.SnapshotID),
			string(e.EntryPackID),
			string(e.UserID),
			strconv.FormatBool(e.Immutable),
			strconv.Itoa(e.Version),
			string(meta),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

package models

import (
	"sort"
	"time"

	id "travelkeep/pkg/domain"
)

// AuditEventType enumerates the entry-pack lifecycle events.
type AuditEventType string

const (
	AuditCreated       AuditEventType = "created"
	AuditViewed        AuditEventType = "viewed"
	AuditStatusChanged AuditEventType = "status_changed"
	AuditDeleted       AuditEventType = "deleted"
	AuditExported      AuditEventType = "exported"
)

// AuditEventVersion is the schema version stamped on every event.
const AuditEventVersion = 1

// SystemInfo describes where an audit event was produced.
type SystemInfo struct {
	Hostname   string `json:"hostname,omitempty"`
	Platform   string `json:"platform"`
	AppVersion string `json:"appVersion"`
	RequestID  string `json:"requestId,omitempty"`
	ClientIP   string `json:"clientIp,omitempty"`
	UserAgent  string `json:"userAgent,omitempty"`
}

// AuditEvent is an append-only record. Events are never updated or
// deleted; the same id must always carry the same content.
type AuditEvent struct {
	ID          id.EventID     `json:"id"`
	EventType   AuditEventType `json:"eventType"`
	Timestamp   string         `json:"timestamp"`
	SnapshotID  id.SnapshotID  `json:"snapshotId,omitempty"`
	EntryPackID id.EntityID    `json:"entryPackId,omitempty"`
	UserID      id.UserID      `json:"userId,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	SystemInfo  SystemInfo     `json:"systemInfo"`
	Immutable   bool           `json:"immutable"`
	Version     int            `json:"version"`
}

// Time parses Timestamp; unparseable values sort first.
func (e AuditEvent) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SortAuditEvents orders events by timestamp ascending, then id.
func SortAuditEvents(events []AuditEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].Time(), events[j].Time()
		if ti.Equal(tj) {
			return events[i].ID < events[j].ID
		}
		return ti.Before(tj)
	})
}

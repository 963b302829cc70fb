package audit

import (
	"time"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// Entry is what a caller supplies for a new audit event.
type Entry struct {
	SnapshotID  id.SnapshotID
	EntryPackID id.EntityID
	UserID      id.UserID
	Metadata    map[string]any
}

// Source names where a Log was read from.
type Source string

const (
	SourceAdapter  Source = "adapter"
	SourceFileTree Source = "file_tree"
	SourceNone     Source = "none"
)

// Log is the audit trail of one snapshot, oldest first.
type Log struct {
	SnapshotID   id.SnapshotID                 `json:"snapshotId"`
	Events       []models.AuditEvent           `json:"events"`
	TotalEvents  int                           `json:"totalEvents"`
	EventSummary map[models.AuditEventType]int `json:"eventSummary"`
	Source       Source                        `json:"source"`
}

// IssueKind classifies an integrity violation.
type IssueKind string

const (
	IssueCountMismatch   IssueKind = "count_mismatch"
	IssueContentMismatch IssueKind = "content_mismatch"
	IssueMissingMarkers  IssueKind = "missing_markers"
)

type Issue struct {
	Kind    IssueKind  `json:"kind"`
	EventID id.EventID `json:"eventId,omitempty"`
	Detail  string     `json:"detail"`
}

// IntegrityReport lists every violation found; Intact is true iff none.
type IntegrityReport struct {
	SnapshotID    id.SnapshotID `json:"snapshotId"`
	Intact        bool          `json:"intact"`
	TotalEvents   int           `json:"totalEvents"`
	AdapterEvents int           `json:"adapterEvents"`
	FileEvents    int           `json:"fileEvents"`
	Issues        []Issue       `json:"issues"`
	CheckedAt     time.Time     `json:"checkedAt"`
}

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "format must be json or csv")
}

// Export describes a written export file.
type Export struct {
	Key          string                        `json:"key"`
	Format       Format                        `json:"format"`
	TotalEvents  int                           `json:"totalEvents"`
	EventSummary map[models.AuditEventType]int `json:"eventSummary"`
	EventID      id.EventID                    `json:"eventId,omitempty"`
}

// ExportDocument is the body of a JSON export.
type ExportDocument struct {
	SnapshotID   id.SnapshotID                 `json:"snapshotId"`
	ExportedAt   string                        `json:"exportedAt"`
	TotalEvents  int                           `json:"totalEvents"`
	EventSummary map[models.AuditEventType]int `json:"eventSummary"`
	Events       []models.AuditEvent           `json:"events"`
}

func summarize(events []models.AuditEvent) map[models.AuditEventType]int {
	out := make(map[models.AuditEventType]int)
	for _, e := range events {
		out[e.EventType]++
	}
	return out
}

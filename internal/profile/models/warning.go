package models

import (
	"time"

	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// FieldChange is one difference between a snapshot and the live profile.
type FieldChange struct {
	Section     string `json:"section"`
	Field       string `json:"field"`
	Old         string `json:"old,omitempty"`
	New         string `json:"new,omitempty"`
	Significant bool   `json:"significant"`
}

// WarningResolution records how a resubmission warning was cleared.
type WarningResolution string

const (
	ResolutionResubmitted WarningResolution = "resubmitted"
	ResolutionIgnored     WarningResolution = "ignored"
)

func ParseWarningResolution(s string) (WarningResolution, error) {
	switch WarningResolution(s) {
	case ResolutionResubmitted, ResolutionIgnored:
		return WarningResolution(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "resolution must be resubmitted or ignored")
}

// ResubmissionWarning is raised when a submitted pack drifts significantly
// from its snapshot.
type ResubmissionWarning struct {
	ID            id.EntityID       `json:"id"`
	EntryInfoID   id.EntityID       `json:"entryInfoId"`
	UserID        id.UserID         `json:"userId"`
	DestinationID id.DestinationID  `json:"destinationId"`
	SnapshotID    id.SnapshotID     `json:"snapshotId"`
	ChangedFields []string          `json:"changedFields"`
	Changes       []FieldChange     `json:"changes"`
	Reason        string            `json:"reason"`
	CreatedAt     time.Time         `json:"createdAt"`
	ClearedAt     *time.Time        `json:"clearedAt,omitempty"`
	Resolution    WarningResolution `json:"resolution,omitempty"`
}

func (w *ResubmissionWarning) Kind() EntityType { return EntityResubmissionWarning }
func (w *ResubmissionWarning) Owner() id.UserID { return w.UserID }
func (w *ResubmissionWarning) Key() string      { return w.ID.String() }

func (w *ResubmissionWarning) LastUpdated() time.Time {
	if w.ClearedAt != nil {
		return *w.ClearedAt
	}
	return w.CreatedAt
}

func (w *ResubmissionWarning) IsPending() bool { return w.ClearedAt == nil }

// Clear resolves the warning. A cleared warning cannot be cleared again.
func (w *ResubmissionWarning) Clear(resolution WarningResolution, now time.Time) error {
	if !w.IsPending() {
		return dErrors.New(dErrors.CodeInvalidState, "warning already cleared")
	}
	cleared := now
	w.ClearedAt = &cleared
	w.Resolution = resolution
	return nil
}

// Package store defines the storage adapter port for profile data.
//
// The adapter is the sole durable owner of user data. Implementations
// return sentinel errors (ErrNotFound, ErrConflict) which the profile
// service translates into domain errors.
package store

import (
	"context"
	"time"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
)

//go:generate mockgen -source=store.go -destination=mocks/store_mock.go -package=mocks

// Adapter persists entity records keyed by (type, user, id).
//
// BatchSave is atomic: either every record is written or none is.
type Adapter interface {
	Load(ctx context.Context, entityType models.EntityType, userID id.UserID) ([]models.Record, error)
	Save(ctx context.Context, record models.Record) error
	Delete(ctx context.Context, entityType models.EntityType, userID id.UserID, recordID string) error
	BatchLoad(ctx context.Context, userID id.UserID, types []models.EntityType) (map[models.EntityType][]models.Record, error)
	BatchSave(ctx context.Context, records []models.Record) error
	NeedsMigration(ctx context.Context, userID id.UserID) (bool, error)
	MarkMigrationComplete(ctx context.Context, userID id.UserID) error
}

// AuditQuery narrows AuditEventsBySnapshot.
type AuditQuery struct {
	Limit int
}

// AuditSink is implemented by adapters that can hold the audit trail.
// SaveAuditEvent is create-only and returns sentinel.ErrConflict for a
// duplicate id.
type AuditSink interface {
	SaveAuditEvent(ctx context.Context, event models.AuditEvent) error
	AuditEventsBySnapshot(ctx context.Context, snapshotID id.SnapshotID, opts AuditQuery) ([]models.AuditEvent, error)
}

// ValidateRecord checks the fields every adapter keys on.
func ValidateRecord(r models.Record) error {
	switch {
	case r.Type == "":
		return errMissing("type")
	case r.UserID.IsNil():
		return errMissing("user id")
	case r.ID == "":
		return errMissing("id")
	case r.UpdatedAt.IsZero():
		return errMissing("updated at")
	}
	return nil
}

// TimestampLayout is a fixed-width UTC layout, so persisted timestamps sort
// lexically in chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

func FormatTime(t time.Time) string { return t.UTC().Format(TimestampLayout) }

func ParseTime(s string) (time.Time, error) { return time.Parse(TimestampLayout, s) }

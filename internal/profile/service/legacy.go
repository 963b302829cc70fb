package service

import (
	"context"

	"travelkeep/internal/audit"
	"travelkeep/internal/profile/conflict"
	"travelkeep/internal/profile/migration"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

var errNoLegacy = dErrors.New(dErrors.CodeUnavailable, "legacy store is not configured")

// MigrateFromLegacy runs the legacy import now. It is a no-op once the
// user's migration is marked complete.
func (s *Service) MigrateFromLegacy(ctx context.Context, userID id.UserID) (res migration.Result, err error) {
	ctx, end := s.span(ctx, "MigrateFromLegacy", userID)
	defer func() { end(err) }()
	if s.migration == nil {
		return migration.Result{}, errNoLegacy
	}
	res, err = s.runMigration(ctx, userID)
	if err != nil {
		return migration.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "legacy migration failed")
	}
	return res, nil
}

func (s *Service) DetectDataConflicts(ctx context.Context, userID id.UserID) (r conflict.Report, err error) {
	ctx, end := s.span(ctx, "DetectDataConflicts", userID)
	defer func() { end(err) }()
	if s.conflicts == nil {
		return conflict.Report{}, nil
	}
	return s.conflicts.Detect(ctx, userID), nil
}

// ResolveDataConflicts keeps the adapter's values and refreshes the cache
// for every conflicted family.
func (s *Service) ResolveDataConflicts(ctx context.Context, userID id.UserID) (r conflict.Resolution, err error) {
	ctx, end := s.span(ctx, "ResolveDataConflicts", userID)
	defer func() { end(err) }()
	if s.conflicts == nil {
		return conflict.Resolution{Conflicts: conflict.Conflicts{}}, nil
	}
	r, err = s.conflicts.Resolve(ctx, userID)
	if err != nil {
		return r, dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh conflicted data")
	}
	return r, nil
}

// ownSnapshot checks that snapshotID belongs to userID.
func (s *Service) ownSnapshot(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) error {
	_, err := s.resub.Snapshot(ctx, userID, snapshotID)
	return err
}

// GetAuditLog returns the trail of one of the user's snapshots.
func (s *Service) GetAuditLog(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) (log audit.Log, err error) {
	ctx, end := s.span(ctx, "GetAuditLog", userID)
	defer func() { end(err) }()
	if err := s.ownSnapshot(ctx, userID, snapshotID); err != nil {
		return audit.Log{}, err
	}
	return s.audit.GetAuditLog(ctx, snapshotID)
}

func (s *Service) VerifyAuditIntegrity(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) (r audit.IntegrityReport, err error) {
	ctx, end := s.span(ctx, "VerifyAuditIntegrity", userID)
	defer func() { end(err) }()
	if err := s.ownSnapshot(ctx, userID, snapshotID); err != nil {
		return audit.IntegrityReport{}, err
	}
	return s.audit.VerifyIntegrity(ctx, snapshotID)
}

func (s *Service) ExportAuditLog(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID, format audit.Format) (x audit.Export, err error) {
	ctx, end := s.span(ctx, "ExportAuditLog", userID)
	defer func() { end(err) }()
	if err := s.ownSnapshot(ctx, userID, snapshotID); err != nil {
		return audit.Export{}, err
	}
	return s.audit.ExportAuditLog(ctx, snapshotID, format)
}

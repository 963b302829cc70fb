package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"travelkeep/internal/audit"
	"travelkeep/internal/profile/batch"
	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/resubmission"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// Form sections saved by SaveEntryForm.
const (
	FormPassport     = "passport"
	FormPersonalInfo = "personalInfo"
	FormTravelInfo   = "travelInfo"
)

// EntryForm is the combined form of one destination screen.
type EntryForm struct {
	DestinationID id.DestinationID          `json:"destinationId"`
	Passport      *models.PassportPatch     `json:"passport,omitempty"`
	PersonalInfo  *models.PersonalInfoPatch `json:"personalInfo,omitempty"`
	TravelInfo    *models.TravelInfoPatch   `json:"travelInfo,omitempty"`
}

// FormResult reports which sections were saved. Failed maps a section to
// its error message.
type FormResult struct {
	Data   *models.UserData  `json:"data"`
	Saved  []string          `json:"saved"`
	Failed map[string]string `json:"failed,omitempty"`
}

// SaveEntryForm saves each section independently. It fails only when every
// attempted section failed.
func (s *Service) SaveEntryForm(ctx context.Context, userID id.UserID, form EntryForm) (out FormResult, err error) {
	ctx, end := s.span(ctx, "SaveEntryForm", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	type section struct {
		name    string
		updates batch.Updates
		family  models.EntityType
	}
	var sections []section
	if form.Passport != nil {
		sections = append(sections, section{FormPassport, batch.Updates{Passport: form.Passport}, models.EntityPassport})
	}
	if form.PersonalInfo != nil {
		sections = append(sections, section{FormPersonalInfo, batch.Updates{PersonalInfo: form.PersonalInfo}, models.EntityPersonalInfo})
	}
	if form.TravelInfo != nil {
		travel := *form.TravelInfo
		if travel.DestinationID.IsNil() {
			travel.DestinationID = form.DestinationID
		}
		sections = append(sections, section{FormTravelInfo, batch.Updates{TravelInfo: &travel}, models.EntityTravelInfo})
	}

	out = FormResult{Saved: []string{}}
	var (
		errs   []error
		failed []string
	)
	for _, sec := range sections {
		if _, err := s.commit(ctx, userID, sec.family, sec.updates.Mutation(userID)); err != nil {
			if out.Failed == nil {
				out.Failed = make(map[string]string)
			}
			out.Failed[sec.name] = dErrors.MessageOf(err)
			errs = append(errs, err)
			failed = append(failed, sec.name)
			s.logger.WarnContext(ctx, "entry form section failed", "user_id", userID, "section", sec.name, "error", err)
			continue
		}
		out.Saved = append(out.Saved, sec.name)
	}
	if len(sections) > 0 && len(errs) == len(sections) {
		return out, formError(failed, errs)
	}

	st, err := s.batch.Load(ctx, userID)
	if err != nil {
		return out, err
	}
	out.Data = st.Data
	return out, nil
}

// formError reports a form whose every section failed. Storage failures
// make it internal. Otherwise a shared input code is kept, and mixed input
// codes are reported as a validation failure.
func formError(sections []string, errs []error) error {
	code := dErrors.CodeOf(errs[0])
	msgs := make([]string, 0, len(errs))
	for i, err := range errs {
		if retryable(err) {
			return dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "failed to save entry form")
		}
		if dErrors.CodeOf(err) != code {
			code = dErrors.CodeValidation
		}
		msgs = append(msgs, sections[i]+": "+dErrors.MessageOf(err))
	}
	return dErrors.Wrap(errors.Join(errs...), code, strings.Join(msgs, "; "))
}

// EnsureEntryInfo returns the user's pack for a destination, creating it
// when missing. Packs exist before any passport is entered.
func (s *Service) EnsureEntryInfo(ctx context.Context, userID id.UserID, destinationID id.DestinationID) (entry *models.EntryInfo, err error) {
	ctx, end := s.span(ctx, "EnsureEntryInfo", userID)
	defer func() { end(err) }()
	if destinationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "destination is required")
	}
	s.ensureMigrated(ctx, userID)

	entries, err := s.entryInfos(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.DestinationID == destinationID {
			return e, nil
		}
	}
	res, err := s.commit(ctx, userID, models.EntityEntryInfo, func(st *batch.State, now time.Time) ([]models.Entity, error) {
		if st.EntryFor(destinationID) != nil {
			return nil, nil
		}
		e := models.NewEntryInfo(userID, destinationID, now)
		st.Entries = append(st.Entries, e)
		return []models.Entity{e}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.State.EntryFor(destinationID), nil
}

// RecordSubmission snapshots a pack after a successful external submission.
func (s *Service) RecordSubmission(ctx context.Context, userID id.UserID, entryID id.EntityID) (snap *models.Snapshot, err error) {
	ctx, end := s.span(ctx, "RecordSubmission", userID)
	defer func() { end(err) }()
	return s.resub.Submit(ctx, userID, entryID)
}

// GetSnapshot returns a snapshot and records that it was viewed.
func (s *Service) GetSnapshot(ctx context.Context, userID id.UserID, snapshotID id.SnapshotID) (snap *models.Snapshot, err error) {
	ctx, end := s.span(ctx, "GetSnapshot", userID)
	defer func() { end(err) }()
	snap, err = s.resub.Snapshot(ctx, userID, snapshotID)
	if err != nil {
		return nil, err
	}
	if _, err := s.audit.Record(ctx, models.AuditViewed, audit.Entry{
		SnapshotID:  snap.ID,
		EntryPackID: snap.EntryInfoID,
		UserID:      userID,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "event_type", models.AuditViewed, "snapshot_id", snap.ID, "error", err)
	}
	return snap, nil
}

func (s *Service) MarkEntryPackAsSuperseded(ctx context.Context, userID id.UserID, entryID id.EntityID, change resubmission.Supersede) (w *models.ResubmissionWarning, err error) {
	ctx, end := s.span(ctx, "MarkEntryPackAsSuperseded", userID)
	defer func() { end(err) }()
	return s.resub.MarkEntryPackAsSuperseded(ctx, userID, entryID, change)
}

func (s *Service) GetPendingResubmissionWarnings(ctx context.Context, userID id.UserID) (ws []*models.ResubmissionWarning, err error) {
	ctx, end := s.span(ctx, "GetPendingResubmissionWarnings", userID)
	defer func() { end(err) }()
	return s.resub.PendingWarnings(ctx, userID)
}

func (s *Service) ClearResubmissionWarning(ctx context.Context, userID id.UserID, warningID id.EntityID, resolution models.WarningResolution) (w *models.ResubmissionWarning, err error) {
	ctx, end := s.span(ctx, "ClearResubmissionWarning", userID)
	defer func() { end(err) }()
	return s.resub.ClearWarning(ctx, userID, warningID, resolution)
}

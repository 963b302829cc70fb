package service

import (
	"context"
	"errors"
	"time"

	"travelkeep/internal/profile/batch"
	"travelkeep/internal/profile/events"
	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
	"travelkeep/pkg/platform/sentinel"
)

func noChange(*batch.State, time.Time) ([]models.Entity, error) { return nil, nil }

// retryable reports whether a failure came from storage rather than input.
func retryable(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return true
	}
	return false
}

// commit applies m, retrying once after dropping the user's cached state.
// Input errors are returned as they are.
func (s *Service) commit(ctx context.Context, userID id.UserID, what models.EntityType, m batch.Mutation) (batch.Result, error) {
	res, err := s.batch.Apply(ctx, userID, m)
	if err != nil && retryable(err) {
		s.logger.WarnContext(ctx, "save failed, retrying", "user_id", userID, "entity_type", what, "error", err)
		s.cache.InvalidateUser(userID)
		res, err = s.batch.Apply(ctx, userID, m)
		if err != nil && retryable(err) {
			s.logger.ErrorContext(ctx, "save failed after retry", "user_id", userID, "entity_type", what, "error", err)
			return batch.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save "+what.String()+" after retry")
		}
	}
	if err != nil {
		return batch.Result{}, err
	}
	s.afterWrite(ctx, userID, res)
	return res, nil
}

// afterWrite notifies listeners and re-checks submitted packs.
func (s *Service) afterWrite(ctx context.Context, userID id.UserID, res batch.Result) {
	if len(res.Changed) == 0 {
		return
	}
	s.bus.Publish(events.Event{
		Kind:        events.KindDataChanged,
		UserID:      userID,
		EntityTypes: res.Changed,
		OccurredAt:  s.now().UTC(),
	})
	if !touchesProfile(res.Changed) {
		return
	}
	if _, err := s.resub.Evaluate(ctx, userID, res.State); err != nil {
		s.logger.WarnContext(ctx, "resubmission check failed", "user_id", userID, "error", err)
	}
}

func touchesProfile(types []models.EntityType) bool {
	for _, t := range types {
		for _, p := range models.ProfileTypes {
			if t == p {
				return true
			}
		}
	}
	return false
}

// SavePassport stores the user's passport, replacing the current one.
func (s *Service) SavePassport(ctx context.Context, in *models.Passport, userID id.UserID) (out *models.Passport, err error) {
	ctx, end := s.span(ctx, "SavePassport", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	res, err := s.commit(ctx, userID, models.EntityPassport, func(st *batch.State, now time.Time) ([]models.Entity, error) {
		p := *in
		p.UserID = userID
		p.CreatedAt = now
		if cur := st.Data.Passport; cur != nil {
			p.CreatedAt = cur.CreatedAt
			if p.ID.IsNil() {
				p.ID = cur.ID
			}
		}
		if p.ID.IsNil() {
			p.ID = id.NewEntityID()
		}
		p.UpdatedAt = now
		st.Data.Passport = &p
		return []models.Entity{&p}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.State.Data.Passport, nil
}

func (s *Service) SavePersonalInfo(ctx context.Context, in *models.PersonalInfo, userID id.UserID) (out *models.PersonalInfo, err error) {
	ctx, end := s.span(ctx, "SavePersonalInfo", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	res, err := s.commit(ctx, userID, models.EntityPersonalInfo, func(st *batch.State, now time.Time) ([]models.Entity, error) {
		pi := *in
		pi.UserID = userID
		pi.CreatedAt = now
		if cur := st.Data.PersonalInfo; cur != nil {
			pi.CreatedAt = cur.CreatedAt
			if pi.ID.IsNil() {
				pi.ID = cur.ID
			}
		}
		if pi.ID.IsNil() {
			pi.ID = id.NewEntityID()
		}
		pi.UpdatedAt = now
		st.Data.PersonalInfo = &pi
		return []models.Entity{&pi}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.State.Data.PersonalInfo, nil
}

// SaveFundItem creates a fund item, or replaces the one with the same id.
func (s *Service) SaveFundItem(ctx context.Context, in *models.FundItem, userID id.UserID) (out *models.FundItem, err error) {
	ctx, end := s.span(ctx, "SaveFundItem", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	var saved *models.FundItem
	_, err = s.commit(ctx, userID, models.EntityFundItem, func(st *batch.State, now time.Time) ([]models.Entity, error) {
		f := *in
		f.UserID = userID
		f.CreatedAt = now
		if f.ID.IsNil() {
			f.ID = id.NewEntityID()
		}
		f.UpdatedAt = now
		replaced := false
		for i, cur := range st.Data.FundItems {
			if cur.ID == f.ID {
				f.CreatedAt = cur.CreatedAt
				st.Data.FundItems[i] = &f
				replaced = true
			}
		}
		if !replaced {
			st.Data.FundItems = append(st.Data.FundItems, &f)
		}
		saved = &f
		return []models.Entity{&f}, nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SaveTravelInfo stores the itinerary for in.DestinationID.
func (s *Service) SaveTravelInfo(ctx context.Context, in *models.TravelInfo, userID id.UserID) (out *models.TravelInfo, err error) {
	ctx, end := s.span(ctx, "SaveTravelInfo", userID)
	defer func() { end(err) }()
	if in.DestinationID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "travel info requires a destination")
	}
	s.ensureMigrated(ctx, userID)

	var saved *models.TravelInfo
	_, err = s.commit(ctx, userID, models.EntityTravelInfo, func(st *batch.State, now time.Time) ([]models.Entity, error) {
		t := *in
		t.UserID = userID
		t.CreatedAt = now
		t.UpdatedAt = now
		replaced := false
		for i, cur := range st.Data.TravelInfos {
			if cur.DestinationID == t.DestinationID {
				t.ID = cur.ID
				t.CreatedAt = cur.CreatedAt
				st.Data.TravelInfos[i] = &t
				replaced = true
			}
		}
		if t.ID.IsNil() {
			t.ID = id.NewEntityID()
		}
		if !replaced {
			st.Data.TravelInfos = append(st.Data.TravelInfos, &t)
		}
		saved = &t
		return []models.Entity{&t}, nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteFundItem removes a fund item and refreshes the entry packs.
func (s *Service) DeleteFundItem(ctx context.Context, userID id.UserID, itemID id.EntityID) (err error) {
	ctx, end := s.span(ctx, "DeleteFundItem", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	if err := s.adapter.Delete(ctx, models.EntityFundItem, userID, itemID.String()); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "fund item not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete fund item")
	}
	s.cache.Invalidate(models.EntityFundItem, userID)

	res, err := s.batch.Apply(ctx, userID, noChange)
	if err != nil {
		s.logger.WarnContext(ctx, "entry pack refresh after delete failed", "user_id", userID, "error", err)
		return nil
	}
	res.Changed = append(res.Changed, models.EntityFundItem)
	s.afterWrite(ctx, userID, res)
	return nil
}

// UpdatePassport applies a partial update to an existing passport.
func (s *Service) UpdatePassport(ctx context.Context, userID id.UserID, passportID id.EntityID, patch models.PassportPatch) (out *models.Passport, err error) {
	ctx, end := s.span(ctx, "UpdatePassport", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	res, err := s.commit(ctx, userID, models.EntityPassport, func(st *batch.State, now time.Time) ([]models.Entity, error) {
		p := st.Data.Passport
		if p == nil || p.ID != passportID {
			return nil, dErrors.New(dErrors.CodeNotFound, "passport not found")
		}
		if !patch.Apply(p) {
			return nil, nil
		}
		p.UpdatedAt = now
		return []models.Entity{p}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.State.Data.Passport, nil
}

// UpdatePersonalInfo applies a partial update to existing personal info.
func (s *Service) UpdatePersonalInfo(ctx context.Context, userID id.UserID, personalInfoID id.EntityID, patch models.PersonalInfoPatch) (out *models.PersonalInfo, err error) {
	ctx, end := s.span(ctx, "UpdatePersonalInfo", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	res, err := s.commit(ctx, userID, models.EntityPersonalInfo, func(st *batch.State, now time.Time) ([]models.Entity, error) {
		pi := st.Data.PersonalInfo
		if pi == nil || pi.ID != personalInfoID {
			return nil, dErrors.New(dErrors.CodeNotFound, "personal info not found")
		}
		if !patch.Apply(pi) {
			return nil, nil
		}
		pi.UpdatedAt = now
		return []models.Entity{pi}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.State.Data.PersonalInfo, nil
}

// BatchUpdate merges several partial updates in one atomic write. Empty
// updates only read.
func (s *Service) BatchUpdate(ctx context.Context, userID id.UserID, u batch.Updates) (data *models.UserData, err error) {
	ctx, end := s.span(ctx, "BatchUpdate", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	if u.IsEmpty() {
		res, err := s.batch.BatchUpdate(ctx, userID, u)
		if err != nil {
			return nil, err
		}
		return res.State.Data, nil
	}
	res, err := s.commit(ctx, userID, primaryType(u), u.Mutation(userID))
	if err != nil {
		return nil, err
	}
	return res.State.Data, nil
}

func primaryType(u batch.Updates) models.EntityType {
	switch {
	case u.Passport != nil:
		return models.EntityPassport
	case u.PersonalInfo != nil:
		return models.EntityPersonalInfo
	case u.TravelInfo != nil:
		return models.EntityTravelInfo
	}
	return models.EntityFundItem
}

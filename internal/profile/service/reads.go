package service

import (
	"context"
	"sort"

	"travelkeep/internal/profile/batch"
	"travelkeep/internal/profile/cache"
	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// GetOptions tunes GetAllUserData.
type GetOptions struct {
	// UseBatchLoad reads every family in one adapter round trip, bypassing
	// the cache.
	UseBatchLoad bool
}

// cached serves a family from the cache, loading and filling it on a miss.
// A fill racing with an invalidation is dropped by the cache.
func cached[T any](c *cache.Cache, entityType models.EntityType, userID id.UserID, load func() (T, error)) (T, error) {
	v, ticket, ok := c.Lookup(entityType, userID)
	if ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	loaded, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Fill(ticket, loaded)
	return loaded, nil
}

func (s *Service) load(ctx context.Context, entityType models.EntityType, userID id.UserID) ([]models.Record, error) {
	recs, err := s.adapter.Load(ctx, entityType, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entityType.String())
	}
	return recs, nil
}

func decodeErr(err error, entityType models.EntityType) error {
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode "+entityType.String())
}

func (s *Service) passport(ctx context.Context, userID id.UserID) (*models.Passport, error) {
	return cached(s.cache, models.EntityPassport, userID, func() (*models.Passport, error) {
		recs, err := s.load(ctx, models.EntityPassport, userID)
		if err != nil {
			return nil, err
		}
		p, err := models.LatestAs[models.Passport](recs)
		if err != nil {
			return nil, decodeErr(err, models.EntityPassport)
		}
		return p, nil
	})
}

func (s *Service) personalInfo(ctx context.Context, userID id.UserID) (*models.PersonalInfo, error) {
	return cached(s.cache, models.EntityPersonalInfo, userID, func() (*models.PersonalInfo, error) {
		recs, err := s.load(ctx, models.EntityPersonalInfo, userID)
		if err != nil {
			return nil, err
		}
		pi, err := models.LatestAs[models.PersonalInfo](recs)
		if err != nil {
			return nil, decodeErr(err, models.EntityPersonalInfo)
		}
		return pi, nil
	})
}

func (s *Service) fundItems(ctx context.Context, userID id.UserID) ([]*models.FundItem, error) {
	return cached(s.cache, models.EntityFundItem, userID, func() ([]*models.FundItem, error) {
		recs, err := s.load(ctx, models.EntityFundItem, userID)
		if err != nil {
			return nil, err
		}
		items, err := models.FromRecords[models.FundItem](recs)
		if err != nil {
			return nil, decodeErr(err, models.EntityFundItem)
		}
		return items, nil
	})
}

func (s *Service) travelInfos(ctx context.Context, userID id.UserID) ([]*models.TravelInfo, error) {
	return cached(s.cache, models.EntityTravelInfo, userID, func() ([]*models.TravelInfo, error) {
		recs, err := s.load(ctx, models.EntityTravelInfo, userID)
		if err != nil {
			return nil, err
		}
		data, err := batch.DecodeUserData(userID, map[models.EntityType][]models.Record{models.EntityTravelInfo: recs})
		if err != nil {
			return nil, decodeErr(err, models.EntityTravelInfo)
		}
		return data.TravelInfos, nil
	})
}

func (s *Service) entryInfos(ctx context.Context, userID id.UserID) ([]*models.EntryInfo, error) {
	return cached(s.cache, models.EntityEntryInfo, userID, func() ([]*models.EntryInfo, error) {
		recs, err := s.load(ctx, models.EntityEntryInfo, userID)
		if err != nil {
			return nil, err
		}
		entries, err := models.FromRecords[models.EntryInfo](recs)
		if err != nil {
			return nil, decodeErr(err, models.EntityEntryInfo)
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
		return entries, nil
	})
}

func (s *Service) GetPassport(ctx context.Context, userID id.UserID) (p *models.Passport, err error) {
	ctx, end := s.span(ctx, "GetPassport", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)
	return s.passport(ctx, userID)
}

func (s *Service) GetPersonalInfo(ctx context.Context, userID id.UserID) (pi *models.PersonalInfo, err error) {
	ctx, end := s.span(ctx, "GetPersonalInfo", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)
	return s.personalInfo(ctx, userID)
}

func (s *Service) GetFundItems(ctx context.Context, userID id.UserID) (items []*models.FundItem, err error) {
	ctx, end := s.span(ctx, "GetFundItems", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)
	return s.fundItems(ctx, userID)
}

// GetTravelInfo returns the itinerary for a destination, or nil.
func (s *Service) GetTravelInfo(ctx context.Context, userID id.UserID, destinationID id.DestinationID) (t *models.TravelInfo, err error) {
	ctx, end := s.span(ctx, "GetTravelInfo", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)
	travels, err := s.travelInfos(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := models.UserData{TravelInfos: travels}
	return data.TravelFor(destinationID), nil
}

func (s *Service) ListEntryInfos(ctx context.Context, userID id.UserID) (entries []*models.EntryInfo, err error) {
	ctx, end := s.span(ctx, "ListEntryInfos", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)
	return s.entryInfos(ctx, userID)
}

func (s *Service) GetEntryInfo(ctx context.Context, userID id.UserID, entryID id.EntityID) (entry *models.EntryInfo, err error) {
	ctx, end := s.span(ctx, "GetEntryInfo", userID)
	defer func() { end(err) }()
	entries, err := s.entryInfos(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "entry pack not found")
}

// GetAllUserData returns the full editable profile.
func (s *Service) GetAllUserData(ctx context.Context, userID id.UserID, opts GetOptions) (data *models.UserData, err error) {
	ctx, end := s.span(ctx, "GetAllUserData", userID)
	defer func() { end(err) }()
	s.ensureMigrated(ctx, userID)

	if opts.UseBatchLoad {
		st, err := s.batch.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		return st.Data, nil
	}

	data = &models.UserData{UserID: userID}
	if data.Passport, err = s.passport(ctx, userID); err != nil {
		return nil, err
	}
	if data.PersonalInfo, err = s.personalInfo(ctx, userID); err != nil {
		return nil, err
	}
	if data.FundItems, err = s.fundItems(ctx, userID); err != nil {
		return nil, err
	}
	if data.TravelInfos, err = s.travelInfos(ctx, userID); err != nil {
		return nil, err
	}
	return data, nil
}

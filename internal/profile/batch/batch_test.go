package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"travelkeep/internal/profile/cache"
	"travelkeep/internal/profile/models"
	storemem "travelkeep/internal/profile/store/memory"
	storemocks "travelkeep/internal/profile/store/mocks"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

type BatchSuite struct {
	suite.Suite
	ctx     context.Context
	adapter *storemem.Store
	cache   *cache.Cache
	coord   *Coordinator
}

func (s *BatchSuite) SetupTest() {
	s.ctx = context.Background()
	s.adapter = storemem.New()
	s.cache = cache.New()
	s.coord = New(s.adapter, WithInvalidator(s.cache), WithClock(func() time.Time { return fixedNow }))
}

func TestBatchSuite(t *testing.T) {
	suite.Run(t, new(BatchSuite))
}

func (s *BatchSuite) TestCreatesEntitiesFromPatches() {
	res, err := s.coord.BatchUpdate(s.ctx, "user1", Updates{
		Passport:     &models.PassportPatch{PassportNumber: ptr("E1"), FullName: ptr("ZHANG WEI")},
		PersonalInfo: &models.PersonalInfoPatch{Email: ptr("a@x.com")},
		TravelInfo:   &models.TravelInfoPatch{DestinationID: "hk", ArrivalDate: ptr("2026-11-01")},
		FundItems:    []models.FundItemPatch{{Type: ptr(models.FundCash), Amount: ptr("100")}},
	})
	s.Require().NoError(err)
	s.ElementsMatch([]models.EntityType{
		models.EntityPassport, models.EntityPersonalInfo, models.EntityTravelInfo, models.EntityFundItem,
	}, res.Changed)

	data := res.State.Data
	s.Equal("E1", data.Passport.PassportNumber)
	s.Equal(fixedNow, data.Passport.CreatedAt)
	s.Equal("a@x.com", data.PersonalInfo.Email)
	s.Require().Len(data.FundItems, 1)
	s.NotEmpty(data.FundItems[0].ID)

	reloaded, err := s.coord.Load(s.ctx, "user1")
	s.Require().NoError(err)
	s.Equal(data.Passport.ID, reloaded.Data.Passport.ID)
	s.Equal("2026-11-01", reloaded.Data.TravelFor("hk").ArrivalDate)
}

func (s *BatchSuite) TestShallowMergeKeepsUntouchedFields() {
	_, err := s.coord.BatchUpdate(s.ctx, "user1", Updates{
		Passport: &models.PassportPatch{PassportNumber: ptr("E1"), FullName: ptr("ZHANG WEI")},
	})
	s.Require().NoError(err)

	res, err := s.coord.BatchUpdate(s.ctx, "user1", Updates{
		Passport: &models.PassportPatch{Nationality: ptr("CHN")},
	})
	s.Require().NoError(err)
	s.Equal([]models.EntityType{models.EntityPassport}, res.Changed)
	s.Equal("ZHANG WEI", res.State.Data.Passport.FullName)
	s.Equal("CHN", res.State.Data.Passport.Nationality)
}

func (s *BatchSuite) TestInvalidatesChangedTypes() {
	s.cache.Put(models.EntityPassport, "user1", "stale")
	s.cache.Put(models.EntityFundItem, "user1", "untouched")

	_, err := s.coord.BatchUpdate(s.ctx, "user1", Updates{
		Passport: &models.PassportPatch{PassportNumber: ptr("E1")},
	})
	s.Require().NoError(err)

	_, ok := s.cache.Get(models.EntityPassport, "user1")
	s.False(ok)
	v, ok := s.cache.Get(models.EntityFundItem, "user1")
	s.True(ok)
	s.Equal("untouched", v)
}

func (s *BatchSuite) TestRefreshesEntryPacksInSameBatch() {
	_, err := s.coord.Apply(s.ctx, "user1", func(st *State, now time.Time) ([]models.Entity, error) {
		e := models.NewEntryInfo("user1", "hk", now)
		st.Entries = append(st.Entries, e)
		return []models.Entity{e}, nil
	})
	s.Require().NoError(err)

	res, err := s.coord.BatchUpdate(s.ctx, "user1", Updates{
		Passport: &models.PassportPatch{PassportNumber: ptr("E1")},
	})
	s.Require().NoError(err)
	s.Contains(res.Changed, models.EntityEntryInfo)
	s.Require().Len(res.State.Entries, 1)
	s.Equal(res.State.Data.Passport.ID, res.State.Entries[0].PassportID)
}

func (s *BatchSuite) TestTravelInfoRequiresDestination() {
	_, err := s.coord.BatchUpdate(s.ctx, "user1", Updates{
		TravelInfo: &models.TravelInfoPatch{ArrivalDate: ptr("2026-11-01")},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *BatchSuite) TestValidationFailureWritesNothing() {
	_, err := s.coord.BatchUpdate(s.ctx, "user1", Updates{
		Passport:  &models.PassportPatch{PassportNumber: ptr("E1")},
		FundItems: []models.FundItemPatch{{Amount: ptr("10")}},
	})
	s.Require().Error(err)

	recs, err := s.adapter.Load(s.ctx, models.EntityPassport, "user1")
	s.Require().NoError(err)
	s.Empty(recs)
}

func TestEmptyUpdatesArePureRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := storemocks.NewMockAdapter(ctrl)
	adapter.EXPECT().BatchLoad(gomock.Any(), id.UserID("user1"), StateTypes).
		Return(map[models.EntityType][]models.Record{}, nil).Times(1)
	adapter.EXPECT().BatchSave(gomock.Any(), gomock.Any()).Times(0)

	inv := &countingInvalidator{}
	res, err := New(adapter, WithInvalidator(inv)).BatchUpdate(context.Background(), "user1", Updates{})
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Zero(t, inv.calls)
}

func TestSingleLoadAndSave(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := storemocks.NewMockAdapter(ctrl)
	adapter.EXPECT().BatchLoad(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(map[models.EntityType][]models.Record{}, nil).Times(1)
	adapter.EXPECT().BatchSave(gomock.Any(), gomock.Len(2)).Return(nil).Times(1)

	_, err := New(adapter).BatchUpdate(context.Background(), "user1", Updates{
		Passport:     &models.PassportPatch{PassportNumber: ptr("E1")},
		PersonalInfo: &models.PersonalInfoPatch{Email: ptr("a@x.com")},
	})
	require.NoError(t, err)
}

func TestBatchSaveFailureSurfacesOneErrorWithoutInvalidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := storemocks.NewMockAdapter(ctrl)
	adapter.EXPECT().BatchLoad(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(map[models.EntityType][]models.Record{}, nil)
	adapter.EXPECT().BatchSave(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	inv := &countingInvalidator{}
	_, err := New(adapter, WithInvalidator(inv)).BatchUpdate(context.Background(), "user1", Updates{
		Passport: &models.PassportPatch{PassportNumber: ptr("E1")},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	assert.Zero(t, inv.calls)
}

func TestDecodeUserDataKeepsLatestTravelPerDestination(t *testing.T) {
	older := &models.TravelInfo{ID: "t1", UserID: "user1", DestinationID: "hk", HotelName: "old", UpdatedAt: fixedNow}
	newer := &models.TravelInfo{ID: "t2", UserID: "user1", DestinationID: "hk", HotelName: "new", UpdatedAt: fixedNow.Add(time.Hour)}
	recs, err := models.ToRecords([]*models.TravelInfo{newer, older})
	require.NoError(t, err)

	data, err := DecodeUserData("user1", map[models.EntityType][]models.Record{models.EntityTravelInfo: recs})
	require.NoError(t, err)
	require.Len(t, data.TravelInfos, 1)
	assert.Equal(t, "new", data.TravelInfos[0].HotelName)
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(models.EntityType, id.UserID) { c.calls++ }

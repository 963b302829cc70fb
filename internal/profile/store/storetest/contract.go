// Package storetest holds the behavioral suite every storage adapter must
// pass. Adapter packages run it from their own tests.
package storetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	"travelkeep/pkg/platform/sentinel"
)

// Adapter is the union the suite exercises.
type Adapter interface {
	store.Adapter
	store.AuditSink
}

// AdapterSuite is embedded by adapter test suites. Factory must return an
// empty adapter on every call.
type AdapterSuite struct {
	suite.Suite
	Factory func() Adapter

	ctx   context.Context
	store Adapter
	now   time.Time
}

func (s *AdapterSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.Factory()
	s.now = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
}

func (s *AdapterSuite) record(t models.EntityType, user id.UserID, recID string, payload string, at time.Time) models.Record {
	return models.Record{Type: t, UserID: user, ID: recID, Payload: []byte(payload), UpdatedAt: at}
}

func (s *AdapterSuite) TestSaveLoadRoundTrip() {
	r := s.record(models.EntityPassport, "u1", "p1", `{"id":"p1"}`, s.now)
	s.Require().NoError(s.store.Save(s.ctx, r))

	got, err := s.store.Load(s.ctx, models.EntityPassport, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("p1", got[0].ID)
	s.JSONEq(`{"id":"p1"}`, string(got[0].Payload))
	s.True(s.now.Equal(got[0].UpdatedAt))

	other, err := s.store.Load(s.ctx, models.EntityPassport, "u2")
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *AdapterSuite) TestSaveOverwritesSameKey() {
	s.Require().NoError(s.store.Save(s.ctx, s.record(models.EntityPassport, "u1", "p1", `{"v":1}`, s.now)))
	s.Require().NoError(s.store.Save(s.ctx, s.record(models.EntityPassport, "u1", "p1", `{"v":2}`, s.now.Add(time.Second))))

	got, err := s.store.Load(s.ctx, models.EntityPassport, "u1")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.JSONEq(`{"v":2}`, string(got[0].Payload))
}

func (s *AdapterSuite) TestSaveRejectsIncompleteRecord() {
	err := s.store.Save(s.ctx, models.Record{Type: models.EntityPassport, UserID: "u1"})
	s.ErrorIs(err, store.ErrInvalidRecord)
}

func (s *AdapterSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, s.record(models.EntityFundItem, "u1", "f1", `{}`, s.now)))
	s.Require().NoError(s.store.Delete(s.ctx, models.EntityFundItem, "u1", "f1"))

	got, err := s.store.Load(s.ctx, models.EntityFundItem, "u1")
	s.Require().NoError(err)
	s.Empty(got)

	err = s.store.Delete(s.ctx, models.EntityFundItem, "u1", "f1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *AdapterSuite) TestBatchSaveAndLoad() {
	records := []models.Record{
		s.record(models.EntityPassport, "u1", "p1", `{}`, s.now),
		s.record(models.EntityFundItem, "u1", "f1", `{}`, s.now),
		s.record(models.EntityFundItem, "u1", "f2", `{}`, s.now),
		s.record(models.EntityFundItem, "u2", "f3", `{}`, s.now),
	}
	s.Require().NoError(s.store.BatchSave(s.ctx, records))

	got, err := s.store.BatchLoad(s.ctx, "u1", []models.EntityType{models.EntityPassport, models.EntityFundItem, models.EntityTravelInfo})
	s.Require().NoError(err)
	s.Len(got[models.EntityPassport], 1)
	s.Len(got[models.EntityFundItem], 2)
	s.Empty(got[models.EntityTravelInfo])
	s.Contains(got, models.EntityTravelInfo)
}

func (s *AdapterSuite) TestBatchSaveIsAllOrNothing() {
	records := []models.Record{
		s.record(models.EntityPassport, "u1", "p1", `{}`, s.now),
		{Type: models.EntityFundItem, UserID: "u1"},
	}
	s.Require().Error(s.store.BatchSave(s.ctx, records))

	got, err := s.store.Load(s.ctx, models.EntityPassport, "u1")
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *AdapterSuite) TestMigrationFlag() {
	needs, err := s.store.NeedsMigration(s.ctx, "u1")
	s.Require().NoError(err)
	s.True(needs)

	s.Require().NoError(s.store.MarkMigrationComplete(s.ctx, "u1"))
	s.Require().NoError(s.store.MarkMigrationComplete(s.ctx, "u1"))

	needs, err = s.store.NeedsMigration(s.ctx, "u1")
	s.Require().NoError(err)
	s.False(needs)

	needs, err = s.store.NeedsMigration(s.ctx, "u2")
	s.Require().NoError(err)
	s.True(needs)
}

func (s *AdapterSuite) auditEvent(n int, snapshot id.SnapshotID) models.AuditEvent {
	return models.AuditEvent{
		ID:         id.EventID(fmt.Sprintf("evt-%d", n)),
		EventType:  models.AuditViewed,
		Timestamp:  s.now.Add(time.Duration(n) * time.Second).Format(time.RFC3339Nano),
		SnapshotID: snapshot,
		UserID:     "u1",
		Metadata:   map[string]any{"n": float64(n)},
		Immutable:  true,
		Version:    models.AuditEventVersion,
	}
}

func (s *AdapterSuite) TestAuditEvents() {
	s.Require().NoError(s.store.SaveAuditEvent(s.ctx, s.auditEvent(2, "s1")))
	s.Require().NoError(s.store.SaveAuditEvent(s.ctx, s.auditEvent(1, "s1")))
	s.Require().NoError(s.store.SaveAuditEvent(s.ctx, s.auditEvent(3, "s2")))

	err := s.store.SaveAuditEvent(s.ctx, s.auditEvent(1, "s1"))
	s.ErrorIs(err, sentinel.ErrConflict)

	events, err := s.store.AuditEventsBySnapshot(s.ctx, "s1", store.AuditQuery{})
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(id.EventID("evt-1"), events[0].ID)
	s.Equal(id.EventID("evt-2"), events[1].ID)
	s.Equal(float64(1), events[0].Metadata["n"])

	limited, err := s.store.AuditEventsBySnapshot(s.ctx, "s1", store.AuditQuery{Limit: 1})
	s.Require().NoError(err)
	s.Len(limited, 1)
}

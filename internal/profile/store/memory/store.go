// Package memory implements the storage adapter in process memory.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	"travelkeep/pkg/platform/sentinel"
)

type recordKey struct {
	entityType models.EntityType
	userID     id.UserID
	id         string
}

// Store holds records under a single mutex, which makes BatchSave atomic.
type Store struct {
	mu        sync.RWMutex
	records   map[recordKey]models.Record
	migrated  map[id.UserID]bool
	audit     map[id.EventID]models.AuditEvent
	auditKeys []id.EventID
}

func New() *Store {
	return &Store{
		records:  make(map[recordKey]models.Record),
		migrated: make(map[id.UserID]bool),
		audit:    make(map[id.EventID]models.AuditEvent),
	}
}

func keyOf(r models.Record) recordKey {
	return recordKey{entityType: r.Type, userID: r.UserID, id: r.ID}
}

func clone(r models.Record) models.Record {
	r.Payload = bytes.Clone(r.Payload)
	return r
}

func (s *Store) Load(_ context.Context, entityType models.EntityType, userID id.UserID) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(entityType, userID), nil
}

func (s *Store) collect(entityType models.EntityType, userID id.UserID) []models.Record {
	var out []models.Record
	for k, r := range s.records {
		if k.entityType == entityType && k.userID == userID {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Save(_ context.Context, record models.Record) error {
	if err := store.ValidateRecord(record); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[keyOf(record)] = clone(record)
	return nil
}

func (s *Store) Delete(_ context.Context, entityType models.EntityType, userID id.UserID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := recordKey{entityType: entityType, userID: userID, id: recordID}
	if _, ok := s.records[k]; !ok {
		return fmt.Errorf("%s %s: %w", entityType, recordID, sentinel.ErrNotFound)
	}
	delete(s.records, k)
	return nil
}

func (s *Store) BatchLoad(_ context.Context, userID id.UserID, types []models.EntityType) (map[models.EntityType][]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.EntityType][]models.Record, len(types))
	for _, t := range types {
		out[t] = s.collect(t, userID)
	}
	return out, nil
}

// BatchSave validates every record before writing any of them.
func (s *Store) BatchSave(_ context.Context, records []models.Record) error {
	for _, r := range records {
		if err := store.ValidateRecord(r); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[keyOf(r)] = clone(r)
	}
	return nil
}

func (s *Store) NeedsMigration(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.migrated[userID], nil
}

func (s *Store) MarkMigrationComplete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.migrated[userID] = true
	return nil
}

func (s *Store) SaveAuditEvent(_ context.Context, event models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.audit[event.ID]; exists {
		return fmt.Errorf("audit event %s: %w", event.ID, sentinel.ErrConflict)
	}
	s.audit[event.ID] = event
	s.auditKeys = append(s.auditKeys, event.ID)
	return nil
}

func (s *Store) AuditEventsBySnapshot(_ context.Context, snapshotID id.SnapshotID, opts store.AuditQuery) ([]models.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AuditEvent
	for _, k := range s.auditKeys {
		if e := s.audit[k]; e.SnapshotID == snapshotID {
			out = append(out, e)
		}
	}
	models.SortAuditEvents(out)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Reset drops all state. Test helper.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[recordKey]models.Record)
	s.migrated = make(map[id.UserID]bool)
	s.audit = make(map[id.EventID]models.AuditEvent)
	s.auditKeys = nil
}

var (
	_ store.Adapter   = (*Store)(nil)
	_ store.AuditSink = (*Store)(nil)
)

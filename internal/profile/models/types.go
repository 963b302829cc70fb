package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	id "travelkeep/pkg/domain"
	"travelkeep/pkg/platform/sentinel"
)

// EntityType names a record family in the storage adapter.
type EntityType string

const (
	EntityPassport            EntityType = "passport"
	EntityPersonalInfo        EntityType = "personal_info"
	EntityFundItem            EntityType = "fund_item"
	EntityTravelInfo          EntityType = "travel_info"
	EntityEntryInfo           EntityType = "entry_info"
	EntitySnapshot            EntityType = "snapshot"
	EntityResubmissionWarning EntityType = "resubmission_warning"
)

func (t EntityType) String() string { return string(t) }

// ProfileTypes are the user-editable entity families.
var ProfileTypes = []EntityType{EntityPassport, EntityPersonalInfo, EntityFundItem, EntityTravelInfo}

// Record is the storage adapter's unit of persistence. (Type, UserID, ID) is
// unique; Payload is the JSON encoding of the entity.
type Record struct {
	Type      EntityType
	UserID    id.UserID
	ID        string
	Payload   []byte
	UpdatedAt time.Time
}

// Entity is implemented by everything the adapter persists.
type Entity interface {
	Kind() EntityType
	Owner() id.UserID
	Key() string
	LastUpdated() time.Time
}

// ToRecord encodes an entity for the storage adapter.
func ToRecord(e Entity) (Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s: %w", e.Kind(), err)
	}
	return Record{
		Type:      e.Kind(),
		UserID:    e.Owner(),
		ID:        e.Key(),
		Payload:   payload,
		UpdatedAt: e.LastUpdated().UTC(),
	}, nil
}

// ToRecords encodes entities, stopping at the first failure.
func ToRecords[T Entity](entities []T) ([]Record, error) {
	out := make([]Record, 0, len(entities))
	for _, e := range entities {
		r, err := ToRecord(e)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// FromRecord decodes a record payload into T.
func FromRecord[T any](r Record) (*T, error) {
	var v T
	if err := json.Unmarshal(r.Payload, &v); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", r.Type, r.ID, sentinel.ErrCorrupt)
	}
	return &v, nil
}

// FromRecords decodes every record, ordered by UpdatedAt ascending.
func FromRecords[T any](rs []Record) ([]*T, error) {
	sorted := SortByUpdated(rs)
	out := make([]*T, 0, len(sorted))
	for _, r := range sorted {
		v, err := FromRecord[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// SortByUpdated returns a copy of rs ordered by UpdatedAt, then ID.
func SortByUpdated(rs []Record) []Record {
	out := append([]Record(nil), rs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	return out
}

// Latest returns the most recently updated record.
func Latest(rs []Record) (Record, bool) {
	if len(rs) == 0 {
		return Record{}, false
	}
	sorted := SortByUpdated(rs)
	return sorted[len(sorted)-1], true
}

// LatestAs decodes the most recently updated record, or returns nil when rs
// is empty. Singleton entities (passport, personal info) use this on load.
func LatestAs[T any](rs []Record) (*T, error) {
	r, ok := Latest(rs)
	if !ok {
		return nil, nil
	}
	return FromRecord[T](r)
}

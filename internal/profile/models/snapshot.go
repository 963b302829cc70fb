package models

import (
	"time"

	id "travelkeep/pkg/domain"
)

// Form sections as they appear in snapshots and diffs.
const (
	SectionPassport     = "passport"
	SectionPersonalInfo = "personalInfo"
	SectionTravelInfo   = "travelInfo"
	SectionFundItems    = "fundItems"
)

// SnapshotData is the per-section field view of an entry pack.
type SnapshotData struct {
	Passport     map[string]string `json:"passport"`
	PersonalInfo map[string]string `json:"personalInfo"`
	TravelInfo   map[string]string `json:"travelInfo"`
	FundItems    []FundItemSummary `json:"fundItems"`
}

// Section returns the field map for a named section.
func (s SnapshotData) Section(name string) map[string]string {
	switch name {
	case SectionPassport:
		return s.Passport
	case SectionPersonalInfo:
		return s.PersonalInfo
	case SectionTravelInfo:
		return s.TravelInfo
	}
	return nil
}

// Snapshot is the immutable record of what was submitted. It is written
// once and never updated; resubmission creates a new one.
type Snapshot struct {
	ID            id.SnapshotID    `json:"id"`
	UserID        id.UserID        `json:"userId"`
	EntryInfoID   id.EntityID      `json:"entryInfoId"`
	DestinationID id.DestinationID `json:"destinationId"`
	Data          SnapshotData     `json:"data"`
	CreatedAt     time.Time        `json:"createdAt"`
}

func (s *Snapshot) Kind() EntityType       { return EntitySnapshot }
func (s *Snapshot) Owner() id.UserID       { return s.UserID }
func (s *Snapshot) Key() string            { return s.ID.String() }
func (s *Snapshot) LastUpdated() time.Time { return s.CreatedAt }

func NewSnapshot(entry *EntryInfo, data SnapshotData, now time.Time) *Snapshot {
	return &Snapshot{
		ID:            id.NewSnapshotID(),
		UserID:        entry.UserID,
		EntryInfoID:   entry.ID,
		DestinationID: entry.DestinationID,
		Data:          data,
		CreatedAt:     now,
	}
}

package models

import (
	"time"

	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// EntryStatus is the lifecycle state of an entry pack.
type EntryStatus string

const (
	EntryIncomplete EntryStatus = "incomplete"
	EntryReady      EntryStatus = "ready"
	EntrySubmitted  EntryStatus = "submitted"
	EntrySuperseded EntryStatus = "superseded"
)

// IsActive reports whether the pack has not been submitted yet.
func (s EntryStatus) IsActive() bool { return s == EntryIncomplete || s == EntryReady }

// Completion tracks which form sections are filled in.
type Completion struct {
	Passport     bool `json:"passport"`
	PersonalInfo bool `json:"personalInfo"`
	TravelInfo   bool `json:"travelInfo"`
	Funds        bool `json:"funds"`
	Percent      int  `json:"percent"`
}

// EntryInfo is the entry pack aggregate for one destination: references to
// the profile entities plus submission state.
//
// State machine:
//
//	incomplete <-> ready -> submitted -> superseded
//	                 ^          ^            |
//	                 |          +-resubmit---+
//	                 +------ignore-----------+
type EntryInfo struct {
	ID                id.EntityID      `json:"id"`
	UserID            id.UserID        `json:"userId"`
	DestinationID     id.DestinationID `json:"destinationId"`
	PassportID        id.EntityID      `json:"passportId,omitempty"`
	PersonalInfoID    id.EntityID      `json:"personalInfoId,omitempty"`
	TravelInfoID      id.EntityID      `json:"travelInfoId,omitempty"`
	FundItemIDs       []id.EntityID    `json:"fundItemIds"`
	Status            EntryStatus      `json:"status"`
	Completion        Completion       `json:"completion"`
	CurrentSnapshotID id.SnapshotID    `json:"currentSnapshotId,omitempty"`
	SubmittedAt       *time.Time       `json:"submittedAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func (e *EntryInfo) Kind() EntityType       { return EntityEntryInfo }
func (e *EntryInfo) Owner() id.UserID       { return e.UserID }
func (e *EntryInfo) Key() string            { return e.ID.String() }
func (e *EntryInfo) LastUpdated() time.Time { return e.UpdatedAt }

// NewEntryInfo creates an incomplete pack for a destination.
func NewEntryInfo(userID id.UserID, destinationID id.DestinationID, now time.Time) *EntryInfo {
	return &EntryInfo{
		ID:            id.NewEntityID(),
		UserID:        userID,
		DestinationID: destinationID,
		FundItemIDs:   []id.EntityID{},
		Status:        EntryIncomplete,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Refresh re-derives references and completion from the live entities.
// Unsubmitted packs move between incomplete and ready; submitted and
// superseded packs keep their status. Reports whether anything changed.
func (e *EntryInfo) Refresh(data *UserData, now time.Time) bool {
	before := *e
	e.PassportID, e.PersonalInfoID, e.TravelInfoID = "", "", ""
	if data.Passport != nil {
		e.PassportID = data.Passport.ID
	}
	if data.PersonalInfo != nil {
		e.PersonalInfoID = data.PersonalInfo.ID
	}
	travel := data.TravelFor(e.DestinationID)
	if travel != nil {
		e.TravelInfoID = travel.ID
	}
	ids := make([]id.EntityID, 0, len(data.FundItems))
	for _, f := range data.FundItems {
		ids = append(ids, f.ID)
	}
	e.FundItemIDs = ids
	e.Completion = computeCompletion(data.Passport, data.PersonalInfo, travel, len(data.FundItems))
	if e.Status.IsActive() {
		e.Status = EntryIncomplete
		if e.Completion.Percent == 100 {
			e.Status = EntryReady
		}
	}
	changed := before.PassportID != e.PassportID ||
		before.PersonalInfoID != e.PersonalInfoID ||
		before.TravelInfoID != e.TravelInfoID ||
		!sameIDs(before.FundItemIDs, e.FundItemIDs) ||
		before.Completion != e.Completion ||
		before.Status != e.Status
	if changed {
		e.UpdatedAt = now
	}
	return changed
}

// CanSubmit checks that the pack may be recorded as submitted.
func (e *EntryInfo) CanSubmit() error {
	if e.Status == EntryIncomplete {
		return dErrors.New(dErrors.CodeInvalidState, "entry pack is incomplete")
	}
	return nil
}

// ApplySubmission points the pack at a new snapshot and marks it submitted.
func (e *EntryInfo) ApplySubmission(snapshotID id.SnapshotID, now time.Time) {
	e.Status = EntrySubmitted
	e.CurrentSnapshotID = snapshotID
	submitted := now
	e.SubmittedAt = &submitted
	e.UpdatedAt = now
}

// CanSupersede checks the submitted -> superseded transition.
func (e *EntryInfo) CanSupersede() error {
	if e.Status != EntrySubmitted {
		return dErrors.New(dErrors.CodeInvalidState, "only submitted entry packs can be superseded")
	}
	return nil
}

func (e *EntryInfo) ApplySupersede(now time.Time) {
	e.Status = EntrySuperseded
	e.UpdatedAt = now
}

// ApplyIgnore returns a superseded pack to ready after the traveler chose
// not to resubmit.
func (e *EntryInfo) ApplyIgnore(now time.Time) {
	if e.Status == EntrySuperseded {
		e.Status = EntryReady
		e.UpdatedAt = now
	}
}

func computeCompletion(p *Passport, pi *PersonalInfo, t *TravelInfo, funds int) Completion {
	c := Completion{
		Passport:     p.IsComplete(),
		PersonalInfo: pi.IsComplete(),
		TravelInfo:   t.IsComplete(),
		Funds:        funds > 0,
	}
	done := 0
	for _, ok := range []bool{c.Passport, c.PersonalInfo, c.TravelInfo, c.Funds} {
		if ok {
			done++
		}
	}
	c.Percent = done * 100 / 4
	return c
}

func sameIDs(a, b []id.EntityID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

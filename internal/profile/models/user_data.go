package models

import id "travelkeep/pkg/domain"

// UserData is the full editable profile of one user.
type UserData struct {
	UserID       id.UserID     `json:"userId"`
	Passport     *Passport     `json:"passport"`
	PersonalInfo *PersonalInfo `json:"personalInfo"`
	FundItems    []*FundItem   `json:"fundItems"`
	TravelInfos  []*TravelInfo `json:"travelInfos"`
}

// TravelFor returns the itinerary for a destination, or nil.
func (d *UserData) TravelFor(destinationID id.DestinationID) *TravelInfo {
	for _, t := range d.TravelInfos {
		if t.DestinationID == destinationID {
			return t
		}
	}
	return nil
}

// FundItem returns the fund item with the given id, or nil.
func (d *UserData) FundItem(itemID id.EntityID) *FundItem {
	for _, f := range d.FundItems {
		if f.ID == itemID {
			return f
		}
	}
	return nil
}

// SnapshotData captures the form values of a destination's entry pack.
func (d *UserData) SnapshotData(destinationID id.DestinationID) SnapshotData {
	funds := make([]FundItemSummary, 0, len(d.FundItems))
	for _, f := range d.FundItems {
		funds = append(funds, f.Summary())
	}
	return SnapshotData{
		Passport:     d.Passport.Fields(),
		PersonalInfo: d.PersonalInfo.Fields(),
		TravelInfo:   d.TravelFor(destinationID).Fields(),
		FundItems:    funds,
	}
}

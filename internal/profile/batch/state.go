package batch

import (
	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
)

// StateTypes are the entity families loaded for every batch.
var StateTypes = []models.EntityType{
	models.EntityPassport,
	models.EntityPersonalInfo,
	models.EntityFundItem,
	models.EntityTravelInfo,
	models.EntityEntryInfo,
	models.EntityResubmissionWarning,
}

// State is the decoded view of one user's records inside a batch.
type State struct {
	Data     *models.UserData
	Entries  []*models.EntryInfo
	Warnings []*models.ResubmissionWarning
}

// Entry returns the pack with the given id, or nil.
func (s *State) Entry(entryID id.EntityID) *models.EntryInfo {
	for _, e := range s.Entries {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

// EntryFor returns the pack for a destination, or nil.
func (s *State) EntryFor(destinationID id.DestinationID) *models.EntryInfo {
	for _, e := range s.Entries {
		if e.DestinationID == destinationID {
			return e
		}
	}
	return nil
}

// Warning returns the warning with the given id, or nil.
func (s *State) Warning(warningID id.EntityID) *models.ResubmissionWarning {
	for _, w := range s.Warnings {
		if w.ID == warningID {
			return w
		}
	}
	return nil
}

// DecodeState builds a State from BatchLoad output. Singletons resolve to
// the latest record; travel infos keep the latest record per destination.
func DecodeState(userID id.UserID, recs map[models.EntityType][]models.Record) (*State, error) {
	data, err := DecodeUserData(userID, recs)
	if err != nil {
		return nil, err
	}
	entries, err := models.FromRecords[models.EntryInfo](recs[models.EntityEntryInfo])
	if err != nil {
		return nil, err
	}
	warnings, err := models.FromRecords[models.ResubmissionWarning](recs[models.EntityResubmissionWarning])
	if err != nil {
		return nil, err
	}
	return &State{Data: data, Entries: entries, Warnings: warnings}, nil
}

// DecodeUserData decodes the profile families of a BatchLoad result.
func DecodeUserData(userID id.UserID, recs map[models.EntityType][]models.Record) (*models.UserData, error) {
	passport, err := models.LatestAs[models.Passport](recs[models.EntityPassport])
	if err != nil {
		return nil, err
	}
	personal, err := models.LatestAs[models.PersonalInfo](recs[models.EntityPersonalInfo])
	if err != nil {
		return nil, err
	}
	funds, err := models.FromRecords[models.FundItem](recs[models.EntityFundItem])
	if err != nil {
		return nil, err
	}
	travels, err := models.FromRecords[models.TravelInfo](recs[models.EntityTravelInfo])
	if err != nil {
		return nil, err
	}
	return &models.UserData{
		UserID:       userID,
		Passport:     passport,
		PersonalInfo: personal,
		FundItems:    funds,
		TravelInfos:  latestPerDestination(travels),
	}, nil
}

// latestPerDestination expects travels ordered by UpdatedAt ascending.
func latestPerDestination(travels []*models.TravelInfo) []*models.TravelInfo {
	idx := make(map[id.DestinationID]int, len(travels))
	out := make([]*models.TravelInfo, 0, len(travels))
	for _, t := range travels {
		if i, ok := idx[t.DestinationID]; ok {
			out[i] = t
			continue
		}
		idx[t.DestinationID] = len(out)
		out = append(out, t)
	}
	return out
}

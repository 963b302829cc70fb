package batch

import (
	"time"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// Updates is a partial profile write. Nil members are skipped; non-nil
// patch fields overwrite the stored values.
type Updates struct {
	Passport     *models.PassportPatch     `json:"passport,omitempty"`
	PersonalInfo *models.PersonalInfoPatch `json:"personalInfo,omitempty"`
	TravelInfo   *models.TravelInfoPatch   `json:"travelInfo,omitempty"`
	FundItems    []models.FundItemPatch    `json:"fundItems,omitempty"`
}

func (u Updates) IsEmpty() bool {
	return u.Passport == nil && u.PersonalInfo == nil && u.TravelInfo == nil && len(u.FundItems) == 0
}

// Mutation returns the batch mutation that applies u for userID.
func (u Updates) Mutation(userID id.UserID) Mutation {
	return func(s *State, now time.Time) ([]models.Entity, error) {
		var changed []models.Entity
		data := s.Data

		if u.Passport != nil {
			p := data.Passport
			if p == nil {
				p = &models.Passport{ID: id.NewEntityID(), UserID: userID, CreatedAt: now}
			}
			if u.Passport.Apply(p) {
				p.UpdatedAt = now
				data.Passport = p
				changed = append(changed, p)
			}
		}

		if u.PersonalInfo != nil {
			pi := data.PersonalInfo
			if pi == nil {
				pi = &models.PersonalInfo{ID: id.NewEntityID(), UserID: userID, CreatedAt: now}
			}
			if u.PersonalInfo.Apply(pi) {
				pi.UpdatedAt = now
				data.PersonalInfo = pi
				changed = append(changed, pi)
			}
		}

		if u.TravelInfo != nil {
			if u.TravelInfo.DestinationID.IsNil() {
				return nil, dErrors.New(dErrors.CodeValidation, "travel info update requires a destination")
			}
			t := data.TravelFor(u.TravelInfo.DestinationID)
			isNew := t == nil
			if isNew {
				t = &models.TravelInfo{
					ID:            id.NewEntityID(),
					UserID:        userID,
					DestinationID: u.TravelInfo.DestinationID,
					CreatedAt:     now,
				}
			}
			if u.TravelInfo.Apply(t) {
				t.UpdatedAt = now
				if isNew {
					data.TravelInfos = append(data.TravelInfos, t)
				}
				changed = append(changed, t)
			}
		}

		for i := range u.FundItems {
			patch := &u.FundItems[i]
			f := data.FundItem(patch.ID)
			isNew := f == nil || patch.ID.IsNil()
			if isNew {
				itemID := patch.ID
				if itemID.IsNil() {
					itemID = id.NewEntityID()
				}
				f = &models.FundItem{ID: itemID, UserID: userID, CreatedAt: now}
			}
			if patch.Apply(f) {
				f.UpdatedAt = now
				if isNew {
					data.FundItems = append(data.FundItems, f)
				}
				changed = append(changed, f)
			}
		}
		return changed, nil
	}
}

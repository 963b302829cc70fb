package models

import (
	"time"

	id "travelkeep/pkg/domain"
)

// PersonalInfo holds contact and residence details. One per user.
type PersonalInfo struct {
	ID            id.EntityID `json:"id"`
	UserID        id.UserID   `json:"userId"`
	PhoneCode     string      `json:"phoneCode,omitempty" validate:"max=8"`
	PhoneNumber   string      `json:"phoneNumber,omitempty" validate:"max=32"`
	Email         string      `json:"email,omitempty" validate:"omitempty,email"`
	Occupation    string      `json:"occupation,omitempty" validate:"max=128"`
	ProvinceCity  string      `json:"provinceCity,omitempty" validate:"max=128"`
	CountryRegion string      `json:"countryRegion,omitempty" validate:"max=128"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (p *PersonalInfo) Kind() EntityType       { return EntityPersonalInfo }
func (p *PersonalInfo) Owner() id.UserID       { return p.UserID }
func (p *PersonalInfo) Key() string            { return p.ID.String() }
func (p *PersonalInfo) LastUpdated() time.Time { return p.UpdatedAt }

func (p *PersonalInfo) Validate() error { return validateStruct(p) }

func (p *PersonalInfo) Fields() map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return compact(map[string]string{
		"phoneCode":     p.PhoneCode,
		"phoneNumber":   p.PhoneNumber,
		"email":         p.Email,
		"occupation":    p.Occupation,
		"provinceCity":  p.ProvinceCity,
		"countryRegion": p.CountryRegion,
	})
}

func (p *PersonalInfo) IsComplete() bool {
	return p != nil && allSet(p.PhoneNumber, p.Email, p.Occupation)
}

type PersonalInfoPatch struct {
	PhoneCode     *string `json:"phoneCode,omitempty"`
	PhoneNumber   *string `json:"phoneNumber,omitempty"`
	Email         *string `json:"email,omitempty"`
	Occupation    *string `json:"occupation,omitempty"`
	ProvinceCity  *string `json:"provinceCity,omitempty"`
	CountryRegion *string `json:"countryRegion,omitempty"`
}

func (pp *PersonalInfoPatch) Apply(p *PersonalInfo) bool {
	if pp == nil {
		return false
	}
	return applyAll(
		set(&p.PhoneCode, pp.PhoneCode),
		set(&p.PhoneNumber, pp.PhoneNumber),
		set(&p.Email, pp.Email),
		set(&p.Occupation, pp.Occupation),
		set(&p.ProvinceCity, pp.ProvinceCity),
		set(&p.CountryRegion, pp.CountryRegion),
	)
}

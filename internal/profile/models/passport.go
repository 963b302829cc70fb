package models

import (
	"time"

	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// Passport is the traveler's identity document. One per user; when the
// adapter holds several, the most recently updated wins.
//
// Invariants:
//   - IssueDate < ExpiryDate when both are present
//   - Dates are YYYY-MM-DD
type Passport struct {
	ID             id.EntityID `json:"id"`
	UserID         id.UserID   `json:"userId"`
	PassportNumber string      `json:"passportNumber,omitempty" validate:"max=32"`
	FullName       string      `json:"fullName,omitempty" validate:"max=256"`
	DateOfBirth    string      `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Nationality    string      `json:"nationality,omitempty" validate:"max=64"`
	Gender         string      `json:"gender,omitempty" validate:"max=16"`
	IssueDate      string      `json:"issueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate     string      `json:"expiryDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IssuePlace     string      `json:"issuePlace,omitempty" validate:"max=128"`
	PhotoURI       string      `json:"photoUri,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

func (p *Passport) Kind() EntityType       { return EntityPassport }
func (p *Passport) Owner() id.UserID       { return p.UserID }
func (p *Passport) Key() string            { return p.ID.String() }
func (p *Passport) LastUpdated() time.Time { return p.UpdatedAt }

// Validate checks field formats and the issue/expiry ordering.
func (p *Passport) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.IssueDate != "" && p.ExpiryDate != "" {
		issue, _ := time.Parse(dateLayout, p.IssueDate)
		expiry, _ := time.Parse(dateLayout, p.ExpiryDate)
		if !issue.Before(expiry) {
			return dErrors.New(dErrors.CodeValidation, "passport issue date must be before expiry date")
		}
	}
	return nil
}

// Fields returns the comparable form values keyed by field name.
func (p *Passport) Fields() map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return compact(map[string]string{
		"passportNumber": p.PassportNumber,
		"fullName":       p.FullName,
		"dateOfBirth":    p.DateOfBirth,
		"nationality":    p.Nationality,
		"gender":         p.Gender,
		"issueDate":      p.IssueDate,
		"expiryDate":     p.ExpiryDate,
		"issuePlace":     p.IssuePlace,
		"photoUri":       p.PhotoURI,
	})
}

// IsComplete reports whether the passport carries what a form submission needs.
func (p *Passport) IsComplete() bool {
	return p != nil && allSet(p.PassportNumber, p.FullName, p.DateOfBirth, p.Nationality, p.ExpiryDate)
}

// PassportPatch carries a partial update; nil fields are left unchanged.
type PassportPatch struct {
	PassportNumber *string `json:"passportNumber,omitempty"`
	FullName       *string `json:"fullName,omitempty"`
	DateOfBirth    *string `json:"dateOfBirth,omitempty"`
	Nationality    *string `json:"nationality,omitempty"`
	Gender         *string `json:"gender,omitempty"`
	IssueDate      *string `json:"issueDate,omitempty"`
	ExpiryDate     *string `json:"expiryDate,omitempty"`
	IssuePlace     *string `json:"issuePlace,omitempty"`
	PhotoURI       *string `json:"photoUri,omitempty"`
}

// Apply merges the patch into p and reports whether anything was set.
func (pp *PassportPatch) Apply(p *Passport) bool {
	if pp == nil {
		return false
	}
	return applyAll(
		set(&p.PassportNumber, pp.PassportNumber),
		set(&p.FullName, pp.FullName),
		set(&p.DateOfBirth, pp.DateOfBirth),
		set(&p.Nationality, pp.Nationality),
		set(&p.Gender, pp.Gender),
		set(&p.IssueDate, pp.IssueDate),
		set(&p.ExpiryDate, pp.ExpiryDate),
		set(&p.IssuePlace, pp.IssuePlace),
		set(&p.PhotoURI, pp.PhotoURI),
	)
}

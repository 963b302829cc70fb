package models

import (
	"math/big"
	"strings"
	"time"

	id "travelkeep/pkg/domain"
)

// FundType classifies a proof-of-funds item.
type FundType string

const (
	FundCash        FundType = "cash"
	FundCreditCard  FundType = "credit_card"
	FundBankBalance FundType = "bank_balance"
)

// FundItem is one proof-of-funds entry. Many per user, created and deleted
// independently.
type FundItem struct {
	ID        id.EntityID `json:"id"`
	UserID    id.UserID   `json:"userId"`
	Type      FundType    `json:"type" validate:"required,oneof=cash credit_card bank_balance"`
	Amount    string      `json:"amount,omitempty" validate:"omitempty,numeric"`
	Currency  string      `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Details   string      `json:"details,omitempty" validate:"max=512"`
	PhotoURI  string      `json:"photoUri,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (f *FundItem) Kind() EntityType       { return EntityFundItem }
func (f *FundItem) Owner() id.UserID       { return f.UserID }
func (f *FundItem) Key() string            { return f.ID.String() }
func (f *FundItem) LastUpdated() time.Time { return f.UpdatedAt }

func (f *FundItem) Validate() error { return validateStruct(f) }

// NormalizeAmount renders a decimal amount canonically so "100" and
// "100.00" compare equal. Unparseable input is returned trimmed.
func NormalizeAmount(amount string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return ""
	}
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return amount
	}
	return r.RatString()
}

// FundItemSummary is the snapshot view of a fund item.
type FundItemSummary struct {
	ID       id.EntityID `json:"id"`
	Type     FundType    `json:"type"`
	Amount   string      `json:"amount,omitempty"`
	Currency string      `json:"currency,omitempty"`
}

func (f *FundItem) Summary() FundItemSummary {
	return FundItemSummary{
		ID:       f.ID,
		Type:     f.Type,
		Amount:   strings.TrimSpace(f.Amount),
		Currency: strings.ToUpper(strings.TrimSpace(f.Currency)),
	}
}

// FundItemPatch updates the fund item with ID, or creates one when ID is
// empty or unknown.
type FundItemPatch struct {
	ID       id.EntityID `json:"id,omitempty"`
	Type     *FundType   `json:"type,omitempty"`
	Amount   *string     `json:"amount,omitempty"`
	Currency *string     `json:"currency,omitempty"`
	Details  *string     `json:"details,omitempty"`
	PhotoURI *string     `json:"photoUri,omitempty"`
}

func (fp *FundItemPatch) Apply(f *FundItem) bool {
	if fp == nil {
		return false
	}
	changed := false
	if fp.Type != nil {
		f.Type = *fp.Type
		changed = true
	}
	return applyAll(
		changed,
		set(&f.Amount, fp.Amount),
		set(&f.Currency, fp.Currency),
		set(&f.Details, fp.Details),
		set(&f.PhotoURI, fp.PhotoURI),
	)
}

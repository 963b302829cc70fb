package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
)

// looseString accepts strings, numbers, booleans and null, as older app
// versions wrote all of them for text fields.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ""
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*s = looseString(b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("unsupported legacy value %s", b)
		}
		*s = looseString(n.String())
	}
	return nil
}

func (s looseString) trimmed() string { return strings.TrimSpace(string(s)) }

// date normalizes ISO timestamps ("1990-01-01T00:00:00.000Z") to the
// YYYY-MM-DD form values use. Anything else is kept as written.
func (s looseString) date() string {
	v := s.trimmed()
	if len(v) >= 10 {
		if _, err := time.Parse("2006-01-02", v[:10]); err == nil {
			return v[:10]
		}
	}
	return v
}

// timestamp parses RFC 3339 strings or epoch milliseconds.
func (s looseString) timestamp(fallback time.Time) time.Time {
	v := s.trimmed()
	if v == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC()
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return fallback
}

type passportRecord struct {
	ID             looseString `json:"id"`
	PassportNumber looseString `json:"passportNumber"`
	FullName       looseString `json:"fullName"`
	DateOfBirth    looseString `json:"dateOfBirth"`
	Nationality    looseString `json:"nationality"`
	Gender         looseString `json:"gender"`
	IssueDate      looseString `json:"issueDate"`
	ExpiryDate     looseString `json:"expiryDate"`
	IssuePlace     looseString `json:"issuePlace"`
	PhotoURI       looseString `json:"photoUri"`
	CreatedAt      looseString `json:"createdAt"`
	UpdatedAt      looseString `json:"updatedAt"`
}

type personalInfoRecord struct {
	ID            looseString `json:"id"`
	PhoneCode     looseString `json:"phoneCode"`
	PhoneNumber   looseString `json:"phoneNumber"`
	Email         looseString `json:"email"`
	Occupation    looseString `json:"occupation"`
	ProvinceCity  looseString `json:"provinceCity"`
	CountryRegion looseString `json:"countryRegion"`
	CreatedAt     looseString `json:"createdAt"`
	UpdatedAt     looseString `json:"updatedAt"`
}

type fundItemRecord struct {
	ID        looseString `json:"id"`
	Type      looseString `json:"type"`
	Amount    looseString `json:"amount"`
	Currency  looseString `json:"currency"`
	Details   looseString `json:"details"`
	PhotoURI  looseString `json:"photoUri"`
	CreatedAt looseString `json:"createdAt"`
	UpdatedAt looseString `json:"updatedAt"`
}

// idNamespace scopes the name-based ids minted for legacy records.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("travelkeep:legacy"))

// entityID keeps a valid legacy id. Records without one get an id derived
// from the owner, the family, the position and the raw record, so decoding
// the same legacy data twice yields the same ids.
func entityID(s looseString, userID id.UserID, family string, index int, raw []byte) id.EntityID {
	if v, err := id.ParseEntityID(s.trimmed()); err == nil {
		return v
	}
	name := fmt.Sprintf("%s|%s|%d|%s", userID, family, index, bytes.TrimSpace(raw))
	return id.EntityID(uuid.NewSHA1(idNamespace, []byte(name)).String())
}

// DecodePassport parses a legacy passport blob and binds it to userID.
func DecodePassport(raw string, userID id.UserID, now time.Time) (*models.Passport, error) {
	var r passportRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("parse legacy passport: %w", err)
	}
	created := r.CreatedAt.timestamp(now)
	return &models.Passport{
		ID:             entityID(r.ID, userID, KeyPassport, 0, []byte(raw)),
		UserID:         userID,
		PassportNumber: strings.ToUpper(r.PassportNumber.trimmed()),
		FullName:       r.FullName.trimmed(),
		DateOfBirth:    r.DateOfBirth.date(),
		Nationality:    strings.ToUpper(r.Nationality.trimmed()),
		Gender:         r.Gender.trimmed(),
		IssueDate:      r.IssueDate.date(),
		ExpiryDate:     r.ExpiryDate.date(),
		IssuePlace:     r.IssuePlace.trimmed(),
		PhotoURI:       r.PhotoURI.trimmed(),
		CreatedAt:      created,
		UpdatedAt:      r.UpdatedAt.timestamp(created),
	}, nil
}

func DecodePersonalInfo(raw string, userID id.UserID, now time.Time) (*models.PersonalInfo, error) {
	var r personalInfoRecord
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("parse legacy personal info: %w", err)
	}
	created := r.CreatedAt.timestamp(now)
	return &models.PersonalInfo{
		ID:            entityID(r.ID, userID, KeyPersonalInfo, 0, []byte(raw)),
		UserID:        userID,
		PhoneCode:     r.PhoneCode.trimmed(),
		PhoneNumber:   r.PhoneNumber.trimmed(),
		Email:         strings.ToLower(r.Email.trimmed()),
		Occupation:    r.Occupation.trimmed(),
		ProvinceCity:  r.ProvinceCity.trimmed(),
		CountryRegion: r.CountryRegion.trimmed(),
		CreatedAt:     created,
		UpdatedAt:     r.UpdatedAt.timestamp(created),
	}, nil
}

// DecodeFundItems parses a legacy fund item array. A single object is
// accepted as a one-element list.
func DecodeFundItems(raw string, userID id.UserID, now time.Time) ([]*models.FundItem, error) {
	raw = strings.TrimSpace(raw)
	var elems []json.RawMessage
	if strings.HasPrefix(raw, "{") {
		elems = []json.RawMessage{json.RawMessage(raw)}
	} else if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, fmt.Errorf("parse legacy fund items: %w", err)
	}
	items := make([]*models.FundItem, 0, len(elems))
	for i, elem := range elems {
		var r fundItemRecord
		if err := json.Unmarshal(elem, &r); err != nil {
			return nil, fmt.Errorf("parse legacy fund items: %w", err)
		}
		created := r.CreatedAt.timestamp(now)
		items = append(items, &models.FundItem{
			ID:        entityID(r.ID, userID, KeyFundItems, i, elem),
			UserID:    userID,
			Type:      fundType(r.Type.trimmed()),
			Amount:    r.Amount.trimmed(),
			Currency:  strings.ToUpper(r.Currency.trimmed()),
			Details:   r.Details.trimmed(),
			PhotoURI:  r.PhotoURI.trimmed(),
			CreatedAt: created,
			UpdatedAt: r.UpdatedAt.timestamp(created),
		})
	}
	return items, nil
}

func fundType(s string) models.FundType {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	switch key {
	case "cash":
		return models.FundCash
	case "creditcard", "card":
		return models.FundCreditCard
	case "bankbalance", "bank", "bankstatement":
		return models.FundBankBalance
	}
	return models.FundType(strings.ToLower(s))
}

// Sanitize clears fields of a decoded legacy entity that current
// validation rejects and returns their names. Dates that are not
// YYYY-MM-DD are dropped, and an issue date not before the expiry date
// is dropped in favour of the expiry.
func Sanitize(entity models.Entity) []string {
	var cleared []string
	drop := func(name string, v *string) {
		if *v != "" {
			*v = ""
			cleared = append(cleared, name)
		}
	}
	switch e := entity.(type) {
	case *models.Passport:
		for _, f := range []struct {
			name string
			v    *string
		}{
			{"dateOfBirth", &e.DateOfBirth},
			{"issueDate", &e.IssueDate},
			{"expiryDate", &e.ExpiryDate},
		} {
			if _, err := time.Parse("2006-01-02", *f.v); err != nil {
				drop(f.name, f.v)
			}
		}
		if e.IssueDate != "" && e.ExpiryDate != "" && e.IssueDate >= e.ExpiryDate {
			drop("issueDate", &e.IssueDate)
		}
	case *models.PersonalInfo:
		if !strings.Contains(e.Email, "@") {
			drop("email", &e.Email)
		}
	case *models.FundItem:
		if _, err := strconv.ParseFloat(e.Amount, 64); err != nil {
			drop("amount", &e.Amount)
		}
		if len(e.Currency) != 3 {
			drop("currency", &e.Currency)
		}
	}
	return cleared
}

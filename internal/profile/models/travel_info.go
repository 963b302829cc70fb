package models

import (
	"time"

	id "travelkeep/pkg/domain"
)

// TravelInfo is the itinerary for one (user, destination) pair.
type TravelInfo struct {
	ID                    id.EntityID      `json:"id"`
	UserID                id.UserID        `json:"userId"`
	DestinationID         id.DestinationID `json:"destinationId" validate:"required"`
	TravelPurpose         string           `json:"travelPurpose,omitempty" validate:"max=64"`
	BoardingCountry       string           `json:"boardingCountry,omitempty" validate:"max=64"`
	AccommodationType     string           `json:"accommodationType,omitempty" validate:"max=64"`
	Province              string           `json:"province,omitempty" validate:"max=128"`
	District              string           `json:"district,omitempty" validate:"max=128"`
	Address               string           `json:"address,omitempty" validate:"max=512"`
	HotelName             string           `json:"hotelName,omitempty" validate:"max=256"`
	AccommodationPhone    string           `json:"accommodationPhone,omitempty" validate:"max=32"`
	PostalCode            string           `json:"postalCode,omitempty" validate:"max=16"`
	ArrivalFlightNumber   string           `json:"arrivalFlightNumber,omitempty" validate:"max=16"`
	ArrivalDate           string           `json:"arrivalDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DepartureFlightNumber string           `json:"departureFlightNumber,omitempty" validate:"max=16"`
	DepartureDate         string           `json:"departureDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

func (t *TravelInfo) Kind() EntityType       { return EntityTravelInfo }
func (t *TravelInfo) Owner() id.UserID       { return t.UserID }
func (t *TravelInfo) Key() string            { return t.ID.String() }
func (t *TravelInfo) LastUpdated() time.Time { return t.UpdatedAt }

func (t *TravelInfo) Validate() error { return validateStruct(t) }

func (t *TravelInfo) Fields() map[string]string {
	if t == nil {
		return map[string]string{}
	}
	return compact(map[string]string{
		"travelPurpose":         t.TravelPurpose,
		"boardingCountry":       t.BoardingCountry,
		"accommodationType":     t.AccommodationType,
		"province":              t.Province,
		"district":              t.District,
		"address":               t.Address,
		"hotelName":             t.HotelName,
		"accommodationPhone":    t.AccommodationPhone,
		"postalCode":            t.PostalCode,
		"arrivalFlightNumber":   t.ArrivalFlightNumber,
		"arrivalDate":           t.ArrivalDate,
		"departureFlightNumber": t.DepartureFlightNumber,
		"departureDate":         t.DepartureDate,
	})
}

func (t *TravelInfo) IsComplete() bool {
	return t != nil && allSet(t.TravelPurpose, t.ArrivalDate, t.ArrivalFlightNumber) &&
		(allSet(t.Address) || allSet(t.HotelName))
}

// TravelInfoPatch carries a partial itinerary update for DestinationID.
type TravelInfoPatch struct {
	DestinationID         id.DestinationID `json:"destinationId"`
	TravelPurpose         *string          `json:"travelPurpose,omitempty"`
	BoardingCountry       *string          `json:"boardingCountry,omitempty"`
	AccommodationType     *string          `json:"accommodationType,omitempty"`
	Province              *string          `json:"province,omitempty"`
	District              *string          `json:"district,omitempty"`
	Address               *string          `json:"address,omitempty"`
	HotelName             *string          `json:"hotelName,omitempty"`
	AccommodationPhone    *string          `json:"accommodationPhone,omitempty"`
	PostalCode            *string          `json:"postalCode,omitempty"`
	ArrivalFlightNumber   *string          `json:"arrivalFlightNumber,omitempty"`
	ArrivalDate           *string          `json:"arrivalDate,omitempty"`
	DepartureFlightNumber *string          `json:"departureFlightNumber,omitempty"`
	DepartureDate         *string          `json:"departureDate,omitempty"`
}

func (tp *TravelInfoPatch) Apply(t *TravelInfo) bool {
	if tp == nil {
		return false
	}
	return applyAll(
		set(&t.TravelPurpose, tp.TravelPurpose),
		set(&t.BoardingCountry, tp.BoardingCountry),
		set(&t.AccommodationType, tp.AccommodationType),
		set(&t.Province, tp.Province),
		set(&t.District, tp.District),
		set(&t.Address, tp.Address),
		set(&t.HotelName, tp.HotelName),
		set(&t.AccommodationPhone, tp.AccommodationPhone),
		set(&t.PostalCode, tp.PostalCode),
		set(&t.ArrivalFlightNumber, tp.ArrivalFlightNumber),
		set(&t.ArrivalDate, tp.ArrivalDate),
		set(&t.DepartureFlightNumber, tp.DepartureFlightNumber),
		set(&t.DepartureDate, tp.DepartureDate),
	)
}

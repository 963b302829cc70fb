package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	dErrors "travelkeep/pkg/domain-errors"
)

// maxIDLength bounds identifiers accepted at trust boundaries.
const maxIDLength = 128

// UserID identifies a traveler. Legacy installs used free-form ids (e.g.
// "user1"), so this is not constrained to UUIDs.
type UserID string

// DestinationID identifies a destination-scoped form (e.g. "hk", "th").
type DestinationID string

// EntityID identifies a stored entity (passport, fund item, entry pack, ...).
type EntityID string

// SnapshotID identifies an immutable submission snapshot.
type SnapshotID string

// EventID identifies an audit event.
type EventID string

func (id UserID) String() string        { return string(id) }
func (id DestinationID) String() string { return string(id) }
func (id EntityID) String() string      { return string(id) }
func (id SnapshotID) String() string    { return string(id) }
func (id EventID) String() string       { return string(id) }

func (id UserID) IsNil() bool        { return id == "" }
func (id DestinationID) IsNil() bool { return id == "" }
func (id EntityID) IsNil() bool      { return id == "" }
func (id SnapshotID) IsNil() bool    { return id == "" }

// ParseUserID validates a user id from external input.
func ParseUserID(s string) (UserID, error) {
	v, err := parseOpaque(s, "user ID")
	return UserID(v), err
}

// ParseDestinationID validates a destination id from external input.
func ParseDestinationID(s string) (DestinationID, error) {
	v, err := parseOpaque(s, "destination ID")
	return DestinationID(strings.ToLower(v)), err
}

// ParseEntityID validates an entity id from external input.
func ParseEntityID(s string) (EntityID, error) {
	v, err := parseOpaque(s, "entity ID")
	return EntityID(v), err
}

// ParseSnapshotID validates a snapshot id from external input.
func ParseSnapshotID(s string) (SnapshotID, error) {
	v, err := parseOpaque(s, "snapshot ID")
	return SnapshotID(v), err
}

// NewEntityID returns a random entity id.
func NewEntityID() EntityID { return EntityID(uuid.NewString()) }

// NewSnapshotID returns a random snapshot id.
func NewSnapshotID() SnapshotID { return SnapshotID(uuid.NewString()) }

// NewEventID returns a random audit event id.
func NewEventID() EventID { return EventID(uuid.NewString()) }

// parseOpaque accepts trimmed, printable ids without path separators. Ids
// end up in storage keys and file names, so '/' and '\' are rejected.
func parseOpaque(s, what string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" is too long")
	}
	for _, r := range s {
		if r == '/' || r == '\\' || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
		}
	}
	if strings.Contains(s, "..") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	return s, nil
}

package store

import (
	"fmt"

	"travelkeep/pkg/platform/sentinel"
)

// ErrInvalidRecord marks a record missing a key field.
var ErrInvalidRecord = fmt.Errorf("invalid record: %w", sentinel.ErrInvalidState)

func errMissing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrInvalidRecord, field)
}

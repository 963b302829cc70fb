package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Adapters return these (optionally
// wrapped) so services can translate them into domain errors:
//   - ErrNotFound: no record for the requested key
//   - ErrConflict: a create-only write hit an existing record
//   - ErrInvalidState: record is in the wrong state for the operation
//   - ErrUnavailable: backend temporarily unavailable
//   - ErrCorrupt: stored payload could not be decoded
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrCorrupt      = errors.New("corrupt record")
)

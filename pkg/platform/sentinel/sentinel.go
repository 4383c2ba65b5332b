package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Blob stores and the persistence
// gateway return these (optionally wrapped) so services can translate them into
// domain errors.
//
//   - ErrNotFound: the record does not exist in the store
//   - ErrConflict: the record changed underneath the caller
//   - ErrUnavailable: the backing store could not be reached
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

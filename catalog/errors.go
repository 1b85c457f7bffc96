package catalog

import "errors"

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("catalog: not found")

	// ErrStoreUnavailable wraps failures of the backing query store.
	ErrStoreUnavailable = errors.New("catalog: store unavailable")

	// ErrInvalidParameterShape marks a malformed parameter constraint.
	ErrInvalidParameterShape = errors.New("catalog: invalid parameter shape")
)

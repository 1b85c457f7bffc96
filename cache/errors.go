package cache

import "errors"

// ErrInvalidResultType is returned when a fetched value cannot be stored in
// the caller's destination type.
var ErrInvalidResultType = errors.New("cache: invalid result type")

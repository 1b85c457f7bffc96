package search

import (
	"errors"

	"github.com/goliatone/go-component-search/catalog"
)

// ErrSearchFailed is what callers see when the store cannot answer. The
// underlying cause stays reachable through errors.Is.
var ErrSearchFailed = errors.New("search failed")

// ErrInvalidParameterShape reports a malformed parameters payload. It is
// raised before any query runs.
var ErrInvalidParameterShape = catalog.ErrInvalidParameterShape

// ErrNotFound is returned for unknown component ids and family paths.
var ErrNotFound = catalog.ErrNotFound

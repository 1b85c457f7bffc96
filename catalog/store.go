package catalog

import "context"

// Sort orders results by a field.
type Sort struct {
	Field      Field
	Descending bool
}

// FindOptions controls ordering and the window of a Find.
type FindOptions struct {
	Sort   []Sort
	Offset int
	Limit  int
}

// ScoredComponent is a text search hit.
type ScoredComponent struct {
	Component
	Score float64 `json:"score"`
}

// TallyRow is one group of the statistics aggregation.
type TallyRow struct {
	FamilyPath       FamilyPath
	ManufacturerName string
	ObsolescenceType string
	HasStock         bool
	Count            int
}

// Suggestion is an autocomplete candidate.
type Suggestion struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// Store is the document-query collaborator the search engine reads from.
// Implementations wrap driver failures with ErrStoreUnavailable and return
// ErrNotFound for missing single records. Search never writes through it.
type Store interface {
	Find(ctx context.Context, filter Predicate, opts FindOptions) ([]Component, error)
	Count(ctx context.Context, filter Predicate) (int, error)

	// TextSearch ranks matches by relevance, best first.
	TextSearch(ctx context.Context, keyword string, offset, limit int) ([]ScoredComponent, int, error)

	ComponentByID(ctx context.Context, id string) (Component, error)
	DistinctFamilyPaths(ctx context.Context, filter Predicate) ([]FamilyPath, error)
	DistinctManufacturers(ctx context.Context) ([]string, error)

	// ComponentIDsByParameter returns the ids having a row for key that
	// satisfies c.
	ComponentIDsByParameter(ctx context.Context, key string, c ParameterConstraint) ([]string, error)
	ParametersFor(ctx context.Context, componentIDs []string) ([]Parameter, error)
	ParameterDefinitions(ctx context.Context) ([]ParameterDefinition, error)
	FamilyByPath(ctx context.Context, path FamilyPath) (Family, error)

	// Tally groups every component by path, manufacturer, lifecycle and
	// stock flag in one pass.
	Tally(ctx context.Context) ([]TallyRow, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error)
}

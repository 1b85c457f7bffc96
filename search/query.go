package search

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-component-search/catalog"
	"github.com/goliatone/go-component-search/category"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50

	minKeywordLength = 2
	// Shorter identifiers match as prefixes, longer ones as substrings.
	substringThreshold = 3
)

// sortFields is the allow-list of caller-facing sort names.
var sortFields = map[string]catalog.Field{
	"partNumber":       catalog.FieldPartNumber,
	"manufacturer":     catalog.FieldManufacturerName,
	"partType":         catalog.FieldPartType,
	"qualityName":      catalog.FieldQualityName,
	"obsolescenceType": catalog.FieldObsolescenceType,
	"hasStock":         catalog.FieldHasStock,
}

// Query is an advanced search request.
type Query struct {
	Keyword          string                                 `json:"keyword,omitempty"`
	PartNumber       string                                 `json:"partNumber,omitempty"`
	Manufacturer     string                                 `json:"manufacturer,omitempty"`
	PartType         string                                 `json:"partType,omitempty"`
	FamilyPath       catalog.FamilyPath                     `json:"familyPath,omitempty"`
	Parameters       map[string]catalog.ParameterConstraint `json:"parameters,omitempty"`
	HasStock         *bool                                  `json:"hasStock,omitempty"`
	ObsolescenceType []string                               `json:"obsolescenceType,omitempty"`
	QualityName      string                                 `json:"qualityName,omitempty"`
	Qualified        *bool                                  `json:"qualified,omitempty"`
	SortBy           string                                 `json:"sortBy,omitempty"`
	SortOrder        SortOrder                              `json:"sortOrder,omitempty"`
	Page             int                                    `json:"page,omitempty"`
	Limit            int                                    `json:"limit,omitempty"`
}

// PageOptions carries paging and ordering for the narrower operations.
type PageOptions struct {
	Page      int       `json:"page,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

// Result is one page of results.
type Result[T any] struct {
	Items          []T   `json:"items"`
	Total          int   `json:"total"`
	Page           int   `json:"page"`
	Limit          int   `json:"limit"`
	TotalPages     int   `json:"totalPages"`
	HasNextPage    bool  `json:"hasNextPage"`
	HasPrevPage    bool  `json:"hasPrevPage"`
	AppliedFilters Query `json:"appliedFilters"`
}

// SearchResult is a page of enriched components.
type SearchResult = Result[Item]

// TextSearchResult is a page of ranked components.
type TextSearchResult = Result[ScoredItem]

func newResult[T any](items []T, total int, q Query) Result[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return Result[T]{
		Items:          items,
		Total:          total,
		Page:           q.Page,
		Limit:          q.Limit,
		TotalPages:     pages,
		HasNextPage:    q.Page < pages,
		HasPrevPage:    q.Page > 1,
		AppliedFilters: q,
	}
}

// limits bounds page sizes.
type limits struct {
	def int
	max int
}

func (l limits) page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = l.def
	}
	if limit > l.max {
		limit = l.max
	}
	return page, limit
}

// normalize returns the effective query: trimmed strings, clamped paging,
// validated parameters. Equal effective queries share a cache key.
func (l limits) normalize(q Query) (Query, error) {
	q.Keyword = strings.TrimSpace(q.Keyword)
	q.PartNumber = strings.TrimSpace(q.PartNumber)
	q.Manufacturer = strings.TrimSpace(q.Manufacturer)
	q.PartType = strings.TrimSpace(q.PartType)
	q.QualityName = strings.TrimSpace(q.QualityName)
	q.SortBy = strings.TrimSpace(q.SortBy)
	q.SortOrder = normalizeOrder(q.SortOrder)
	q.Page, q.Limit = l.page(q.Page, q.Limit)

	if utf8.RuneCountInString(q.Keyword) < minKeywordLength {
		q.Keyword = ""
	}
	if _, ok := sortFields[q.SortBy]; !ok {
		q.SortBy = ""
	}
	if q.FamilyPath.IsText() {
		q.FamilyPath.Text = strings.TrimSpace(q.FamilyPath.Text)
	}

	if len(q.ObsolescenceType) > 0 {
		types := make([]string, 0, len(q.ObsolescenceType))
		for _, t := range q.ObsolescenceType {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		sort.Strings(types)
		q.ObsolescenceType = types
	}

	if err := validateParameters(q.Parameters); err != nil {
		return q, err
	}
	return q, nil
}

func normalizeOrder(o SortOrder) SortOrder {
	if strings.EqualFold(string(o), string(Desc)) {
		return Desc
	}
	return Asc
}

func validateParameters(params map[string]catalog.ParameterConstraint) error {
	for key, c := range params {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: empty parameter key", ErrInvalidParameterShape)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
	}
	return nil
}

// identifierPattern matches short values as prefixes and longer ones as
// substrings, case-insensitively.
func identifierPattern(v string) string {
	if utf8.RuneCountInString(v) < substringThreshold {
		return catalog.PrefixPattern(v)
	}
	return catalog.ContainsPattern(v)
}

// filter builds the store predicate for q, excluding the parameter
// pre-filter.
func filter(q Query) catalog.All {
	var preds catalog.All

	if q.Keyword != "" {
		expr := catalog.ContainsPattern(q.Keyword)
		preds = append(preds, catalog.Any{
			catalog.Pattern{Field: catalog.FieldPartNumber, Expr: expr},
			catalog.Pattern{Field: catalog.FieldManufacturerName, Expr: expr},
			catalog.Pattern{Field: catalog.FieldPartType, Expr: expr},
			catalog.Pattern{Field: catalog.FieldFamilyPath, Expr: expr},
		})
	}
	if q.PartNumber != "" {
		preds = append(preds, catalog.Pattern{Field: catalog.FieldPartNumber, Expr: identifierPattern(q.PartNumber)})
	}
	if q.Manufacturer != "" {
		preds = append(preds, catalog.Pattern{Field: catalog.FieldManufacturerName, Expr: identifierPattern(q.Manufacturer)})
	}
	if q.PartType != "" {
		preds = append(preds, catalog.Equals{Field: catalog.FieldPartType, Value: q.PartType})
	}
	if !q.FamilyPath.IsZero() {
		preds = append(preds, category.MatchPath(q.FamilyPath))
	}
	if q.HasStock != nil {
		preds = append(preds, catalog.Equals{Field: catalog.FieldHasStock, Value: *q.HasStock})
	}
	if len(q.ObsolescenceType) > 0 {
		preds = append(preds, catalog.OneOf{Field: catalog.FieldObsolescenceType, Values: q.ObsolescenceType})
	}
	if q.QualityName != "" {
		preds = append(preds, catalog.Equals{Field: catalog.FieldQualityName, Value: q.QualityName})
	}
	if q.Qualified != nil {
		unqualified := catalog.Equals{Field: catalog.FieldQualityName, Value: ""}
		if *q.Qualified {
			preds = append(preds, catalog.Not{P: unqualified})
		} else {
			preds = append(preds, unqualified)
		}
	}

	if preds == nil {
		preds = catalog.All{}
	}
	return preds
}

// ordering maps the caller's sort through the allow-list. The component id
// always breaks ties so pages never overlap.
func ordering(sortBy string, order SortOrder) []catalog.Sort {
	field, ok := sortFields[sortBy]
	if !ok {
		field = catalog.FieldPartNumber
	}
	return []catalog.Sort{
		{Field: field, Descending: order == Desc},
		{Field: catalog.FieldComponentID},
	}
}

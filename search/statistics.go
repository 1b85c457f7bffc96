package search

import (
	"context"
	"time"

	"github.com/goliatone/go-component-search/cache"
	"github.com/goliatone/go-component-search/catalog"
)

// Uncategorized buckets components without a family path.
const Uncategorized = "Uncategorized"

// Statistics are catalog-wide counts.
type Statistics struct {
	TotalComponents    int            `json:"totalComponents"`
	ActiveComponents   int            `json:"activeComponents"`
	ObsoleteComponents int            `json:"obsoleteComponents"`
	InStockComponents  int            `json:"inStockComponents"`
	Manufacturers      int            `json:"manufacturers"`
	Categories         int            `json:"categories"`
	ByCategory         map[string]int `json:"byCategory"`
	ByLifecycle        map[string]int `json:"byLifecycle"`
}

// GetStatistics aggregates counts from a single grouped pass over the
// store. Each component is attributed to its top-level category.
func (e *Engine) GetStatistics(ctx context.Context) (stats Statistics, err error) {
	defer e.observe("GetStatistics", time.Now(), &err)

	return cache.GetOrFetch(ctx, e.cache, cache.KeyStatistics, e.ttl.Statistics, func(ctx context.Context) (Statistics, error) {
		rows, err := e.store.Tally(ctx)
		if err != nil {
			return Statistics{}, e.storeFailure("GetStatistics", cache.KeyStatistics, nil, err)
		}
		return aggregate(rows), nil
	})
}

func aggregate(rows []catalog.TallyRow) Statistics {
	stats := Statistics{
		ByCategory:  map[string]int{},
		ByLifecycle: map[string]int{},
	}
	manufacturers := map[string]struct{}{}
	paths := map[string]struct{}{}

	for _, row := range rows {
		stats.TotalComponents += row.Count

		switch row.ObsolescenceType {
		case catalog.Active:
			stats.ActiveComponents += row.Count
		case catalog.Obsolete:
			stats.ObsoleteComponents += row.Count
		}
		if row.ObsolescenceType != "" {
			stats.ByLifecycle[row.ObsolescenceType] += row.Count
		}
		if row.HasStock {
			stats.InStockComponents += row.Count
		}
		if row.ManufacturerName != "" {
			manufacturers[row.ManufacturerName] = struct{}{}
		}

		top := row.FamilyPath.TopLevel()
		if top == "" {
			top = Uncategorized
		} else {
			paths[catalog.NormalizeFamilyPath(row.FamilyPath).Serialized()] = struct{}{}
		}
		stats.ByCategory[top] += row.Count
	}

	stats.Manufacturers = len(manufacturers)
	stats.Categories = len(paths)
	return stats
}

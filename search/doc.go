// Package search answers catalog queries against a catalog.Store, with every
// read going through a cache.CacheService.
//
// Engine operations normalize their input first (trimmed strings, clamped
// page size, validated parameter constraints) so equivalent requests share
// one cache key. Store failures surface as ErrSearchFailed wrapping the
// cause; malformed parameters fail with ErrInvalidParameterShape before any
// query runs.
//
//	engine := search.New(store, layer, search.WithLogger(logger))
//	page, err := engine.AdvancedSearch(ctx, search.Query{
//		Manufacturer: "Texas",
//		Parameters: map[string]catalog.ParameterConstraint{
//			"output_voltage": catalog.Between(&lo, &hi),
//		},
//	})
package search

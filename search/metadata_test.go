package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-component-search/cache"
	"github.com/goliatone/go-component-search/catalog"
)

func TestGetManufacturers_SecondCallSkipsStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.engine.GetManufacturers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.store.Calls("DistinctManufacturers"))

	h.store.ResetCalls()
	second, err := h.engine.GetManufacturers(ctx)
	require.NoError(t, err)

	assert.Zero(t, h.store.TotalCalls())
	assert.Equal(t, first, second)
	assert.Len(t, second, 9)
}

func TestGetCategoryTree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tree, err := h.engine.GetCategoryTree(ctx)
	require.NoError(t, err)
	require.False(t, tree.Fallback)

	var tops []string
	for _, n := range tree.Categories {
		tops = append(tops, n.Name)
	}
	assert.Equal(t, []string{"Capacitors", "Diodes", "Integrated Circuits", "Resistors"}, tops)
	assert.Equal(t, []string{"Thick Film", "Thin Film"}, tree.SubCategories["Resistors"]["Fixed"])
	assert.Contains(t, tree.SubCategories["Resistors"], "Potentiometer")
	assert.Contains(t, tree.SubCategories["Diodes"], "Small Signal")

	power := tree.Find("Integrated Circuits", "Power Management")
	require.NotNil(t, power)
	assert.Len(t, power.Children, 2)

	h.store.ResetCalls()
	_, err = h.engine.GetCategoryTree(ctx)
	require.NoError(t, err)
	assert.Zero(t, h.store.TotalCalls())
}

func TestGetCategoryTree_FallbackIsNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.store.FailWith(errors.New("timeout"))
	tree, err := h.engine.GetCategoryTree(ctx)
	require.NoError(t, err)
	assert.True(t, tree.Fallback)
	assert.Len(t, tree.Categories, 10)
	assert.False(t, h.layer.Exists(ctx, cache.KeyCategoryTree))

	h.store.FailWith(nil)
	tree, err = h.engine.GetCategoryTree(ctx)
	require.NoError(t, err)
	assert.False(t, tree.Fallback)
	assert.True(t, h.layer.Exists(ctx, cache.KeyCategoryTree))
}

func TestGetCategoryTree_EmptyStoreFallsBack(t *testing.T) {
	h := newHarnessWith(t, catalog.Dataset{})

	tree, err := h.engine.GetCategoryTree(context.Background())
	require.NoError(t, err)
	assert.True(t, tree.Fallback)
	assert.Equal(t, "Capacitors", tree.Categories[0].Name)
}

func TestGetManufacturerCategoryTree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tree, err := h.engine.GetManufacturerCategoryTree(ctx, "kemet")
	require.NoError(t, err)
	require.Len(t, tree.Categories, 1)
	assert.Equal(t, "Capacitors", tree.Categories[0].Name)
	assert.Len(t, tree.SubCategories["Capacitors"], 2)
	assert.True(t, h.layer.Exists(ctx, cache.ManufacturerTreeKey("KEMET")))

	tree, err = h.engine.GetManufacturerCategoryTree(ctx, "Nobody")
	require.NoError(t, err)
	assert.True(t, tree.IsEmpty())
	assert.False(t, tree.Fallback)

	_, err = h.engine.GetManufacturerCategoryTree(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidParameterShape)
}

func TestGetFamilyMeta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	family, err := h.engine.GetFamilyMeta(ctx, catalog.PathOf("Resistors", "Fixed"))
	require.NoError(t, err)
	assert.Equal(t, []string{"resistance", "tolerance"}, family.Meta)

	h.store.ResetCalls()
	family, err = h.engine.GetFamilyMeta(ctx, catalog.TextPath("Resistors > Fixed"))
	require.NoError(t, err)
	assert.Equal(t, []string{"resistance", "tolerance"}, family.Meta)
	assert.Zero(t, h.store.TotalCalls())

	_, err = h.engine.GetFamilyMeta(ctx, catalog.PathOf("Resistors", "Variable"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.engine.GetFamilyMeta(ctx, catalog.FamilyPath{})
	assert.ErrorIs(t, err, ErrInvalidParameterShape)
}

func TestGetSuggestions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got, err := h.engine.GetSuggestions(ctx, "lm", 0)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Suggestion{
		{Field: catalog.FieldPartNumber, Value: "LM2596S-5.0"},
		{Field: catalog.FieldPartNumber, Value: "LM317T"},
	}, got)

	h.store.ResetCalls()
	_, err = h.engine.GetSuggestions(ctx, "LM", 0)
	require.NoError(t, err)
	assert.Zero(t, h.store.TotalCalls())

	got, err = h.engine.GetSuggestions(ctx, "l", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, h.store.TotalCalls())
}

func TestInvalidateSearchCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.AdvancedSearch(ctx, Query{Manufacturer: "Bourns"})
	require.NoError(t, err)
	_, err = h.engine.FullTextSearch(ctx, "resistor", PageOptions{})
	require.NoError(t, err)
	_, err = h.engine.GetManufacturers(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), h.engine.InvalidateSearchCache(ctx))

	h.store.ResetCalls()
	_, err = h.engine.AdvancedSearch(ctx, Query{Manufacturer: "Bourns"})
	require.NoError(t, err)
	assert.Equal(t, 1, h.store.Calls("Find"))

	_, err = h.engine.GetManufacturers(ctx)
	require.NoError(t, err)
	assert.Zero(t, h.store.Calls("DistinctManufacturers"))
}

func TestInvalidateMetadataCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.GetManufacturers(ctx)
	require.NoError(t, err)
	_, err = h.engine.GetStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), h.engine.InvalidateMetadataCache(ctx))

	h.store.ResetCalls()
	_, err = h.engine.GetManufacturers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.store.Calls("DistinctManufacturers"))
}

func TestCacheStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _ = h.engine.GetManufacturers(ctx)
	_, _ = h.engine.GetManufacturers(ctx)

	stats := h.engine.CacheStats(ctx)
	assert.True(t, stats.Available)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Keys)
	assert.InDelta(t, 0.5, stats.HitRate, 0.0001)
}

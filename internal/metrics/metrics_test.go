package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-component-search/catalog"
	"github.com/goliatone/go-component-search/pkg/testsupport"
)

func TestToSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GetComponentWithParameters", "get_component_with_parameters"},
		{"AdvancedSearch", "advanced_search"},
		{"HTTPServer", "http_server"},
		{"mget", "mget"},
		{"component_ids_by_parameter", "component_ids_by_parameter"},
		{"Search2Page", "search_2_page"},
		{"*pkg.Type[T]", "pkg_type_t"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, toSnake(tt.in))
		})
	}
}

func TestMetrics_Recorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheHit("search")
	m.CacheHit("search")
	m.CacheMiss("meta")
	m.CacheError("mget")
	m.SearchCompleted("AdvancedSearch", "ok", 10*time.Millisecond)
	m.SearchCompleted("AdvancedSearch", "error", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("meta")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheErrors.WithLabelValues("mget")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("advanced_search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("advanced_search", "error")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestInstrumentStore(t *testing.T) {
	m := New(prometheus.NewRegistry())
	mem := testsupport.NewMemoryStore(testsupport.LoadCatalog(t))
	store := InstrumentStore(mem, m)
	ctx := context.Background()

	_, err := store.DistinctManufacturers(ctx)
	require.NoError(t, err)
	_, err = store.ComponentByID(ctx, "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	mem.FailWith(errors.New("down"))
	_, err = store.Count(ctx, nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreQueries.WithLabelValues("distinct_manufacturers", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreQueries.WithLabelValues("component_by_id", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreQueries.WithLabelValues("count", "error")))
	assert.Equal(t, 1, mem.Calls("Count"))
}

func TestInstrumentStore_NilMetrics(t *testing.T) {
	mem := testsupport.NewMemoryStore(catalog.Dataset{})
	assert.Same(t, mem, InstrumentStore(mem, nil))
}

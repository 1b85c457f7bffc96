package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-component-search/cache"
	"github.com/goliatone/go-component-search/catalog"
)

func TestNormalize(t *testing.T) {
	l := limits{def: DefaultLimit, max: MaxLimit}

	tests := []struct {
		name string
		in   Query
		want Query
	}{
		{
			name: "defaults",
			in:   Query{},
			want: Query{Page: 1, Limit: DefaultLimit, SortOrder: Asc},
		},
		{
			name: "clamps paging",
			in:   Query{Page: -3, Limit: 1000},
			want: Query{Page: 1, Limit: MaxLimit, SortOrder: Asc},
		},
		{
			name: "drops short keyword and unknown sort",
			in:   Query{Keyword: " a ", SortBy: "password", SortOrder: "DESC"},
			want: Query{Page: 1, Limit: DefaultLimit, SortOrder: Desc},
		},
		{
			name: "trims and sorts",
			in:   Query{Manufacturer: " TI ", ObsolescenceType: []string{"Risk ", "", "Active"}, SortBy: "partNumber"},
			want: Query{Manufacturer: "TI", ObsolescenceType: []string{"Active", "Risk"}, SortBy: "partNumber", Page: 1, Limit: DefaultLimit, SortOrder: Asc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	types := []string{"Risk", "Active"}
	_, err := limits{def: DefaultLimit, max: MaxLimit}.normalize(Query{ObsolescenceType: types})
	require.NoError(t, err)
	assert.Equal(t, []string{"Risk", "Active"}, types)
}

func TestNormalize_CacheKeyIgnoresParameterOrder(t *testing.T) {
	l := limits{def: DefaultLimit, max: MaxLimit}
	lo, hi := 1.0, 2.0

	a := map[string]catalog.ParameterConstraint{}
	a["output_voltage"] = catalog.Between(&lo, &hi)
	a["package"] = catalog.ExactValue("TO-220")

	b := map[string]catalog.ParameterConstraint{}
	b["package"] = catalog.ExactValue("TO-220")
	b["output_voltage"] = catalog.Between(&lo, &hi)

	qa, err := l.normalize(Query{Parameters: a})
	require.NoError(t, err)
	qb, err := l.normalize(Query{Parameters: b})
	require.NoError(t, err)

	assert.Equal(t,
		cache.HashKey(nil, "advancedSearch", qa),
		cache.HashKey(nil, "advancedSearch", qb),
	)
}

func TestOrdering(t *testing.T) {
	assert.Equal(t, []catalog.Sort{
		{Field: catalog.FieldManufacturerName, Descending: true},
		{Field: catalog.FieldComponentID},
	}, ordering("manufacturer", Desc))

	assert.Equal(t, []catalog.Sort{
		{Field: catalog.FieldPartNumber},
		{Field: catalog.FieldComponentID},
	}, ordering("", Asc))
}

func TestNewResult(t *testing.T) {
	q := Query{Page: 2, Limit: 5}
	res := newResult[Item](nil, 11, q)

	assert.NotNil(t, res.Items)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNextPage)
	assert.True(t, res.HasPrevPage)

	empty := newResult[Item](nil, 0, Query{Page: 1, Limit: 5})
	assert.Zero(t, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
}

package metrics

import (
	"context"
	"time"

	"github.com/goliatone/go-component-search/catalog"
)

// InstrumentStore wraps store so every call is counted and timed.
func InstrumentStore(store catalog.Store, m *Metrics) catalog.Store {
	if m == nil {
		return store
	}
	return &instrumentedStore{base: store, m: m}
}

type instrumentedStore struct {
	base catalog.Store
	m    *Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.m.storeCompleted(op, err, time.Since(start))
}

func (s *instrumentedStore) Find(ctx context.Context, filter catalog.Predicate, opts catalog.FindOptions) ([]catalog.Component, error) {
	start := time.Now()
	out, err := s.base.Find(ctx, filter, opts)
	s.observe("find", start, err)
	return out, err
}

func (s *instrumentedStore) Count(ctx context.Context, filter catalog.Predicate) (int, error) {
	start := time.Now()
	n, err := s.base.Count(ctx, filter)
	s.observe("count", start, err)
	return n, err
}

func (s *instrumentedStore) TextSearch(ctx context.Context, keyword string, offset, limit int) ([]catalog.ScoredComponent, int, error) {
	start := time.Now()
	out, total, err := s.base.TextSearch(ctx, keyword, offset, limit)
	s.observe("text_search", start, err)
	return out, total, err
}

func (s *instrumentedStore) ComponentByID(ctx context.Context, id string) (catalog.Component, error) {
	start := time.Now()
	c, err := s.base.ComponentByID(ctx, id)
	s.observe("component_by_id", start, err)
	return c, err
}

func (s *instrumentedStore) DistinctFamilyPaths(ctx context.Context, filter catalog.Predicate) ([]catalog.FamilyPath, error) {
	start := time.Now()
	out, err := s.base.DistinctFamilyPaths(ctx, filter)
	s.observe("distinct_family_paths", start, err)
	return out, err
}

func (s *instrumentedStore) DistinctManufacturers(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := s.base.DistinctManufacturers(ctx)
	s.observe("distinct_manufacturers", start, err)
	return out, err
}

func (s *instrumentedStore) ComponentIDsByParameter(ctx context.Context, key string, c catalog.ParameterConstraint) ([]string, error) {
	start := time.Now()
	out, err := s.base.ComponentIDsByParameter(ctx, key, c)
	s.observe("component_ids_by_parameter", start, err)
	return out, err
}

func (s *instrumentedStore) ParametersFor(ctx context.Context, componentIDs []string) ([]catalog.Parameter, error) {
	start := time.Now()
	out, err := s.base.ParametersFor(ctx, componentIDs)
	s.observe("parameters_for", start, err)
	return out, err
}

func (s *instrumentedStore) ParameterDefinitions(ctx context.Context) ([]catalog.ParameterDefinition, error) {
	start := time.Now()
	out, err := s.base.ParameterDefinitions(ctx)
	s.observe("parameter_definitions", start, err)
	return out, err
}

func (s *instrumentedStore) FamilyByPath(ctx context.Context, path catalog.FamilyPath) (catalog.Family, error) {
	start := time.Now()
	out, err := s.base.FamilyByPath(ctx, path)
	s.observe("family_by_path", start, err)
	return out, err
}

func (s *instrumentedStore) Tally(ctx context.Context) ([]catalog.TallyRow, error) {
	start := time.Now()
	out, err := s.base.Tally(ctx)
	s.observe("tally", start, err)
	return out, err
}

func (s *instrumentedStore) Suggest(ctx context.Context, prefix string, limit int) ([]catalog.Suggestion, error) {
	start := time.Now()
	out, err := s.base.Suggest(ctx, prefix, limit)
	s.observe("suggest", start, err)
	return out, err
}

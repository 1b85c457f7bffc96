package testsupport

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-component-search/catalog"
)

var _ catalog.Store = (*MemoryStore)(nil)

// MemoryStore is an in-process catalog.Store over a Dataset. Predicates go
// through catalog.Evaluate. Every call is counted per operation so tests can
// assert that a cache hit touched nothing.
type MemoryStore struct {
	mu    sync.Mutex
	ds    catalog.Dataset
	calls map[string]int
	fail  error
}

// NewMemoryStore wraps ds. The dataset is not copied.
func NewMemoryStore(ds catalog.Dataset) *MemoryStore {
	return &MemoryStore{ds: ds, calls: map[string]int{}}
}

// FailWith makes every following call return err wrapped in
// catalog.ErrStoreUnavailable. Pass nil to recover.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Calls returns how many times op ran.
func (s *MemoryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (s *MemoryStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// ResetCalls clears the counters.
func (s *MemoryStore) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

func (s *MemoryStore) begin(ctx context.Context, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.fail != nil {
		return fmt.Errorf("%w: %v", catalog.ErrStoreUnavailable, s.fail)
	}
	return nil
}

func (s *MemoryStore) filter(p catalog.Predicate) []catalog.Component {
	var out []catalog.Component
	for _, c := range s.ds.Components {
		if catalog.Evaluate(p, c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *MemoryStore) Find(ctx context.Context, filter catalog.Predicate, opts catalog.FindOptions) ([]catalog.Component, error) {
	if err := s.begin(ctx, "Find"); err != nil {
		return nil, err
	}
	found := s.filter(filter)
	sort.SliceStable(found, func(i, j int) bool {
		return catalog.Compare(found[i], found[j], opts.Sort) < 0
	})
	return window(found, opts.Offset, opts.Limit), nil
}

func (s *MemoryStore) Count(ctx context.Context, filter catalog.Predicate) (int, error) {
	if err := s.begin(ctx, "Count"); err != nil {
		return 0, err
	}
	return len(s.filter(filter)), nil
}

func (s *MemoryStore) TextSearch(ctx context.Context, keyword string, offset, limit int) ([]catalog.ScoredComponent, int, error) {
	if err := s.begin(ctx, "TextSearch"); err != nil {
		return nil, 0, err
	}
	var hits []catalog.ScoredComponent
	for _, c := range s.ds.Components {
		if score := catalog.TextScore(c, keyword); score > 0 {
			hits = append(hits, catalog.ScoredComponent{Component: c, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return catalog.Compare(hits[i].Component, hits[j].Component, []catalog.Sort{
			{Field: catalog.FieldPartNumber}, {Field: catalog.FieldComponentID},
		}) < 0
	})
	return window(hits, offset, limit), len(hits), nil
}

func (s *MemoryStore) ComponentByID(ctx context.Context, id string) (catalog.Component, error) {
	if err := s.begin(ctx, "ComponentByID"); err != nil {
		return catalog.Component{}, err
	}
	for _, c := range s.ds.Components {
		if c.ComponentID == id {
			return c, nil
		}
	}
	return catalog.Component{}, fmt.Errorf("component %q: %w", id, catalog.ErrNotFound)
}

func (s *MemoryStore) DistinctFamilyPaths(ctx context.Context, filter catalog.Predicate) ([]catalog.FamilyPath, error) {
	if err := s.begin(ctx, "DistinctFamilyPaths"); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []catalog.FamilyPath
	for _, c := range s.filter(filter) {
		if c.FamilyPath.IsZero() {
			continue
		}
		key := c.FamilyPath.Serialized()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c.FamilyPath)
	}
	return out, nil
}

func (s *MemoryStore) DistinctManufacturers(ctx context.Context) ([]string, error) {
	if err := s.begin(ctx, "DistinctManufacturers"); err != nil {
		return nil, err
	}
	var out []string
	for _, c := range s.ds.Components {
		if c.ManufacturerName != "" {
			out = append(out, c.ManufacturerName)
		}
	}
	sort.Strings(out)
	return slices.Compact(out), nil
}

func (s *MemoryStore) ComponentIDsByParameter(ctx context.Context, key string, c catalog.ParameterConstraint) ([]string, error) {
	if err := s.begin(ctx, "ComponentIDsByParameter"); err != nil {
		return nil, err
	}
	var out []string
	for _, p := range s.ds.Parameters {
		if p.ParameterKey == key && c.Matches(p) {
			out = append(out, p.ComponentID)
		}
	}
	sort.Strings(out)
	return slices.Compact(out), nil
}

func (s *MemoryStore) ParametersFor(ctx context.Context, componentIDs []string) ([]catalog.Parameter, error) {
	if err := s.begin(ctx, "ParametersFor"); err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(componentIDs))
	for _, id := range componentIDs {
		want[id] = struct{}{}
	}
	var out []catalog.Parameter
	for _, p := range s.ds.Parameters {
		if _, ok := want[p.ComponentID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ParameterDefinitions(ctx context.Context) ([]catalog.ParameterDefinition, error) {
	if err := s.begin(ctx, "ParameterDefinitions"); err != nil {
		return nil, err
	}
	return slices.Clone(s.ds.Definitions), nil
}

func (s *MemoryStore) FamilyByPath(ctx context.Context, path catalog.FamilyPath) (catalog.Family, error) {
	if err := s.begin(ctx, "FamilyByPath"); err != nil {
		return catalog.Family{}, err
	}
	want := catalog.NormalizeFamilyPath(path).Serialized()
	for _, f := range s.ds.Families {
		if catalog.NormalizeFamilyPath(f.FamilyPath).Serialized() == want {
			return f, nil
		}
	}
	return catalog.Family{}, fmt.Errorf("family %s: %w", want, catalog.ErrNotFound)
}

func (s *MemoryStore) Tally(ctx context.Context) ([]catalog.TallyRow, error) {
	if err := s.begin(ctx, "Tally"); err != nil {
		return nil, err
	}
	index := map[string]int{}
	var rows []catalog.TallyRow
	for _, c := range s.ds.Components {
		key := fmt.Sprintf("%s\x00%s\x00%s\x00%t", c.FamilyPath.Serialized(), c.ManufacturerName, c.ObsolescenceType, c.HasStock)
		if i, ok := index[key]; ok {
			rows[i].Count++
			continue
		}
		index[key] = len(rows)
		rows = append(rows, catalog.TallyRow{
			FamilyPath:       c.FamilyPath,
			ManufacturerName: c.ManufacturerName,
			ObsolescenceType: c.ObsolescenceType,
			HasStock:         c.HasStock,
			Count:            1,
		})
	}
	return rows, nil
}

func (s *MemoryStore) Suggest(ctx context.Context, prefix string, limit int) ([]catalog.Suggestion, error) {
	if err := s.begin(ctx, "Suggest"); err != nil {
		return nil, err
	}
	lower := strings.ToLower(prefix)
	var parts, makers []string
	for _, c := range s.ds.Components {
		if strings.HasPrefix(strings.ToLower(c.PartNumber), lower) {
			parts = append(parts, c.PartNumber)
		}
		if strings.HasPrefix(strings.ToLower(c.ManufacturerName), lower) {
			makers = append(makers, c.ManufacturerName)
		}
	}
	sort.Strings(parts)
	sort.Strings(makers)

	var out []catalog.Suggestion
	for _, v := range slices.Compact(parts) {
		out = append(out, catalog.Suggestion{Field: catalog.FieldPartNumber, Value: v})
	}
	for _, v := range slices.Compact(makers) {
		out = append(out, catalog.Suggestion{Field: catalog.FieldManufacturerName, Value: v})
	}
	return window(out, 0, limit), nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	if offset < 0 {
		offset = 0
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

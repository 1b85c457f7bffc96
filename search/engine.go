package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-component-search/cache"
	"github.com/goliatone/go-component-search/catalog"
)

// Recorder receives per-operation outcomes. internal/metrics implements it.
type Recorder interface {
	SearchCompleted(operation, status string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) SearchCompleted(string, string, time.Duration) {}

// Engine answers catalog searches from a store, behind a cache-aside layer.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	store    catalog.Store
	cache    cache.CacheService
	keys     cache.KeySerializer
	ttl      cache.TTLConfig
	limits   limits
	logger   *zap.Logger
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithTTL overrides the expiry table.
func WithTTL(ttl cache.TTLConfig) Option {
	return func(e *Engine) {
		if ttl != (cache.TTLConfig{}) {
			e.ttl = ttl
		}
	}
}

// WithLimits overrides the default and maximum page sizes.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(e *Engine) {
		if defaultLimit > 0 {
			e.limits.def = defaultLimit
		}
		if maxLimit > 0 {
			e.limits.max = maxLimit
		}
		if e.limits.def > e.limits.max {
			e.limits.def = e.limits.max
		}
	}
}

// WithKeySerializer replaces the canonical query serializer.
func WithKeySerializer(s cache.KeySerializer) Option {
	return func(e *Engine) {
		if s != nil {
			e.keys = s
		}
	}
}

// New builds an engine over store and cacheService.
func New(store catalog.Store, cacheService cache.CacheService, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		cache:    cacheService,
		keys:     cache.NewDefaultKeySerializer(),
		ttl:      cache.DefaultTTLConfig(),
		limits:   limits{def: DefaultLimit, max: MaxLimit},
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AdvancedSearch runs a structured query and returns one enriched page.
func (e *Engine) AdvancedSearch(ctx context.Context, q Query) (res SearchResult, err error) {
	defer e.observe("AdvancedSearch", time.Now(), &err)

	q, err = e.limits.normalize(q)
	if err != nil {
		return SearchResult{}, err
	}

	key := cache.SearchQueryKey(cache.HashKey(e.keys, "advancedSearch", q))
	return cache.GetOrFetch(ctx, e.cache, key, e.ttl.Search, func(ctx context.Context) (SearchResult, error) {
		preds := filter(q)
		if len(q.Parameters) > 0 {
			ids, err := e.resolveParameterIDs(ctx, q.Parameters)
			if err != nil {
				return SearchResult{}, e.storeFailure("AdvancedSearch", key, q, err)
			}
			if len(ids) == 0 {
				return newResult[Item](nil, 0, q), nil
			}
			preds = append(preds, catalog.OneOf{Field: catalog.FieldComponentID, Values: ids})
		}

		res, err := e.findPage(ctx, preds, q)
		if err != nil {
			return SearchResult{}, e.storeFailure("AdvancedSearch", key, q, err)
		}
		return res, nil
	})
}

// FullTextSearch ranks components against keyword using the store's text
// index. Keywords shorter than two characters yield an empty page.
func (e *Engine) FullTextSearch(ctx context.Context, keyword string, opts PageOptions) (res TextSearchResult, err error) {
	defer e.observe("FullTextSearch", time.Now(), &err)

	q, err := e.limits.normalize(Query{Keyword: keyword, Page: opts.Page, Limit: opts.Limit})
	if err != nil {
		return TextSearchResult{}, err
	}
	if q.Keyword == "" {
		return newResult[ScoredItem](nil, 0, q), nil
	}

	key := cache.FullTextKey(cache.HashKey(e.keys, "fullTextSearch", q.Keyword, q.Page, q.Limit))
	return cache.GetOrFetch(ctx, e.cache, key, e.ttl.Search, func(ctx context.Context) (TextSearchResult, error) {
		hits, total, err := e.store.TextSearch(ctx, q.Keyword, (q.Page-1)*q.Limit, q.Limit)
		if err != nil {
			return TextSearchResult{}, e.storeFailure("FullTextSearch", key, q, err)
		}

		components := make([]catalog.Component, len(hits))
		for i, h := range hits {
			components[i] = h.Component
		}
		items, err := e.enrich(ctx, components)
		if err != nil {
			return TextSearchResult{}, e.storeFailure("FullTextSearch", key, q, err)
		}

		scored := make([]ScoredItem, len(items))
		for i, item := range items {
			scored[i] = ScoredItem{Item: item, Score: hits[i].Score}
		}
		return newResult(scored, total, q), nil
	})
}

// SearchByCategory lists the components filed under path, given root-to-leaf.
// Only label paths in the default order are cached; free-text paths are too
// unbounded to be worth a key.
func (e *Engine) SearchByCategory(ctx context.Context, path catalog.FamilyPath, opts PageOptions) (res SearchResult, err error) {
	defer e.observe("SearchByCategory", time.Now(), &err)

	q, err := e.limits.normalize(Query{
		FamilyPath: path,
		Page:       opts.Page,
		Limit:      opts.Limit,
		SortBy:     opts.SortBy,
		SortOrder:  opts.SortOrder,
	})
	if err != nil {
		return SearchResult{}, err
	}

	fetch := func(ctx context.Context) (SearchResult, error) {
		res, err := e.findPage(ctx, filter(q), q)
		if err != nil {
			return SearchResult{}, e.storeFailure("SearchByCategory", "", q, err)
		}
		return res, nil
	}

	labels := cleanPath(q.FamilyPath)
	if q.FamilyPath.IsText() || len(labels) == 0 || q.SortBy != "" || q.SortOrder != Asc {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, e.cache, cache.CategoryKey(labels, q.Page, q.Limit), e.ttl.Search, fetch)
}

// SearchByParameters returns the components satisfying every parameter
// constraint.
func (e *Engine) SearchByParameters(ctx context.Context, params map[string]catalog.ParameterConstraint, opts PageOptions) (res SearchResult, err error) {
	defer e.observe("SearchByParameters", time.Now(), &err)

	if len(params) == 0 {
		return SearchResult{}, fmt.Errorf("%w: no parameters given", ErrInvalidParameterShape)
	}
	q, err := e.limits.normalize(Query{
		Parameters: params,
		Page:       opts.Page,
		Limit:      opts.Limit,
		SortBy:     opts.SortBy,
		SortOrder:  opts.SortOrder,
	})
	if err != nil {
		return SearchResult{}, err
	}

	key := cache.ParameterSearchKey(cache.HashKey(e.keys, "searchByParameters", q))
	return cache.GetOrFetch(ctx, e.cache, key, e.ttl.Search, func(ctx context.Context) (SearchResult, error) {
		ids, err := e.resolveParameterIDs(ctx, q.Parameters)
		if err != nil {
			return SearchResult{}, e.storeFailure("SearchByParameters", key, q, err)
		}
		if len(ids) == 0 {
			return newResult[Item](nil, 0, q), nil
		}
		res, err := e.findPage(ctx, catalog.All{catalog.OneOf{Field: catalog.FieldComponentID, Values: ids}}, q)
		if err != nil {
			return SearchResult{}, e.storeFailure("SearchByParameters", key, q, err)
		}
		return res, nil
	})
}

// GetComponentWithParameters joins a component with its parameters and
// their definitions.
func (e *Engine) GetComponentWithParameters(ctx context.Context, id string) (detail ComponentDetail, err error) {
	defer e.observe("GetComponentWithParameters", time.Now(), &err)

	key := cache.ComponentDetailKey(id)
	return cache.GetOrFetch(ctx, e.cache, key, e.ttl.ComponentDetail, func(ctx context.Context) (ComponentDetail, error) {
		c, err := e.store.ComponentByID(ctx, id)
		if err != nil {
			return ComponentDetail{}, e.storeFailure("GetComponentWithParameters", key, id, err)
		}

		params, err := e.store.ParametersFor(ctx, []string{id})
		if err != nil {
			return ComponentDetail{}, e.storeFailure("GetComponentWithParameters", key, id, err)
		}
		defs, err := e.GetParameterDefinitions(ctx)
		if err != nil {
			return ComponentDetail{}, err
		}

		byKey := definitionsByKey(defs)
		detail := ComponentDetail{
			Item:       Item{Component: c, RadiationSensitivity: radiationAttributes(params, byKey)},
			Parameters: make([]ParameterDetail, 0, len(params)),
		}
		for _, p := range params {
			d := ParameterDetail{Parameter: p}
			if def, ok := byKey[p.ParameterKey]; ok {
				d.Name, d.ShortName, d.Category = def.Name, def.ShortName, def.Category
			}
			detail.Parameters = append(detail.Parameters, d)
		}
		sort.SliceStable(detail.Parameters, func(i, j int) bool {
			return detail.Parameters[i].ParameterKey < detail.Parameters[j].ParameterKey
		})
		return detail, nil
	})
}

// findPage runs count and find concurrently and enriches the page.
func (e *Engine) findPage(ctx context.Context, preds catalog.All, q Query) (SearchResult, error) {
	var (
		total      int
		components []catalog.Component
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := e.store.Count(gctx, preds)
		total = n
		return err
	})
	g.Go(func() error {
		found, err := e.store.Find(gctx, preds, catalog.FindOptions{
			Sort:   ordering(q.SortBy, q.SortOrder),
			Offset: (q.Page - 1) * q.Limit,
			Limit:  q.Limit,
		})
		components = found
		return err
	})
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	items, err := e.enrich(ctx, components)
	if err != nil {
		return SearchResult{}, err
	}
	return newResult(items, total, q), nil
}

// resolveParameterIDs intersects the ids matching each constraint. It stops
// at the first key that leaves nothing.
func (e *Engine) resolveParameterIDs(ctx context.Context, params map[string]catalog.ParameterConstraint) ([]string, error) {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var candidates map[string]struct{}
	for _, key := range keys {
		ids, err := e.store.ComponentIDsByParameter(ctx, key, params[key])
		if err != nil {
			return nil, err
		}

		next := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, ok := candidates[id]; candidates == nil || ok {
				next[id] = struct{}{}
			}
		}
		candidates = next
		if len(candidates) == 0 {
			return nil, nil
		}
	}

	out := make([]string, 0, len(candidates))
	for id := range candidates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// storeFailure logs a store error with its query context and maps it to
// ErrSearchFailed. Cancellation and not-found pass through untouched.
func (e *Engine) storeFailure(op, key string, query any, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, catalog.ErrNotFound) || errors.Is(err, ErrSearchFailed) {
		return err
	}
	e.logger.Error("search store query failed",
		zap.String("operation", op),
		zap.String("cache_key", key),
		zap.Any("query", query),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %w", ErrSearchFailed, err)
}

func (e *Engine) observe(op string, start time.Time, errp *error) {
	status := "ok"
	if err := *errp; err != nil {
		switch {
		case errors.Is(err, ErrInvalidParameterShape):
			status = "invalid"
		case errors.Is(err, ErrNotFound):
			status = "not_found"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = "canceled"
		default:
			status = "error"
		}
	}
	e.recorder.SearchCompleted(op, status, time.Since(start))
}

func cleanPath(p catalog.FamilyPath) []string {
	out := make([]string, 0, len(p.Labels))
	for _, l := range p.Labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

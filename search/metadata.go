package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/cache"
	"github.com/goliatone/go-component-search/catalog"
	"github.com/goliatone/go-component-search/category"
)

const (
	defaultSuggestions = 10
	maxSuggestions     = 50
)

// GetManufacturers lists the distinct manufacturer names.
func (e *Engine) GetManufacturers(ctx context.Context) (names []string, err error) {
	defer e.observe("GetManufacturers", time.Now(), &err)

	return cache.GetOrFetch(ctx, e.cache, cache.KeyManufacturers, e.ttl.Metadata, func(ctx context.Context) ([]string, error) {
		names, err := e.store.DistinctManufacturers(ctx)
		if err != nil {
			return nil, e.storeFailure("GetManufacturers", cache.KeyManufacturers, nil, err)
		}
		if names == nil {
			names = []string{}
		}
		return names, nil
	})
}

// fallbackTree carries the placeholder tree out of a fetch so it is
// returned without being cached.
type fallbackTree struct {
	tree *category.Tree
}

func (fallbackTree) Error() string { return "category tree fallback" }

// GetCategoryTree returns the navigation hierarchy over every stored path.
// When the store fails or holds no paths, the hard-coded fallback is
// returned and nothing is cached.
func (e *Engine) GetCategoryTree(ctx context.Context) (tree *category.Tree, err error) {
	defer e.observe("GetCategoryTree", time.Now(), &err)

	tree, err = cache.GetOrFetch(ctx, e.cache, cache.KeyCategoryTree, e.ttl.Metadata, func(ctx context.Context) (*category.Tree, error) {
		paths, err := e.store.DistinctFamilyPaths(ctx, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("category tree falling back", zap.Error(err))
			return nil, fallbackTree{tree: category.FallbackTree()}
		}

		tree := category.BuildTree(paths)
		if tree.IsEmpty() {
			return nil, fallbackTree{tree: category.FallbackTree()}
		}
		return tree, nil
	})

	var fb fallbackTree
	if errors.As(err, &fb) {
		return fb.tree, nil
	}
	return tree, err
}

// GetManufacturerCategoryTree returns the hierarchy restricted to one
// manufacturer, matched case-insensitively. An unknown manufacturer yields
// an empty tree.
func (e *Engine) GetManufacturerCategoryTree(ctx context.Context, manufacturer string) (tree *category.Tree, err error) {
	defer e.observe("GetManufacturerCategoryTree", time.Now(), &err)

	manufacturer = strings.TrimSpace(manufacturer)
	if manufacturer == "" {
		return nil, fmt.Errorf("%w: manufacturer is required", ErrInvalidParameterShape)
	}

	key := cache.ManufacturerTreeKey(manufacturer)
	return cache.GetOrFetch(ctx, e.cache, key, e.ttl.ManufacturerTree, func(ctx context.Context) (*category.Tree, error) {
		f := catalog.Pattern{Field: catalog.FieldManufacturerName, Expr: catalog.ExactPattern(manufacturer)}
		paths, err := e.store.DistinctFamilyPaths(ctx, f)
		if err != nil {
			return nil, e.storeFailure("GetManufacturerCategoryTree", key, manufacturer, err)
		}
		return category.BuildTree(paths), nil
	})
}

// GetParameterDefinitions lists every parameter definition. It is also
// called during enrichment, so it records no operation metrics of its own.
func (e *Engine) GetParameterDefinitions(ctx context.Context) (defs []catalog.ParameterDefinition, err error) {
	return cache.GetOrFetch(ctx, e.cache, cache.KeyParameterDefinitions, e.ttl.Metadata, func(ctx context.Context) ([]catalog.ParameterDefinition, error) {
		defs, err := e.store.ParameterDefinitions(ctx)
		if err != nil {
			return nil, e.storeFailure("GetParameterDefinitions", cache.KeyParameterDefinitions, nil, err)
		}
		if defs == nil {
			defs = []catalog.ParameterDefinition{}
		}
		return defs, nil
	})
}

// GetFamilyMeta returns the family metadata for a root-to-leaf path.
func (e *Engine) GetFamilyMeta(ctx context.Context, path catalog.FamilyPath) (family catalog.Family, err error) {
	defer e.observe("GetFamilyMeta", time.Now(), &err)

	var rootToLeaf []string
	if path.IsText() {
		rootToLeaf = path.RootToLeaf()
	} else {
		rootToLeaf = cleanPath(path)
	}
	if len(rootToLeaf) == 0 {
		return catalog.Family{}, fmt.Errorf("%w: family path is required", ErrInvalidParameterShape)
	}

	stored := slices.Clone(rootToLeaf)
	slices.Reverse(stored)

	key := cache.FamilyKey(rootToLeaf)
	return cache.GetOrFetch(ctx, e.cache, key, e.ttl.Metadata, func(ctx context.Context) (catalog.Family, error) {
		family, err := e.store.FamilyByPath(ctx, catalog.PathOf(stored...))
		if err != nil {
			return catalog.Family{}, e.storeFailure("GetFamilyMeta", key, rootToLeaf, err)
		}
		return family, nil
	})
}

// GetSuggestions autocompletes part numbers and manufacturers from a
// prefix of at least two characters.
func (e *Engine) GetSuggestions(ctx context.Context, prefix string, limit int) (out []catalog.Suggestion, err error) {
	defer e.observe("GetSuggestions", time.Now(), &err)

	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < minKeywordLength {
		return []catalog.Suggestion{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestions
	}
	limit = min(limit, maxSuggestions)

	key := cache.SuggestionsKey(cache.HashKey(e.keys, "suggestions", strings.ToLower(prefix), limit))
	return cache.GetOrFetch(ctx, e.cache, key, e.ttl.Suggestions, func(ctx context.Context) ([]catalog.Suggestion, error) {
		out, err := e.store.Suggest(ctx, prefix, limit)
		if err != nil {
			return nil, e.storeFailure("GetSuggestions", key, prefix, err)
		}
		if out == nil {
			out = []catalog.Suggestion{}
		}
		return out, nil
	})
}

// InvalidateSearchCache drops every cached search page.
func (e *Engine) InvalidateSearchCache(ctx context.Context) int64 {
	n := e.cache.DeletePattern(ctx, cache.Pattern(cache.NamespaceSearch))
	e.logger.Info("search cache invalidated", zap.Int64("keys", n))
	return n
}

// InvalidateMetadataCache drops manufacturers, trees, definitions, family
// metadata and statistics.
func (e *Engine) InvalidateMetadataCache(ctx context.Context) int64 {
	n := e.cache.DeletePattern(ctx, cache.Pattern(cache.NamespaceMeta))
	e.logger.Info("metadata cache invalidated", zap.Int64("keys", n))
	return n
}

// InvalidateComponent drops the cached detail of one component.
func (e *Engine) InvalidateComponent(ctx context.Context, id string) bool {
	return e.cache.Delete(ctx, cache.ComponentDetailKey(id)) > 0
}

// CacheStats reports the cache layer counters and store size.
func (e *Engine) CacheStats(ctx context.Context) cache.Stats {
	return e.cache.Stats(ctx)
}

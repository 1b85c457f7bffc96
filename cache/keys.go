package cache

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Key namespaces. Invalidation works on these prefixes.
const (
	NamespaceSearch    = "search"
	NamespaceMeta      = "meta"
	NamespaceComponent = "component"
)

// Fixed metadata keys.
const (
	KeyManufacturers        = "meta:manufacturers"
	KeyCategoryTree         = "meta:categories:tree"
	KeyParameterDefinitions = "meta:parameter_definitions"
	KeyStatistics           = "meta:statistics"
)

// DefaultCategoryLimit is the page size category keys omit.
const DefaultCategoryLimit = 20

// SearchQueryKey addresses a filtered search result.
func SearchQueryKey(hash string) string { return "search:query:" + hash }

// FullTextKey addresses a ranked keyword search result.
func FullTextKey(hash string) string { return "search:fulltext:" + hash }

// ParameterSearchKey addresses a parameter-only search result.
func ParameterSearchKey(hash string) string { return "search:params:" + hash }

// SuggestionsKey addresses an autocomplete result.
func SuggestionsKey(hash string) string { return "search:suggest:" + hash }

// CategoryKey addresses one page of a category listing. Labels are
// path-escaped so a "/" inside a label cannot collide with the separator.
// The limit is only part of the key when it differs from the default.
func CategoryKey(labels []string, page, limit int) string {
	key := fmt.Sprintf("search:category:%s:%d", JoinPath(labels), page)
	if limit > 0 && limit != DefaultCategoryLimit {
		key += ":" + strconv.Itoa(limit)
	}
	return key
}

// ComponentDetailKey addresses a single enriched component.
func ComponentDetailKey(id string) string { return "component:detail:" + id }

// FamilyKey addresses family metadata for a path.
func FamilyKey(labels []string) string { return "meta:family:" + JoinPath(labels) }

// ManufacturerTreeKey addresses the category tree restricted to one manufacturer.
func ManufacturerTreeKey(manufacturer string) string {
	return KeyCategoryTree + ":manufacturer:" + strings.ToLower(strings.TrimSpace(manufacturer))
}

// JoinPath renders labels as an escaped "/"-joined key segment.
func JoinPath(labels []string) string {
	escaped := make([]string, len(labels))
	for i, label := range labels {
		escaped[i] = url.PathEscape(label)
	}
	return strings.Join(escaped, "/")
}

// Pattern returns the glob matching every key under namespace.
func Pattern(namespace string) string { return namespace + ":*" }

// Namespace returns the first two segments of a key, e.g. "search:query".
// Metrics use it as a low-cardinality label.
func Namespace(key string) string {
	first, rest, ok := strings.Cut(key, ":")
	if !ok {
		return first
	}
	second, _, _ := strings.Cut(rest, ":")
	return first + ":" + second
}

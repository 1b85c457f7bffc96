package category

import (
	"slices"
	"strings"

	"github.com/goliatone/go-component-search/catalog"
)

// MatchPath builds the predicate selecting components filed under path.
//
// path carries either a single Text label or Labels in root-to-leaf order, as
// supplied by the UI. A zero path yields an empty All, which matches
// everything. The result never fails; a path nothing matches simply selects
// no components.
func MatchPath(path catalog.FamilyPath) catalog.Predicate {
	if path.IsText() {
		return MatchLabels(strings.TrimSpace(path.Text))
	}
	return MatchLabels(path.Labels...)
}

// MatchLabels is MatchPath over plain root-to-leaf labels.
func MatchLabels(labels ...string) catalog.Predicate {
	labels = cleanLabels(labels)

	switch len(labels) {
	case 0:
		return catalog.All{}
	case 1:
		// Membership at any depth, so a top-level label also selects every
		// descendant.
		return catalog.Any{
			catalog.PathContains{Label: labels[0]},
			catalog.Pattern{Field: catalog.FieldFamilyPath, Expr: catalog.ContainsPattern(labels[0])},
		}
	}

	reversed := slices.Clone(labels)
	slices.Reverse(reversed)

	perLabel := make(catalog.All, len(labels))
	for i, label := range labels {
		perLabel[i] = catalog.Pattern{Field: catalog.FieldFamilyPath, Expr: catalog.ContainsPattern(label)}
	}

	return catalog.Any{
		catalog.PathEquals{Labels: reversed},
		catalog.PathEquals{Labels: slices.Clone(labels)},
		catalog.PathContainsAll{Labels: slices.Clone(labels)},
		perLabel,
		catalog.PathIn{Values: JoinedRenderings(labels)},
	}
}

// JoinedRenderings lists labels joined with every legacy separator, in both
// the supplied and the reversed order.
func JoinedRenderings(labels []string) []string {
	reversed := slices.Clone(labels)
	slices.Reverse(reversed)

	out := make([]string, 0, 2*len(catalog.PathSeparators))
	seen := make(map[string]struct{}, cap(out))
	for _, order := range [][]string{labels, reversed} {
		for _, sep := range catalog.PathSeparators {
			joined := strings.Join(order, sep)
			if _, ok := seen[joined]; ok {
				continue
			}
			seen[joined] = struct{}{}
			out = append(out, joined)
		}
	}
	return out
}

func cleanLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

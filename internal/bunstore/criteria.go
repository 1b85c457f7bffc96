package bunstore

import (
	"encoding/json"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-component-search/catalog"
)

// Filter compiles a predicate into a select criteria over the components
// table. A nil predicate adds nothing.
func Filter(p catalog.Predicate) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if p == nil {
			return q
		}
		expr, args := compile(p)
		return q.Where(expr, args...)
	}
}

// OrderBy appends the sorts in order.
func OrderBy(sorts []catalog.Sort) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, s := range sorts {
			dir := "ASC"
			if s.Descending {
				dir = "DESC"
			}
			q = q.OrderExpr("? "+dir, bun.Ident(string(s.Field)))
		}
		return q
	}
}

// Paginate applies offset and limit. A non-positive limit means no limit.
func Paginate(offset, limit int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if limit > 0 {
			q = q.Limit(limit)
		}
		if offset > 0 {
			q = q.Offset(offset)
		}
		return q
	}
}

func apply(q *bun.SelectQuery, criteria ...repository.SelectCriteria) *bun.SelectQuery {
	for _, c := range criteria {
		q = c(q)
	}
	return q
}

// compile renders p as a boolean SQL expression. Predicates it does not
// know render as false, the way catalog.Evaluate treats them.
func compile(p catalog.Predicate) (string, []any) {
	switch v := p.(type) {
	case nil:
		return "1", nil
	case catalog.All:
		return join(v, " AND ", "1")
	case catalog.Any:
		return join(v, " OR ", "0")
	case catalog.Not:
		expr, args := compile(v.P)
		return "NOT (" + expr + ")", args
	case catalog.Equals:
		if b, ok := v.Value.(bool); ok {
			if v.Field != catalog.FieldHasStock {
				return "0", nil
			}
			return "has_stock = ?", []any{b}
		}
		s, ok := v.Value.(string)
		if !ok {
			return "0", nil
		}
		col, args := column(v.Field)
		return col + " = ?", append(args, s)
	case catalog.OneOf:
		if len(v.Values) == 0 {
			return "0", nil
		}
		col, args := column(v.Field)
		return col + " IN (?)", append(args, bun.In(v.Values))
	case catalog.Pattern:
		if v.Field == catalog.FieldFamilyPath {
			return "fp_match(family_path, ?) = 1", []any{v.Expr}
		}
		col, args := column(v.Field)
		return "regexp(?, " + col + ") = 1", append([]any{v.Expr}, args...)
	case catalog.PathEquals:
		return "fp_equals(family_path, ?) = 1", []any{jsonList(v.Labels)}
	case catalog.PathContains:
		return "fp_has(family_path, ?) = 1", []any{v.Label}
	case catalog.PathContainsAll:
		return "fp_has_all(family_path, ?) = 1", []any{jsonList(v.Labels)}
	case catalog.PathIn:
		return "fp_in(family_path, ?) = 1", []any{jsonList(v.Values)}
	}
	return "0", nil
}

// column renders f as text, matching catalog.Component.Text.
func column(f catalog.Field) (string, []any) {
	if f == catalog.FieldHasStock {
		return "(CASE WHEN has_stock THEN 'true' ELSE 'false' END)", nil
	}
	return "?", []any{bun.Ident(string(f))}
}

func join(preds []catalog.Predicate, op, empty string) (string, []any) {
	if len(preds) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		expr, a := compile(p)
		parts = append(parts, "("+expr+")")
		args = append(args, a...)
	}
	return strings.Join(parts, op), args
}

func jsonList(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}

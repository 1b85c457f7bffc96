package catalog

import (
	"regexp"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Predicate is a filter over components. Store implementations translate it
// into their native query language; Evaluate gives the reference semantics.
type Predicate interface {
	predicate()
}

// All matches when every child matches. An empty All matches everything.
type All []Predicate

// Any matches when at least one child matches. An empty Any matches nothing.
type Any []Predicate

// Not negates its child.
type Not struct {
	P Predicate
}

// Equals compares a field for equality. Value is a string, or a bool for
// FieldHasStock.
type Equals struct {
	Field Field
	Value any
}

// OneOf matches when the field equals one of Values.
type OneOf struct {
	Field  Field
	Values []string
}

// Pattern is a case-insensitive regular expression. On FieldFamilyPath it
// matches the legacy text or any single label.
type Pattern struct {
	Field Field
	Expr  string
}

// PathEquals matches label paths identical to Labels, in stored order.
type PathEquals struct {
	Labels []string
}

// PathContains matches label paths holding Label at any position.
type PathContains struct {
	Label string
}

// PathContainsAll matches label paths holding every label, in any order.
type PathContainsAll struct {
	Labels []string
}

// PathIn matches when the legacy text, or any label, equals one of Values.
type PathIn struct {
	Values []string
}

func (All) predicate()             {}
func (Any) predicate()             {}
func (Not) predicate()             {}
func (Equals) predicate()          {}
func (OneOf) predicate()           {}
func (Pattern) predicate()         {}
func (PathEquals) predicate()      {}
func (PathContains) predicate()    {}
func (PathContainsAll) predicate() {}
func (PathIn) predicate()          {}

// Evaluate reports whether c satisfies p. A nil predicate matches.
func Evaluate(p Predicate, c Component) bool {
	switch v := p.(type) {
	case nil:
		return true
	case All:
		for _, child := range v {
			if !Evaluate(child, c) {
				return false
			}
		}
		return true
	case Any:
		for _, child := range v {
			if Evaluate(child, c) {
				return true
			}
		}
		return false
	case Not:
		return !Evaluate(v.P, c)
	case Equals:
		if b, ok := v.Value.(bool); ok {
			return v.Field == FieldHasStock && c.HasStock == b
		}
		s, ok := v.Value.(string)
		return ok && c.Text(v.Field) == s
	case OneOf:
		got := c.Text(v.Field)
		for _, want := range v.Values {
			if got == want {
				return true
			}
		}
		return false
	case Pattern:
		if v.Field == FieldFamilyPath {
			return PathMatchesPattern(c.FamilyPath, v.Expr)
		}
		return MatchPattern(v.Expr, c.Text(v.Field))
	case PathEquals:
		return PathEqualsLabels(c.FamilyPath, v.Labels)
	case PathContains:
		return PathHasLabel(c.FamilyPath, v.Label)
	case PathContainsAll:
		return PathHasAllLabels(c.FamilyPath, v.Labels)
	case PathIn:
		return PathInValues(c.FamilyPath, v.Values)
	}
	return false
}

// PathEqualsLabels reports whether p has exactly labels, in order.
func PathEqualsLabels(p FamilyPath, labels []string) bool {
	if len(p.Labels) == 0 || len(p.Labels) != len(labels) {
		return false
	}
	for i := range labels {
		if p.Labels[i] != labels[i] {
			return false
		}
	}
	return true
}

// PathHasLabel reports whether label is one of p's labels.
func PathHasLabel(p FamilyPath, label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// PathHasAllLabels reports whether every label is present in p.
func PathHasAllLabels(p FamilyPath, labels []string) bool {
	if len(p.Labels) == 0 || len(labels) == 0 {
		return false
	}
	for _, label := range labels {
		if !PathHasLabel(p, label) {
			return false
		}
	}
	return true
}

// PathInValues reports whether p's text or any label equals one of values.
func PathInValues(p FamilyPath, values []string) bool {
	for _, v := range values {
		if p.IsText() && p.Text == v {
			return true
		}
		if PathHasLabel(p, v) {
			return true
		}
	}
	return false
}

// PathMatchesPattern applies a case-insensitive expression to p's text or
// to each label.
func PathMatchesPattern(p FamilyPath, expr string) bool {
	if p.IsText() {
		return MatchPattern(expr, p.Text)
	}
	for _, l := range p.Labels {
		if MatchPattern(expr, l) {
			return true
		}
	}
	return false
}

// Expressions come from user input, so the compiled set is bounded.
const maxCachedPatterns = 4096

var patterns = xsync.NewMapOf[string, *regexp.Regexp]()

// MatchPattern runs expr case-insensitively against s. Expressions that do
// not compile match nothing.
func MatchPattern(expr, s string) bool {
	re, ok := patterns.Load(expr)
	if !ok {
		compiled, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return false
		}
		if patterns.Size() >= maxCachedPatterns {
			patterns.Clear()
		}
		re, _ = patterns.LoadOrStore(expr, compiled)
	}
	return re.MatchString(s)
}

// PrefixPattern matches values starting with s.
func PrefixPattern(s string) string {
	return "^" + regexp.QuoteMeta(s)
}

// ContainsPattern matches values containing s.
func ContainsPattern(s string) string {
	return regexp.QuoteMeta(s)
}

// ExactPattern matches values equal to s, ignoring case.
func ExactPattern(s string) string {
	return "^" + regexp.QuoteMeta(strings.TrimSpace(s)) + "$"
}

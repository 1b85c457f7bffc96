package cache

import (
	"strings"
	"testing"

	"github.com/goliatone/go-component-search/catalog"
)

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

// searchQuery has the shape of the engine's filtered search query.
type searchQuery struct {
	Keyword      string                                 `json:"keyword,omitempty"`
	Manufacturer string                                 `json:"manufacturer,omitempty"`
	FamilyPath   catalog.FamilyPath                     `json:"familyPath,omitempty"`
	HasStock     *bool                                  `json:"hasStock,omitempty"`
	Parameters   map[string]catalog.ParameterConstraint `json:"parameters,omitempty"`
	Page         int                                    `json:"page"`
	Limit        int                                    `json:"limit"`
	trace        string
}

type serializerCase struct {
	name   string
	method string
	args   []any
	want   string
}

func runSerializerCases(t *testing.T, tests []serializerCase) {
	t.Helper()
	serializer := NewDefaultKeySerializer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.method, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Scalars(t *testing.T) {
	runSerializerCases(t, []serializerCase{
		{
			name:   "no args",
			method: "GetManufacturers",
			want:   "GetManufacturers",
		},
		{
			name:   "component id",
			method: "GetComponentWithParameters",
			args:   []any{"c01"},
			want:   joinWithSeparator("GetComponentWithParameters", "c01"),
		},
		{
			name:   "category page",
			method: "searchByCategory",
			args:   []any{"Resistors/Fixed", 2, 20},
			want:   joinWithSeparator("searchByCategory", "Resistors/Fixed", "2", "20"),
		},
		{
			name:   "suggestion prefix and limit",
			method: "suggestions",
			args:   []any{"lm3", 10},
			want:   joinWithSeparator("suggestions", "lm3", "10"),
		},
		{
			name:   "nil pointer",
			method: "search",
			args:   []any{(*bool)(nil)},
			want:   joinWithSeparator("search", "nil"),
		},
	})
}

func TestDefaultKeySerializer_Constraints(t *testing.T) {
	lo, hi := 3.0, 5.0

	runSerializerCases(t, []serializerCase{
		{
			name:   "exact value",
			method: "params",
			args:   []any{catalog.ExactValue("TO-220")},
			want:   joinWithSeparator("params", `json:"TO-220"`),
		},
		{
			name:   "exact number",
			method: "params",
			args:   []any{catalog.ExactNumber(5)},
			want:   joinWithSeparator("params", "json:5"),
		},
		{
			name:   "closed range",
			method: "params",
			args:   []any{catalog.Between(&lo, &hi)},
			want:   joinWithSeparator("params", `json:{"min":3,"max":5}`),
		},
		{
			name:   "open upper bound",
			method: "params",
			args:   []any{catalog.Between(&lo, nil)},
			want:   joinWithSeparator("params", `json:{"min":3}`),
		},
		{
			name:   "constraint map sorted by key",
			method: "params",
			args: []any{map[string]catalog.ParameterConstraint{
				"package":        catalog.ExactValue("TO-220"),
				"output_voltage": catalog.Between(&lo, &hi),
			}},
			want: joinWithSeparator("params", `map[2]:{output_voltage=json:{"min":3,"max":5},package=json:"TO-220"}`),
		},
		{
			name:   "nil constraint map",
			method: "params",
			args:   []any{(map[string]catalog.ParameterConstraint)(nil)},
			want:   joinWithSeparator("params", "map:nil"),
		},
	})
}

func TestDefaultKeySerializer_FamilyPaths(t *testing.T) {
	runSerializerCases(t, []serializerCase{
		{
			name:   "label path",
			method: "category",
			args:   []any{catalog.PathOf("Fixed", "Resistors")},
			want:   joinWithSeparator("category", `json:["Fixed","Resistors"]`),
		},
		{
			name:   "legacy text path",
			method: "category",
			args:   []any{catalog.TextPath("Resistors/Fixed")},
			want:   joinWithSeparator("category", `json:"Resistors/Fixed"`),
		},
		{
			name:   "path segments",
			method: "category",
			args:   []any{[]string{"Resistors", "Fixed"}},
			want:   joinWithSeparator("category", "slice[2]:{Resistors,Fixed}"),
		},
		{
			name:   "nil segments",
			method: "category",
			args:   []any{([]string)(nil)},
			want:   joinWithSeparator("category", "slice:nil"),
		},
	})
}

func TestDefaultKeySerializer_Query(t *testing.T) {
	inStock := true
	hi := 5.0

	runSerializerCases(t, []serializerCase{
		{
			name:   "fields sorted by json name",
			method: "search",
			args: []any{searchQuery{
				Manufacturer: "Texas",
				FamilyPath:   catalog.PathOf("Linear", "Integrated Circuits"),
				Page:         1,
				Limit:        20,
			}},
			want: joinWithSeparator("search",
				`struct:{familyPath:json:["Linear","Integrated Circuits"],limit:20,manufacturer:Texas,page:1}`),
		},
		{
			name:   "empty filters and unexported fields skipped",
			method: "search",
			args: []any{searchQuery{
				Parameters: map[string]catalog.ParameterConstraint{},
				Page:       1,
				Limit:      20,
				trace:      "req-1",
			}},
			want: joinWithSeparator("search", "struct:{limit:20,page:1}"),
		},
		{
			name:   "stock flag and constraints",
			method: "search",
			args: []any{searchQuery{
				HasStock:   &inStock,
				Parameters: map[string]catalog.ParameterConstraint{"output_voltage": catalog.Between(nil, &hi)},
				Page:       1,
				Limit:      20,
			}},
			want: joinWithSeparator("search",
				`struct:{hasStock:true,limit:20,page:1,parameters:map[1]:{output_voltage=json:{"max":5}}}`),
		},
	})
}

func TestDefaultKeySerializer_ConstraintInsertionOrder(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	a := map[string]catalog.ParameterConstraint{}
	a["capacitance"] = catalog.ExactValue("10uF")
	a["voltage_rating"] = catalog.ExactNumber(50)
	a["tolerance"] = catalog.ExactValue("5%")

	b := map[string]catalog.ParameterConstraint{}
	b["tolerance"] = catalog.ExactValue("5%")
	b["voltage_rating"] = catalog.ExactNumber(50)
	b["capacitance"] = catalog.ExactValue("10uF")

	ka := serializer.SerializeKey("search", searchQuery{Parameters: a, Page: 1})
	kb := serializer.SerializeKey("search", searchQuery{Parameters: b, Page: 1})
	if ka != kb {
		t.Errorf("expected keys to be independent of map insertion order: %v != %v", ka, kb)
	}
}

func TestDefaultKeySerializer_NonDataArgs(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	fetch := func() {}
	key1 := serializer.SerializeKey("GetOrFetch", fetch)
	if key2 := serializer.SerializeKey("GetOrFetch", fetch); key1 != key2 {
		t.Errorf("function serialization should be stable: %v != %v", key1, key2)
	}
	if prefix := joinWithSeparator("GetOrFetch", "func") + ":"; !strings.HasPrefix(key1, prefix) {
		t.Errorf("expected %q prefix, got %v", prefix, key1)
	}

	ch := make(chan int)
	if key, prefix := serializer.SerializeKey("watch", ch), joinWithSeparator("watch", "chan")+":"; !strings.HasPrefix(key, prefix) {
		t.Errorf("expected %q prefix, got %v", prefix, key)
	}
}

func TestHashKey(t *testing.T) {
	lo := 1.0

	q1 := searchQuery{
		Manufacturer: "Texas",
		Parameters: map[string]catalog.ParameterConstraint{
			"output_voltage": catalog.Between(&lo, nil),
			"package":        catalog.ExactValue("SOT-223"),
		},
		Page: 1,
	}
	q2 := searchQuery{
		Page: 1,
		Parameters: map[string]catalog.ParameterConstraint{
			"package":        catalog.ExactValue("SOT-223"),
			"output_voltage": catalog.Between(&lo, nil),
		},
		Manufacturer: "Texas",
	}
	q3 := searchQuery{Manufacturer: "Texas", Page: 2}

	h1 := HashKey(nil, "search", q1)
	if len(h1) != 16 {
		t.Fatalf("expected 16 hex characters, got %q", h1)
	}
	if h2 := HashKey(NewDefaultKeySerializer(), "search", q2); h1 != h2 {
		t.Errorf("expected equal queries to hash equally, got %s and %s", h1, h2)
	}
	if h3 := HashKey(nil, "search", q3); h1 == h3 {
		t.Error("expected different queries to hash differently")
	}
	if h4 := HashKey(nil, "fulltext", q1); h1 == h4 {
		t.Error("expected the method name to be part of the hash")
	}
}

func BenchmarkDefaultKeySerializer(b *testing.B) {
	serializer := NewDefaultKeySerializer()
	lo, hi := 3.0, 5.0
	q := searchQuery{
		Manufacturer: "Texas",
		FamilyPath:   catalog.PathOf("Linear", "Integrated Circuits"),
		Parameters:   map[string]catalog.ParameterConstraint{"output_voltage": catalog.Between(&lo, &hi)},
		Page:         1,
		Limit:        20,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		serializer.SerializeKey("search", q)
	}
}

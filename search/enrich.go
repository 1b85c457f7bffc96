package search

import (
	"context"
	"sort"

	"github.com/goliatone/go-component-search/catalog"
)

// RadiationCategory is the definition category surfaced on every row.
const RadiationCategory = "Radiation: Potential Sensitivity"

// radiationPriority orders the known radiation attributes. Others follow,
// sorted by name.
var radiationPriority = map[string]int{
	"SEE Comments":    0,
	"SEE sens.":       1,
	"TID (HDR) sens.": 2,
	"TID (LDR) sens.": 3,
	"TNID Comments":   4,
	"TNID sens.":      5,
}

// Item is a component row with its radiation side-list.
type Item struct {
	catalog.Component
	RadiationSensitivity []Attribute `json:"radiation_sensitivity"`
}

// ScoredItem is a ranked text-search row.
type ScoredItem struct {
	Item
	Score float64 `json:"score"`
}

// Attribute is one labelled parameter value.
type Attribute struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ComponentDetail is a component with every parameter and its definition.
type ComponentDetail struct {
	Item
	Parameters []ParameterDetail `json:"parameters"`
}

// ParameterDetail is a parameter row joined with its definition.
type ParameterDetail struct {
	catalog.Parameter
	Name      string `json:"name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Category  string `json:"category,omitempty"`
}

// enrich attaches radiation attributes to each row. Only parameters whose
// definition sits in RadiationCategory are fetched into the page.
func (e *Engine) enrich(ctx context.Context, components []catalog.Component) ([]Item, error) {
	items := make([]Item, len(components))
	for i, c := range components {
		items[i] = Item{Component: c, RadiationSensitivity: []Attribute{}}
	}
	if len(components) == 0 {
		return items, nil
	}

	defs, err := e.GetParameterDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	radiation := make(map[string]catalog.ParameterDefinition)
	for _, d := range defs {
		if d.Category == RadiationCategory {
			radiation[d.ParameterKey] = d
		}
	}
	if len(radiation) == 0 {
		return items, nil
	}

	ids := make([]string, len(components))
	for i, c := range components {
		ids[i] = c.ComponentID
	}
	params, err := e.store.ParametersFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	byComponent := make(map[string][]catalog.Parameter, len(components))
	for _, p := range params {
		if _, ok := radiation[p.ParameterKey]; ok {
			byComponent[p.ComponentID] = append(byComponent[p.ComponentID], p)
		}
	}
	for i := range items {
		items[i].RadiationSensitivity = radiationAttributes(byComponent[items[i].ComponentID], radiation)
	}
	return items, nil
}

// radiationAttributes selects the radiation parameters among params and
// sorts them by priority, then name.
func radiationAttributes(params []catalog.Parameter, defs map[string]catalog.ParameterDefinition) []Attribute {
	attrs := []Attribute{}
	for _, p := range params {
		def, ok := defs[p.ParameterKey]
		if !ok || def.Category != RadiationCategory {
			continue
		}
		attrs = append(attrs, Attribute{Key: p.ParameterKey, Name: def.Label(), Value: p.ParameterValue})
	}

	sort.SliceStable(attrs, func(i, j int) bool {
		pi, pj := priority(attrs[i].Name), priority(attrs[j].Name)
		if pi != pj {
			return pi < pj
		}
		if attrs[i].Name != attrs[j].Name {
			return attrs[i].Name < attrs[j].Name
		}
		return attrs[i].Key < attrs[j].Key
	})
	return attrs
}

func priority(name string) int {
	if p, ok := radiationPriority[name]; ok {
		return p
	}
	return len(radiationPriority)
}

func definitionsByKey(defs []catalog.ParameterDefinition) map[string]catalog.ParameterDefinition {
	out := make(map[string]catalog.ParameterDefinition, len(defs))
	for _, d := range defs {
		out[d.ParameterKey] = d
	}
	return out
}

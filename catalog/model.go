package catalog

// Lifecycle values stored in Component.ObsolescenceType.
const (
	Active      = "Active"
	LastTimeBuy = "Last Time Buy"
	Obsolete    = "Obsolete"
	Risk        = "Risk"
)

// Field names a predicate or a sort can refer to.
type Field string

const (
	FieldComponentID      Field = "component_id"
	FieldPartNumber       Field = "part_number"
	FieldManufacturerName Field = "manufacturer_name"
	FieldFamilyPath       Field = "family_path"
	FieldPartType         Field = "part_type"
	FieldQualityName      Field = "quality_name"
	FieldObsolescenceType Field = "obsolescence_type"
	FieldHasStock         Field = "has_stock"
)

// Component is a catalogued electronic part.
type Component struct {
	ComponentID      string     `json:"component_id"`
	PartNumber       string     `json:"part_number"`
	ManufacturerName string     `json:"manufacturer_name"`
	FamilyPath       FamilyPath `json:"family_path"`
	PartType         string     `json:"part_type,omitempty"`
	QualityName      string     `json:"quality_name,omitempty"`
	ObsolescenceType string     `json:"obsolescence_type,omitempty"`
	HasStock         bool       `json:"has_stock"`
}

// Text returns the textual value of f for c. FieldHasStock renders as
// "true" or "false" and FieldFamilyPath as its serialized form.
func (c Component) Text(f Field) string {
	switch f {
	case FieldComponentID:
		return c.ComponentID
	case FieldPartNumber:
		return c.PartNumber
	case FieldManufacturerName:
		return c.ManufacturerName
	case FieldFamilyPath:
		return c.FamilyPath.Serialized()
	case FieldPartType:
		return c.PartType
	case FieldQualityName:
		return c.QualityName
	case FieldObsolescenceType:
		return c.ObsolescenceType
	case FieldHasStock:
		if c.HasStock {
			return "true"
		}
		return "false"
	}
	return ""
}

// Parameter is one technical attribute row of a component. Rows are
// immutable once ingested.
type Parameter struct {
	ComponentID    string   `json:"component_id"`
	ParameterKey   string   `json:"parameter_key"`
	ParameterValue string   `json:"parameter_value"`
	NumericValue   *float64 `json:"numeric_value,omitempty"`
}

// ParameterDefinition describes a parameter key.
type ParameterDefinition struct {
	ParameterKey string `json:"parameter_key"`
	Name         string `json:"name"`
	ShortName    string `json:"short_name,omitempty"`
	Category     string `json:"category,omitempty"`
}

// Label is the display name of the definition, preferring the short name.
func (d ParameterDefinition) Label() string {
	if d.ShortName != "" {
		return d.ShortName
	}
	return d.Name
}

// Family holds the parameter keys worth surfacing for a category branch.
type Family struct {
	FamilyPath FamilyPath `json:"family_path"`
	Meta       []string   `json:"meta"`
}

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ParameterConstraint restricts one parameter key. Exactly one form is set:
// an exact string, an exact number, or an inclusive numeric range where
// either bound may be open.
type ParameterConstraint struct {
	Exact  *string
	Number *float64
	Min    *float64
	Max    *float64
}

// ExactValue builds an exact string constraint.
func ExactValue(s string) ParameterConstraint {
	return ParameterConstraint{Exact: &s}
}

// ExactNumber builds an exact numeric constraint.
func ExactNumber(n float64) ParameterConstraint {
	return ParameterConstraint{Number: &n}
}

// Between builds an inclusive range. Pass nil for an open bound.
func Between(min, max *float64) ParameterConstraint {
	return ParameterConstraint{Min: min, Max: max}
}

// IsRange reports whether the constraint is a numeric range.
func (c ParameterConstraint) IsRange() bool {
	return c.Min != nil || c.Max != nil
}

// Validate checks that exactly one form is set and that ranges are sane.
func (c ParameterConstraint) Validate() error {
	forms := 0
	if c.Exact != nil {
		forms++
	}
	if c.Number != nil {
		forms++
	}
	if c.IsRange() {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("%w: expected one of value, number or {min,max}", ErrInvalidParameterShape)
	}
	for _, bound := range []*float64{c.Number, c.Min, c.Max} {
		if bound != nil && (math.IsNaN(*bound) || math.IsInf(*bound, 0)) {
			return fmt.Errorf("%w: non-finite number", ErrInvalidParameterShape)
		}
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return fmt.Errorf("%w: min %v is greater than max %v", ErrInvalidParameterShape, *c.Min, *c.Max)
	}
	return nil
}

// Matches reports whether a parameter row satisfies the constraint. The key
// is not compared.
func (c ParameterConstraint) Matches(p Parameter) bool {
	switch {
	case c.Exact != nil:
		return p.ParameterValue == *c.Exact
	case c.Number != nil:
		if p.NumericValue != nil && *p.NumericValue == *c.Number {
			return true
		}
		return p.ParameterValue == FormatNumber(*c.Number)
	case c.IsRange():
		if p.NumericValue == nil {
			return false
		}
		v := *p.NumericValue
		if c.Min != nil && v < *c.Min {
			return false
		}
		if c.Max != nil && v > *c.Max {
			return false
		}
		return true
	}
	return false
}

// FormatNumber renders n the way numeric parameter values are written.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// MarshalJSON renders the constraint in the request shape.
func (c ParameterConstraint) MarshalJSON() ([]byte, error) {
	switch {
	case c.Exact != nil:
		return json.Marshal(*c.Exact)
	case c.Number != nil:
		return json.Marshal(*c.Number)
	}
	r := struct {
		Min *float64 `json:"min,omitempty"`
		Max *float64 `json:"max,omitempty"`
	}{c.Min, c.Max}
	return json.Marshal(r)
}

// UnmarshalJSON accepts a string, a number, or an object with min and/or
// max numbers. Anything else is ErrInvalidParameterShape.
func (c *ParameterConstraint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: empty value", ErrInvalidParameterShape)
	}

	var out ParameterConstraint
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameterShape, err)
		}
		out.Exact = &s
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParameterShape, err)
		}
		for k, v := range raw {
			var n float64
			if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				return fmt.Errorf("%w: %s must be a number", ErrInvalidParameterShape, k)
			}
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("%w: %s must be a number", ErrInvalidParameterShape, k)
			}
			switch k {
			case "min":
				out.Min = &n
			case "max":
				out.Max = &n
			default:
				return fmt.Errorf("%w: unknown range bound %q", ErrInvalidParameterShape, k)
			}
		}
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: expected string, number or {min,max}", ErrInvalidParameterShape)
		}
		out.Number = &n
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*c = out
	return nil
}

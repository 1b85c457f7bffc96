package catalog

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PathSeparators are the delimiters legacy producers used when flattening a
// family path into one string, longest first so " / " wins over "/".
var PathSeparators = []string{" > ", " / ", ">", "/"}

// FamilyPath is a category path as found in storage. New data carries
// Labels in leaf-to-root order (Labels[0] is the most specific category).
// Legacy rows carry a single delimited Text instead, in display
// (root-to-leaf) order. Exactly one of the two is set on a non-zero value.
type FamilyPath struct {
	Labels []string
	Text   string
}

// PathOf builds a leaf-to-root path from labels.
func PathOf(labels ...string) FamilyPath {
	return FamilyPath{Labels: append([]string(nil), labels...)}
}

// TextPath builds a legacy single-string path.
func TextPath(s string) FamilyPath {
	return FamilyPath{Text: s}
}

// IsZero reports whether the path carries no label at all.
func (p FamilyPath) IsZero() bool {
	return len(p.Labels) == 0 && p.Text == ""
}

// IsText reports whether the path is a legacy single string.
func (p FamilyPath) IsText() bool {
	return len(p.Labels) == 0 && p.Text != ""
}

// Serialized is the representation kept in storage: compact JSON for label
// paths and the verbatim string for legacy ones.
func (p FamilyPath) Serialized() string {
	if p.IsText() {
		return p.Text
	}
	if len(p.Labels) == 0 {
		return "[]"
	}
	return encodeLabels(p.Labels)
}

// RootToLeaf returns the labels ordered from the top-level category down.
// Legacy strings are split on PathSeparators and kept in display order.
func (p FamilyPath) RootToLeaf() []string {
	if p.IsText() {
		return splitText(p.Text)
	}
	out := make([]string, 0, len(p.Labels))
	for i := len(p.Labels) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(p.Labels[i]); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// TopLevel returns the root category: the last stored label, or the first
// segment of a legacy string.
func (p FamilyPath) TopLevel() string {
	segs := p.RootToLeaf()
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

// NormalizeFamilyPath converts p to the canonical leaf-to-root label form,
// dropping blank labels. Legacy strings are split and reversed.
func NormalizeFamilyPath(p FamilyPath) FamilyPath {
	segs := p.RootToLeaf()
	if len(segs) == 0 {
		return FamilyPath{}
	}
	labels := make([]string, len(segs))
	for i, s := range segs {
		labels[len(segs)-1-i] = s
	}
	return FamilyPath{Labels: labels}
}

// ParseFamilyPath reads a stored representation: a JSON array of strings
// becomes Labels, anything else is kept as legacy Text.
func ParseFamilyPath(s string) FamilyPath {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") {
		var labels []string
		if err := json.Unmarshal([]byte(trimmed), &labels); err == nil {
			if len(labels) == 0 {
				return FamilyPath{}
			}
			return FamilyPath{Labels: labels}
		}
	}
	if trimmed == "" {
		return FamilyPath{}
	}
	return FamilyPath{Text: s}
}

// MarshalJSON renders label paths as arrays and legacy paths as strings.
func (p FamilyPath) MarshalJSON() ([]byte, error) {
	if p.IsText() {
		return json.Marshal(p.Text)
	}
	if p.Labels == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Labels)
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (p *FamilyPath) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*p = FamilyPath{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = FamilyPath{Text: s}
		return nil
	case data[0] == '[':
		var labels []string
		if err := json.Unmarshal(data, &labels); err != nil {
			return fmt.Errorf("family path: %w", err)
		}
		*p = FamilyPath{Labels: labels}
		return nil
	}
	return fmt.Errorf("family path: expected string or array, got %s", string(data))
}

// Value implements driver.Valuer.
func (p FamilyPath) Value() (driver.Value, error) {
	return p.Serialized(), nil
}

// Scan implements sql.Scanner.
func (p *FamilyPath) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = FamilyPath{}
	case string:
		*p = ParseFamilyPath(v)
	case []byte:
		*p = ParseFamilyPath(string(v))
	default:
		return fmt.Errorf("family path: cannot scan %T", src)
	}
	return nil
}

func encodeLabels(labels []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(labels); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}

func splitText(s string) []string {
	parts := []string{s}
	for _, sep := range PathSeparators {
		var next []string
		for _, part := range parts {
			next = append(next, strings.Split(part, sep)...)
		}
		parts = next
	}
	out := parts[:0]
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

package catalog

import (
	"encoding/json"
	"fmt"
	"io"
)

// Dataset is the ingestion payload: every record kind in one document.
type Dataset struct {
	Components  []Component           `json:"components"`
	Parameters  []Parameter           `json:"parameters"`
	Definitions []ParameterDefinition `json:"parameter_definitions"`
	Families    []Family              `json:"families"`
}

// DecodeDataset reads a JSON dataset.
func DecodeDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}

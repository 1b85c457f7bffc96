package bunstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/catalog"
)

// ImportOptions controls Import.
type ImportOptions struct {
	// NormalizePaths rewrites legacy delimited family paths into label
	// arrays as they are written.
	NormalizePaths bool

	// BatchSize bounds rows per insert statement.
	BatchSize int
}

// ImportResult counts what Import wrote.
type ImportResult struct {
	Components  int `json:"components"`
	Parameters  int `json:"parameters"`
	Definitions int `json:"definitions"`
	Families    int `json:"families"`
	Normalized  int `json:"normalized"`
}

const defaultBatchSize = 500

// Import upserts a dataset in one transaction. Components without an id get
// a random UUID. Parameters of every imported component are replaced.
func (s *Store) Import(ctx context.Context, ds catalog.Dataset, opts ImportOptions) (ImportResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	var res ImportResult
	components := make([]componentRecord, 0, len(ds.Components))
	ids := make([]string, 0, len(ds.Components))
	for _, c := range ds.Components {
		if c.ComponentID == "" {
			c.ComponentID = uuid.NewString()
		}
		if opts.NormalizePaths && c.FamilyPath.IsText() {
			c.FamilyPath = catalog.NormalizeFamilyPath(c.FamilyPath)
			res.Normalized++
		}
		components = append(components, toRecord(c))
		ids = append(ids, c.ComponentID)
	}

	params := make([]parameterRecord, 0, len(ds.Parameters))
	for _, p := range ds.Parameters {
		params = append(params, parameterRecord{
			ComponentID:    p.ComponentID,
			ParameterKey:   p.ParameterKey,
			ParameterValue: p.ParameterValue,
			NumericValue:   p.NumericValue,
		})
	}

	defs := make([]definitionRecord, 0, len(ds.Definitions))
	for _, d := range ds.Definitions {
		defs = append(defs, definitionRecord{
			ParameterKey: d.ParameterKey,
			Name:         d.Name,
			ShortName:    d.ShortName,
			Category:     d.Category,
		})
	}

	families := make([]familyRecord, 0, len(ds.Families))
	for _, f := range ds.Families {
		meta, err := json.Marshal(f.Meta)
		if err != nil {
			return ImportResult{}, fmt.Errorf("family %s: %w", f.FamilyPath.Serialized(), err)
		}
		if f.Meta == nil {
			meta = []byte("[]")
		}
		families = append(families, familyRecord{
			PathKey:    catalog.NormalizeFamilyPath(f.FamilyPath).Serialized(),
			FamilyPath: f.FamilyPath.Serialized(),
			Meta:       string(meta),
		})
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, batch := range chunk(components, opts.BatchSize) {
			_, err := tx.NewInsert().Model(&batch).
				On("CONFLICT (component_id) DO UPDATE").
				Set("part_number = EXCLUDED.part_number").
				Set("manufacturer_name = EXCLUDED.manufacturer_name").
				Set("family_path = EXCLUDED.family_path").
				Set("part_type = EXCLUDED.part_type").
				Set("quality_name = EXCLUDED.quality_name").
				Set("obsolescence_type = EXCLUDED.obsolescence_type").
				Set("has_stock = EXCLUDED.has_stock").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("components: %w", err)
			}
		}

		for _, batch := range chunk(ids, opts.BatchSize) {
			_, err := tx.NewDelete().Model((*parameterRecord)(nil)).
				Where("component_id IN (?)", bun.In(batch)).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("clear parameters: %w", err)
			}
		}
		for _, batch := range chunk(params, opts.BatchSize) {
			if _, err := tx.NewInsert().Model(&batch).Exec(ctx); err != nil {
				return fmt.Errorf("parameters: %w", err)
			}
		}

		for _, batch := range chunk(defs, opts.BatchSize) {
			_, err := tx.NewInsert().Model(&batch).
				On("CONFLICT (parameter_key) DO UPDATE").
				Set("name = EXCLUDED.name").
				Set("short_name = EXCLUDED.short_name").
				Set("category = EXCLUDED.category").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("definitions: %w", err)
			}
		}

		for _, batch := range chunk(families, opts.BatchSize) {
			_, err := tx.NewInsert().Model(&batch).
				On("CONFLICT (path_key) DO UPDATE").
				Set("family_path = EXCLUDED.family_path").
				Set("meta = EXCLUDED.meta").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("families: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, wrap(ctx, "import", err)
	}

	res.Components = len(components)
	res.Parameters = len(params)
	res.Definitions = len(defs)
	res.Families = len(families)
	s.logger.Info("catalog imported",
		zap.Int("components", res.Components),
		zap.Int("parameters", res.Parameters),
		zap.Int("definitions", res.Definitions),
		zap.Int("families", res.Families),
		zap.Int("normalized", res.Normalized),
	)
	return res, nil
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

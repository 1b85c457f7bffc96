package bunstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-component-search/catalog"
)

// List returns the components matching criteria and the total count before
// paging, mirroring repository.Repository.List.
func (s *Store) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]catalog.Component, int, error) {
	var rows []componentRecord
	total, err := apply(s.db.NewSelect().Model(&rows), criteria...).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, wrap(ctx, "list", err)
	}
	return components(rows), total, nil
}

func (s *Store) Find(ctx context.Context, filter catalog.Predicate, opts catalog.FindOptions) ([]catalog.Component, error) {
	var rows []componentRecord
	q := apply(s.db.NewSelect().Model(&rows), Filter(filter), OrderBy(opts.Sort), Paginate(opts.Offset, opts.Limit))
	if err := q.Scan(ctx); err != nil {
		return nil, wrap(ctx, "find", err)
	}
	return components(rows), nil
}

func (s *Store) Count(ctx context.Context, filter catalog.Predicate) (int, error) {
	n, err := apply(s.db.NewSelect().Model((*componentRecord)(nil)), Filter(filter)).Count(ctx)
	if err != nil {
		return 0, wrap(ctx, "count", err)
	}
	return n, nil
}

type scoredRecord struct {
	componentRecord
	Score float64 `bun:"score"`
}

func (s *Store) TextSearch(ctx context.Context, keyword string, offset, limit int) ([]catalog.ScoredComponent, int, error) {
	const scored = `SELECT *, text_score(part_number, manufacturer_name, part_type, family_path, ?) AS score FROM components`

	var total int
	err := s.db.NewRaw(`SELECT COUNT(*) FROM (`+scored+`) WHERE score > 0`, keyword).Scan(ctx, &total)
	if err != nil {
		return nil, 0, wrap(ctx, "text search", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	if limit <= 0 {
		limit = -1
	}
	var rows []scoredRecord
	err = s.db.NewRaw(
		`SELECT * FROM (`+scored+`) WHERE score > 0 ORDER BY score DESC, part_number ASC, component_id ASC LIMIT ? OFFSET ?`,
		keyword, limit, max(offset, 0),
	).Scan(ctx, &rows)
	if err != nil {
		return nil, 0, wrap(ctx, "text search", err)
	}

	out := make([]catalog.ScoredComponent, len(rows))
	for i, r := range rows {
		out[i] = catalog.ScoredComponent{Component: r.component(), Score: r.Score}
	}
	return out, total, nil
}

func (s *Store) ComponentByID(ctx context.Context, id string) (catalog.Component, error) {
	var row componentRecord
	err := s.db.NewSelect().Model(&row).Where("component_id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Component{}, fmt.Errorf("component %q: %w", id, catalog.ErrNotFound)
	}
	if err != nil {
		return catalog.Component{}, wrap(ctx, "component by id", err)
	}
	return row.component(), nil
}

func (s *Store) DistinctFamilyPaths(ctx context.Context, filter catalog.Predicate) ([]catalog.FamilyPath, error) {
	var raw []string
	q := apply(s.db.NewSelect().Model((*componentRecord)(nil)).Distinct().Column("family_path"), Filter(filter)).
		Where("family_path NOT IN ('', '[]')").
		Order("family_path")
	if err := q.Scan(ctx, &raw); err != nil {
		return nil, wrap(ctx, "distinct family paths", err)
	}

	out := make([]catalog.FamilyPath, 0, len(raw))
	for _, r := range raw {
		if p := catalog.ParseFamilyPath(r); !p.IsZero() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) DistinctManufacturers(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.NewSelect().Model((*componentRecord)(nil)).
		Distinct().
		Column("manufacturer_name").
		Where("manufacturer_name <> ''").
		Order("manufacturer_name").
		Scan(ctx, &names)
	if err != nil {
		return nil, wrap(ctx, "distinct manufacturers", err)
	}
	return names, nil
}

func (s *Store) ComponentIDsByParameter(ctx context.Context, key string, c catalog.ParameterConstraint) ([]string, error) {
	q := s.db.NewSelect().Model((*parameterRecord)(nil)).
		Distinct().
		Column("component_id").
		Where("parameter_key = ?", key)

	switch {
	case c.Exact != nil:
		q = q.Where("parameter_value = ?", *c.Exact)
	case c.Number != nil:
		q = q.Where("(numeric_value = ? OR parameter_value = ?)", *c.Number, catalog.FormatNumber(*c.Number))
	case c.IsRange():
		q = q.Where("numeric_value IS NOT NULL")
		if c.Min != nil {
			q = q.Where("numeric_value >= ?", *c.Min)
		}
		if c.Max != nil {
			q = q.Where("numeric_value <= ?", *c.Max)
		}
	default:
		return nil, fmt.Errorf("parameter %q: %w", key, catalog.ErrInvalidParameterShape)
	}

	var ids []string
	if err := q.Order("component_id").Scan(ctx, &ids); err != nil {
		return nil, wrap(ctx, "component ids by parameter", err)
	}
	return ids, nil
}

func (s *Store) ParametersFor(ctx context.Context, componentIDs []string) ([]catalog.Parameter, error) {
	if len(componentIDs) == 0 {
		return nil, nil
	}
	var rows []parameterRecord
	err := s.db.NewSelect().Model(&rows).
		Where("component_id IN (?)", bun.In(componentIDs)).
		Order("component_id", "id").
		Scan(ctx)
	if err != nil {
		return nil, wrap(ctx, "parameters for", err)
	}

	out := make([]catalog.Parameter, len(rows))
	for i, r := range rows {
		out[i] = catalog.Parameter{
			ComponentID:    r.ComponentID,
			ParameterKey:   r.ParameterKey,
			ParameterValue: r.ParameterValue,
			NumericValue:   r.NumericValue,
		}
	}
	return out, nil
}

func (s *Store) ParameterDefinitions(ctx context.Context) ([]catalog.ParameterDefinition, error) {
	var rows []definitionRecord
	if err := s.db.NewSelect().Model(&rows).Order("parameter_key").Scan(ctx); err != nil {
		return nil, wrap(ctx, "parameter definitions", err)
	}

	out := make([]catalog.ParameterDefinition, len(rows))
	for i, r := range rows {
		out[i] = catalog.ParameterDefinition{
			ParameterKey: r.ParameterKey,
			Name:         r.Name,
			ShortName:    r.ShortName,
			Category:     r.Category,
		}
	}
	return out, nil
}

func (s *Store) FamilyByPath(ctx context.Context, path catalog.FamilyPath) (catalog.Family, error) {
	key := catalog.NormalizeFamilyPath(path).Serialized()

	var row familyRecord
	err := s.db.NewSelect().Model(&row).Where("path_key = ?", key).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Family{}, fmt.Errorf("family %s: %w", key, catalog.ErrNotFound)
	}
	if err != nil {
		return catalog.Family{}, wrap(ctx, "family by path", err)
	}

	family := catalog.Family{FamilyPath: catalog.ParseFamilyPath(row.FamilyPath)}
	if err := json.Unmarshal([]byte(row.Meta), &family.Meta); err != nil {
		return catalog.Family{}, wrap(ctx, "family by path", err)
	}
	return family, nil
}

type tallyRecord struct {
	FamilyPath       string `bun:"family_path"`
	ManufacturerName string `bun:"manufacturer_name"`
	ObsolescenceType string `bun:"obsolescence_type"`
	HasStock         bool   `bun:"has_stock"`
	Count            int    `bun:"count"`
}

func (s *Store) Tally(ctx context.Context) ([]catalog.TallyRow, error) {
	var rows []tallyRecord
	err := s.db.NewSelect().Model((*componentRecord)(nil)).
		Column("family_path", "manufacturer_name", "obsolescence_type", "has_stock").
		ColumnExpr("COUNT(*) AS count").
		Group("family_path", "manufacturer_name", "obsolescence_type", "has_stock").
		Scan(ctx, &rows)
	if err != nil {
		return nil, wrap(ctx, "tally", err)
	}

	out := make([]catalog.TallyRow, len(rows))
	for i, r := range rows {
		out[i] = catalog.TallyRow{
			FamilyPath:       catalog.ParseFamilyPath(r.FamilyPath),
			ManufacturerName: r.ManufacturerName,
			ObsolescenceType: r.ObsolescenceType,
			HasStock:         r.HasStock,
			Count:            r.Count,
		}
	}
	return out, nil
}

func (s *Store) Suggest(ctx context.Context, prefix string, limit int) ([]catalog.Suggestion, error) {
	expr := catalog.PrefixPattern(prefix)
	out := []catalog.Suggestion{}

	for _, field := range []catalog.Field{catalog.FieldPartNumber, catalog.FieldManufacturerName} {
		remaining := limit - len(out)
		if limit > 0 && remaining <= 0 {
			break
		}

		var values []string
		q := s.db.NewSelect().Model((*componentRecord)(nil)).
			Distinct().
			ColumnExpr("?", bun.Ident(string(field))).
			Where("regexp(?, ?) = 1", expr, bun.Ident(string(field))).
			OrderExpr("? ASC", bun.Ident(string(field)))
		if limit > 0 {
			q = q.Limit(remaining)
		}
		if err := q.Scan(ctx, &values); err != nil {
			return nil, wrap(ctx, "suggest", err)
		}
		for _, v := range values {
			out = append(out, catalog.Suggestion{Field: field, Value: v})
		}
	}
	return out, nil
}

func components(rows []componentRecord) []catalog.Component {
	out := make([]catalog.Component, len(rows))
	for i, r := range rows {
		out[i] = r.component()
	}
	return out
}

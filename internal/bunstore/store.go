package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/catalog"
)

type componentRecord struct {
	bun.BaseModel `bun:"table:components"`

	ComponentID      string `bun:"component_id,pk"`
	PartNumber       string `bun:"part_number,notnull,default:''"`
	ManufacturerName string `bun:"manufacturer_name,notnull,default:''"`
	FamilyPath       string `bun:"family_path,type:text,notnull,default:'[]'"`
	PartType         string `bun:"part_type,notnull,default:''"`
	QualityName      string `bun:"quality_name,notnull,default:''"`
	ObsolescenceType string `bun:"obsolescence_type,notnull,default:''"`
	HasStock         bool   `bun:"has_stock,notnull,default:false"`
}

type parameterRecord struct {
	bun.BaseModel `bun:"table:parameters"`

	ID             int64    `bun:"id,pk,autoincrement"`
	ComponentID    string   `bun:"component_id,notnull"`
	ParameterKey   string   `bun:"parameter_key,notnull"`
	ParameterValue string   `bun:"parameter_value,notnull,default:''"`
	NumericValue   *float64 `bun:"numeric_value"`
}

type definitionRecord struct {
	bun.BaseModel `bun:"table:parameter_definitions"`

	ParameterKey string `bun:"parameter_key,pk"`
	Name         string `bun:"name,notnull,default:''"`
	ShortName    string `bun:"short_name,notnull,default:''"`
	Category     string `bun:"category,notnull,default:''"`
}

type familyRecord struct {
	bun.BaseModel `bun:"table:families"`

	// PathKey is the normalized serialized path, so lookups ignore the
	// stored representation.
	PathKey    string `bun:"path_key,pk"`
	FamilyPath string `bun:"family_path,type:text,notnull"`
	Meta       string `bun:"meta,type:text,notnull,default:'[]'"`
}

func toRecord(c catalog.Component) componentRecord {
	return componentRecord{
		ComponentID:      c.ComponentID,
		PartNumber:       c.PartNumber,
		ManufacturerName: c.ManufacturerName,
		FamilyPath:       c.FamilyPath.Serialized(),
		PartType:         c.PartType,
		QualityName:      c.QualityName,
		ObsolescenceType: c.ObsolescenceType,
		HasStock:         c.HasStock,
	}
}

func (r componentRecord) component() catalog.Component {
	return catalog.Component{
		ComponentID:      r.ComponentID,
		PartNumber:       r.PartNumber,
		ManufacturerName: r.ManufacturerName,
		FamilyPath:       catalog.ParseFamilyPath(r.FamilyPath),
		PartType:         r.PartType,
		QualityName:      r.QualityName,
		ObsolescenceType: r.ObsolescenceType,
		HasStock:         r.HasStock,
	}
}

// Config holds the connection settings.
type Config struct {
	// DSN is a go-sqlite3 data source, e.g. "file:catalog.db?_journal=WAL"
	// or "file:catalog?mode=memory&cache=shared".
	DSN string `yaml:"dsn" json:"dsn"`

	// SlowQuery is the duration above which queries log at warn level.
	SlowQuery time.Duration `yaml:"slow_query" json:"slow_query"`
}

// DefaultConfig returns an in-memory database.
func DefaultConfig() Config {
	return Config{
		DSN:       "file:catalog?mode=memory&cache=shared",
		SlowQuery: 200 * time.Millisecond,
	}
}

// Store is a catalog.Store over bun and SQLite.
type Store struct {
	db     *bun.DB
	logger *zap.Logger
}

var _ catalog.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to cfg.DSN, attaches the catalog SQL functions and creates
// the schema when missing.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("bunstore: dsn is required")
	}
	registerDriver()

	sqldb, err := sql.Open(DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("bunstore: open: %w", err)
	}
	if strings.Contains(cfg.DSN, "mode=memory") {
		// Shared-cache memory databases lock per table; one connection avoids SQLITE_LOCKED.
		sqldb.SetMaxOpenConns(1)
	}

	s := &Store{db: bun.NewDB(sqldb, sqlitedialect.New()), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.db.AddQueryHook(&queryLogger{logger: s.logger, slow: cfg.SlowQuery})

	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("bunstore: ping: %w", err)
	}
	if err := s.CreateSchema(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *bun.DB { return s.db }

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateSchema creates tables and indexes if they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	models := []any{
		(*componentRecord)(nil),
		(*parameterRecord)(nil),
		(*definitionRecord)(nil),
		(*familyRecord)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("bunstore: create table: %w", err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*componentRecord)(nil), "idx_components_part_number", "part_number"},
		{(*componentRecord)(nil), "idx_components_manufacturer_name", "manufacturer_name"},
		{(*parameterRecord)(nil), "idx_parameters_parameter_key", "parameter_key"},
		{(*parameterRecord)(nil), "idx_parameters_component_id", "component_id"},
	}
	for _, idx := range indexes {
		_, err := s.db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists().Exec(ctx)
		if err != nil {
			return fmt.Errorf("bunstore: create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// wrap maps driver errors onto the catalog taxonomy. Cancellation passes
// through unchanged.
func wrap(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", catalog.ErrStoreUnavailable, op, err)
}

// queryLogger is a bun query hook: failed and slow queries log at warn,
// everything else at debug.
type queryLogger struct {
	logger *zap.Logger
	slow   time.Duration
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.Duration("elapsed", elapsed),
		zap.String("query", event.Query),
	}

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		h.logger.Warn("catalog query failed", append(fields, zap.Error(event.Err))...)
	case h.slow > 0 && elapsed > h.slow:
		h.logger.Warn("slow catalog query", fields...)
	default:
		h.logger.Debug("catalog query", fields...)
	}
}

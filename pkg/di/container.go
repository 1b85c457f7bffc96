package di

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/cache"
	"github.com/goliatone/go-component-search/catalog"
	"github.com/goliatone/go-component-search/internal/bunstore"
	"github.com/goliatone/go-component-search/internal/config"
	"github.com/goliatone/go-component-search/internal/metrics"
	"github.com/goliatone/go-component-search/search"
)

// Container provides dependency injection for the search service.
// It owns the catalog store, the cache layer and the metrics collectors,
// and hands out a single engine built over them.
type Container struct {
	config        config.Config
	logger        *zap.Logger
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	db            *bunstore.Store
	store         catalog.Store
	cache         *cache.Layer
	keySerializer cache.KeySerializer
	engine        *search.Engine
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegistry registers collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Container) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// NewContainer opens the catalog store, connects the configured cache
// backend and builds the engine. Resources opened before a failure are
// released.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		config:        cfg,
		logger:        zap.NewNop(),
		keySerializer: cache.NewDefaultKeySerializer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	c.metrics = metrics.New(c.registry)

	db, err := bunstore.Open(ctx, cfg.Store, bunstore.WithLogger(c.logger.Named("store")))
	if err != nil {
		return nil, err
	}
	c.db = db
	c.store = metrics.InstrumentStore(db, c.metrics)

	cacheLogger := c.logger.Named("cache")
	backing, err := cache.NewStore(ctx, cfg.Cache, cacheLogger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	layer, err := cache.NewLayer(backing, cfg.Cache,
		cache.WithLogger(cacheLogger),
		cache.WithRecorder(c.metrics),
	)
	if err != nil {
		_ = backing.Close()
		_ = db.Close()
		return nil, err
	}
	c.cache = layer

	c.engine = search.New(c.store, c.cache,
		search.WithLogger(c.logger.Named("search")),
		search.WithRecorder(c.metrics),
		search.WithTTL(cfg.Cache.TTL),
		search.WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		search.WithKeySerializer(c.keySerializer),
	)

	c.logger.Info("container ready",
		zap.String("cache_backend", string(cfg.Cache.Backend)),
		zap.Bool("coalesce", cfg.Cache.Coalesce),
	)
	return c, nil
}

// NewContainerWithDefaults builds a container over config.Default().
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, config.Default(), opts...)
}

// Engine returns the singleton search engine.
func (c *Container) Engine() *search.Engine {
	return c.engine
}

// Store returns the instrumented catalog store the engine reads from.
func (c *Container) Store() catalog.Store {
	return c.store
}

// Database returns the bun store, for imports and schema work.
func (c *Container) Database() *bunstore.Store {
	return c.db
}

// CacheService returns the singleton cache layer.
func (c *Container) CacheService() cache.CacheService {
	return c.cache
}

// KeySerializer returns the serializer used for query hashes.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Registry returns the registry the collectors live on.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

// Seed imports ds into the catalog store and drops every cached search and
// metadata entry so the new rows are visible.
func (c *Container) Seed(ctx context.Context, ds catalog.Dataset, opts bunstore.ImportOptions) (bunstore.ImportResult, error) {
	res, err := c.db.Import(ctx, ds, opts)
	if err != nil {
		return res, err
	}
	c.engine.InvalidateSearchCache(ctx)
	c.engine.InvalidateMetadataCache(ctx)
	for _, comp := range ds.Components {
		if comp.ComponentID != "" {
			c.engine.InvalidateComponent(ctx, comp.ComponentID)
		}
	}
	return res, nil
}

// Close releases the cache backend and the database.
func (c *Container) Close() error {
	return errors.Join(c.cache.Close(), c.db.Close())
}

package cache

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-component-search/internal/cacheinfra"
)

// Backend selects the key/value store behind the cache layer.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Codec names accepted in Config.Codec.
const (
	CodecMsgpack = "msgpack"
	CodecJSON    = "json"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend Backend     `yaml:"backend"`
	Local   LocalConfig `yaml:"local"`
	Redis   RedisConfig `yaml:"redis"`
	TTL     TTLConfig   `yaml:"ttl"`
	Codec   string      `yaml:"codec"`

	// ScanBatchSize bounds both the SCAN count hint and each DEL batch of
	// DeletePattern.
	ScanBatchSize int64 `yaml:"scan_batch_size"`

	// Coalesce enables single-flight loading: concurrent misses on the same
	// key share one producer call.
	Coalesce bool `yaml:"coalesce"`
}

// LocalConfig mirrors the in-process sturdyc store options.
type LocalConfig struct {
	Capacity           int           `yaml:"capacity"`
	NumShards          int           `yaml:"num_shards"`
	MaxTTL             time.Duration `yaml:"max_ttl"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
	EvictionInterval   time.Duration `yaml:"eviction_interval"`
}

// RedisConfig mirrors the Redis store options.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// TTLConfig is the per-purpose expiry table.
type TTLConfig struct {
	Search           time.Duration `yaml:"search"`
	ComponentDetail  time.Duration `yaml:"component_detail"`
	Metadata         time.Duration `yaml:"metadata"`
	Suggestions      time.Duration `yaml:"suggestions"`
	Statistics       time.Duration `yaml:"statistics"`
	ManufacturerTree time.Duration `yaml:"manufacturer_tree"`
}

// DefaultTTLConfig returns the standard expiry table.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Search:           3600 * time.Second,
		ComponentDetail:  7200 * time.Second,
		Metadata:         86400 * time.Second,
		Suggestions:      1800 * time.Second,
		Statistics:       3600 * time.Second,
		ManufacturerTree: 3600 * time.Second,
	}
}

// Validate checks that every TTL is at least one second.
func (t TTLConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Search, validation.Required, validation.Min(time.Second)),
		validation.Field(&t.ComponentDetail, validation.Required, validation.Min(time.Second)),
		validation.Field(&t.Metadata, validation.Required, validation.Min(time.Second)),
		validation.Field(&t.Suggestions, validation.Required, validation.Min(time.Second)),
		validation.Field(&t.Statistics, validation.Required, validation.Min(time.Second)),
		validation.Field(&t.ManufacturerTree, validation.Required, validation.Min(time.Second)),
	)
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendMemory,
		Local:         convertLocalFromInternal(cacheinfra.DefaultLocalConfig()),
		Redis:         convertRedisFromInternal(cacheinfra.DefaultRedisConfig()),
		TTL:           DefaultTTLConfig(),
		Codec:         CodecMsgpack,
		ScanBatchSize: 100,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendMemory, BackendRedis)),
		validation.Field(&c.Codec, validation.Required, validation.In(CodecMsgpack, CodecJSON)),
		validation.Field(&c.ScanBatchSize, validation.Required, validation.Min(int64(1))),
	); err != nil {
		return err
	}
	if err := c.TTL.Validate(); err != nil {
		return fmt.Errorf("ttl: %w", err)
	}
	switch c.Backend {
	case BackendRedis:
		return c.Redis.toInternal().Validate()
	default:
		return c.Local.toInternal().Validate()
	}
}

// redisPingTimeout bounds the startup reachability check.
const redisPingTimeout = 5 * time.Second

// NewStore constructs the configured backing store. An unreachable Redis is
// logged and the store is returned anyway: the layer treats its failures as
// misses and the client reconnects once the server is back.
func NewStore(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case BackendRedis:
		store, err := cacheinfra.NewRedisStore(cfg.Redis.toInternal())
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			logger.Warn("redis unreachable, cache will miss until it recovers",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err),
			)
		}
		return store, nil
	default:
		return cacheinfra.NewLocalStore(cfg.Local.toInternal())
	}
}

func (c LocalConfig) toInternal() cacheinfra.LocalConfig {
	return cacheinfra.LocalConfig{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		MaxTTL:             c.MaxTTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertLocalFromInternal(cfg cacheinfra.LocalConfig) LocalConfig {
	return LocalConfig{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		MaxTTL:             cfg.MaxTTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}

func (c RedisConfig) toInternal() cacheinfra.RedisConfig {
	return cacheinfra.RedisConfig{
		Addr:         c.Addr,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

func convertRedisFromInternal(cfg cacheinfra.RedisConfig) RedisConfig {
	return RedisConfig{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

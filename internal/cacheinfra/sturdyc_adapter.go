package cacheinfra

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/viccon/sturdyc"
)

// LocalConfig holds the configuration for the in-process sturdyc store.
type LocalConfig struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 256
	NumShards int

	// MaxTTL is the sturdyc client TTL. Per-entry TTLs are enforced on read
	// and can only be shorter than this.
	MaxTTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultLocalConfig returns a LocalConfig sized for a single service
// instance. MaxTTL covers the longest metadata TTL.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		Capacity:           10000,
		NumShards:          256,
		MaxTTL:             24 * time.Hour,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the optional parts of the config to sturdyc
// options. Capacity, NumShards, MaxTTL and EvictionPercentage go to
// sturdyc.New directly.
func (c LocalConfig) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c LocalConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.MaxTTL <= 0 {
		return &ConfigError{Field: "MaxTTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Info describes the state of a backing store.
type Info struct {
	Backend     string
	Keys        int64
	MemoryBytes int64
	MemoryHuman string
}

type localEntry struct {
	data      []byte
	expiresAt time.Time
}

// LocalStore is an in-process key/value store on top of a sturdyc client.
// sturdyc has a single client-wide TTL, so every entry carries its own
// deadline and expired entries are treated as absent.
type LocalStore struct {
	client *sturdyc.Client[localEntry]
	maxTTL time.Duration
	now    func() time.Time

	// order is the hash-sorted key index Scan walks. It is rebuilt lazily
	// after a Set; deletes leave stale entries that Scan skips.
	mu     sync.Mutex
	order  []hashedKey
	dirty  atomic.Bool
	builds int
}

// NewLocalStore validates cfg and creates the sturdyc client.
func NewLocalStore(cfg LocalConfig) (*LocalStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[localEntry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.MaxTTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	s := &LocalStore{client: client, maxTTL: cfg.MaxTTL, now: time.Now}
	s.dirty.Store(true)
	return s, nil
}

func (s *LocalStore) load(key string) (localEntry, bool) {
	e, ok := s.client.Get(key)
	if !ok {
		return localEntry{}, false
	}
	if !e.expiresAt.After(s.now()) {
		s.client.Delete(key)
		return localEntry{}, false
	}
	return e, true
}

// Get returns the stored bytes for key.
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := s.load(key)
	if !ok {
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores value under key. A ttl of zero, or one longer than MaxTTL, is
// clamped to MaxTTL.
func (s *LocalStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > s.maxTTL {
		ttl = s.maxTTL
	}
	data := append([]byte(nil), value...)
	s.client.Set(key, localEntry{data: data, expiresAt: s.now().Add(ttl)})
	s.dirty.Store(true)
	return nil
}

// Delete removes keys and reports how many were live.
func (s *LocalStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	var n int64
	for _, key := range keys {
		if _, ok := s.load(key); ok {
			n++
		}
		s.client.Delete(key)
	}
	return n, nil
}

// Exists reports whether key holds a live entry.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.load(key)
	return ok, nil
}

// MGet returns the live entries among keys. Missing keys are omitted.
func (s *LocalStore) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if e, ok := s.load(key); ok {
			out[key] = e.data
		}
	}
	return out, nil
}

// MSet stores every entry with the same ttl.
func (s *LocalStore) MSet(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	for key, value := range entries {
		if err := s.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

type hashedKey struct {
	hash uint64
	key  string
}

// sortedKeys returns the key index ordered by xxhash, rebuilding it when a
// Set happened since the last build.
func (s *LocalStore) sortedKeys() []hashedKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty.Swap(false) {
		return s.order
	}
	all := s.client.ScanKeys()
	order := make([]hashedKey, 0, len(all))
	for _, key := range all {
		order = append(order, hashedKey{hash: xxhash.Sum64String(key), key: key})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].hash != order[j].hash {
			return order[i].hash < order[j].hash
		}
		return order[i].key < order[j].key
	})
	s.order = order
	s.builds++
	return order
}

// Scan walks the keyspace in xxhash order, count keys per call, returning
// those matching the glob pattern. The cursor is the hash of the next key to
// visit, so deleting already-visited keys never makes the walk skip others.
// A returned cursor of 0 ends the iteration. Without concurrent writes a
// full walk sorts the keyspace once and each page costs O(log N + count).
func (s *LocalStore) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	re, err := compileGlob(match)
	if err != nil {
		return nil, 0, err
	}
	if count <= 0 {
		count = 10
	}

	order := s.sortedKeys()
	i := sort.Search(len(order), func(i int) bool { return order[i].hash >= cursor })

	var keys []string
	for visited := int64(0); i < len(order) && visited < count; i, visited = i+1, visited+1 {
		hk := order[i]
		if !re.MatchString(hk.key) {
			continue
		}
		if _, ok := s.client.Get(hk.key); ok {
			keys = append(keys, hk.key)
		}
	}

	var next uint64
	if i < len(order) {
		next = order[i].hash
	}
	return keys, next, nil
}

// Info reports the live key count and the payload bytes they hold.
func (s *LocalStore) Info(ctx context.Context) (Info, error) {
	var keys, bytes int64
	for _, key := range s.client.ScanKeys() {
		if e, ok := s.load(key); ok {
			keys++
			bytes += int64(len(e.data))
		}
	}
	return Info{Backend: "memory", Keys: keys, MemoryBytes: bytes, MemoryHuman: humanBytes(bytes)}, nil
}

// Close is a no-op; the sturdyc client is garbage collected with the store.
func (s *LocalStore) Close() error {
	return nil
}

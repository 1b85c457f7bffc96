package cache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Recorder receives cache outcome events. internal/metrics implements it
// with Prometheus counters.
type Recorder interface {
	CacheHit(namespace string)
	CacheMiss(namespace string)
	CacheError(op string)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string)   {}
func (nopRecorder) CacheMiss(string)  {}
func (nopRecorder) CacheError(string) {}

// Stats is a snapshot of the layer counters and the backing store size.
type Stats struct {
	Backend     string  `json:"backend"`
	Keys        int64   `json:"keys"`
	MemoryBytes int64   `json:"memory_bytes"`
	MemoryHuman string  `json:"memory_human"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Errors      int64   `json:"errors"`
	HitRate     float64 `json:"hit_rate"`
	Available   bool    `json:"available"`
}

// Layer is the CacheService implementation. It encodes values with a Codec
// and stores bytes in a Store.
type Layer struct {
	store    Store
	codec    Codec
	ttl      TTLConfig
	batch    int64
	coalesce bool
	group    singleflight.Group

	flightsMu sync.Mutex
	flights   map[string]*flight

	logger   *zap.Logger
	recorder Recorder

	hits   *xsync.Counter
	misses *xsync.Counter
	errors *xsync.Counter
}

var _ CacheService = (*Layer)(nil)

// Option configures a Layer.
type Option func(*Layer)

// WithLogger sets the logger used for degraded store operations.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Layer) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithCodec overrides the codec selected by Config.Codec.
func WithCodec(c Codec) Option {
	return func(l *Layer) {
		if c != nil {
			l.codec = c
		}
	}
}

// NewLayer builds a cache layer over store.
func NewLayer(store Store, cfg Config, opts ...Option) (*Layer, error) {
	if store == nil {
		return nil, errors.New("cache: nil store")
	}
	codec, err := CodecFor(cfg.Codec)
	if err != nil {
		return nil, err
	}
	if cfg.TTL == (TTLConfig{}) {
		cfg.TTL = DefaultTTLConfig()
	}
	if cfg.ScanBatchSize <= 0 {
		cfg.ScanBatchSize = DefaultConfig().ScanBatchSize
	}

	l := &Layer{
		store:    store,
		codec:    codec,
		ttl:      cfg.TTL,
		batch:    cfg.ScanBatchSize,
		coalesce: cfg.Coalesce,
		flights:  map[string]*flight{},
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		hits:     xsync.NewCounter(),
		misses:   xsync.NewCounter(),
		errors:   xsync.NewCounter(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// TTL returns the expiry table.
func (l *Layer) TTL() TTLConfig { return l.ttl }

// Close releases the backing store.
func (l *Layer) Close() error { return l.store.Close() }

func (l *Layer) Get(ctx context.Context, key string, dest any) bool {
	data, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.fail("get", key, err)
		l.miss(key)
		return false
	}
	if !ok {
		l.miss(key)
		return false
	}
	if err := l.decode(data, dest); err != nil {
		l.fail("decode", key, err)
		l.miss(key)
		return false
	}
	l.hit(key)
	return true
}

func (l *Layer) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := l.codec.Marshal(value)
	if err != nil {
		l.fail("encode", key, err)
		return false
	}
	return l.write(ctx, key, data, ttl)
}

func (l *Layer) MGet(ctx context.Context, keys []string, dest func(key string) any) []string {
	if len(keys) == 0 {
		return nil
	}
	found, err := l.store.MGet(ctx, keys)
	if err != nil {
		l.fail("mget", keys[0], err)
		for _, key := range keys {
			l.miss(key)
		}
		return nil
	}

	hits := make([]string, 0, len(found))
	for _, key := range keys {
		data, ok := found[key]
		if !ok {
			l.miss(key)
			continue
		}
		if err := l.decode(data, dest(key)); err != nil {
			l.fail("decode", key, err)
			l.miss(key)
			continue
		}
		l.hit(key)
		hits = append(hits, key)
	}
	return hits
}

func (l *Layer) MSet(ctx context.Context, entries map[string]any, ttl time.Duration) bool {
	if len(entries) == 0 {
		return true
	}
	encoded := make(map[string][]byte, len(entries))
	for key, value := range entries {
		data, err := l.codec.Marshal(value)
		if err != nil {
			l.fail("encode", key, err)
			return false
		}
		encoded[key] = data
	}
	if err := l.store.MSet(ctx, encoded, ttl); err != nil {
		l.fail("mset", "", err)
		return false
	}
	return true
}

func (l *Layer) Delete(ctx context.Context, keys ...string) int64 {
	if len(keys) == 0 {
		return 0
	}
	n, err := l.store.Delete(ctx, keys...)
	if err != nil {
		l.fail("delete", keys[0], err)
		return 0
	}
	return n
}

func (l *Layer) Exists(ctx context.Context, key string) bool {
	ok, err := l.store.Exists(ctx, key)
	if err != nil {
		l.fail("exists", key, err)
		return false
	}
	return ok
}

// DeletePattern walks the keyspace with a cursor scan and deletes matches
// in batches. Keys written concurrently may survive.
func (l *Layer) DeletePattern(ctx context.Context, pattern string) int64 {
	var deleted int64
	var cursor uint64
	for {
		keys, next, err := l.store.Scan(ctx, cursor, pattern, l.batch)
		if err != nil {
			l.fail("scan", pattern, err)
			return deleted
		}
		for start := 0; start < len(keys); start += int(l.batch) {
			end := min(start+int(l.batch), len(keys))
			n, err := l.store.Delete(ctx, keys[start:end]...)
			if err != nil {
				l.fail("delete", pattern, err)
				return deleted
			}
			deleted += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	l.logger.Debug("cache pattern deleted",
		zap.String("pattern", pattern),
		zap.Int64("deleted", deleted),
	)
	return deleted
}

type fetched struct {
	value any
	data  []byte
}

// flight is the context shared by every caller coalesced on one key. It is
// canceled once the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (l *Layer) join(ctx context.Context, key string) *flight {
	l.flightsMu.Lock()
	defer l.flightsMu.Unlock()

	f, ok := l.flights[key]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		l.flights[key] = f
	}
	f.waiters++
	return f
}

func (l *Layer) leave(key string, f *flight) {
	l.flightsMu.Lock()
	defer l.flightsMu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if l.flights[key] == f {
		delete(l.flights, key)
		l.group.Forget(key)
	}
}

func (l *Layer) load(ctx context.Context, key string, ttl time.Duration, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	value, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}
	// A canceled request must not leave a partial result behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := l.codec.Marshal(value)
	if err != nil {
		l.fail("encode", key, err)
		return fetched{value: value}, nil
	}
	l.write(ctx, key, data, ttl)
	return fetched{value: value, data: data}, nil
}

// coalesced shares one producer call among concurrent callers of key. The
// call runs on a flight context that outlives any single caller; each caller
// stops waiting when its own context ends.
func (l *Layer) coalesced(ctx context.Context, key string, ttl time.Duration, fetchFn func(ctx context.Context) (any, error)) (any, error) {
	f := l.join(ctx, key)
	defer l.leave(key, f)

	ch := l.group.DoChan(key, func() (any, error) {
		return l.load(f.ctx, key, ttl, fetchFn)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Layer) GetOrFetch(ctx context.Context, key string, ttl time.Duration, dest any, fetchFn func(ctx context.Context) (any, error)) error {
	if l.Get(ctx, key, dest) {
		return nil
	}

	var res any
	var err error
	if l.coalesce {
		res, err = l.coalesced(ctx, key, ttl, fetchFn)
	} else {
		res, err = l.load(ctx, key, ttl, fetchFn)
	}
	if err != nil {
		return err
	}

	f := res.(fetched)
	if f.data != nil {
		if err := l.decode(f.data, dest); err == nil {
			return nil
		}
	}
	return assign(dest, f.value)
}

// Stats reports counters and store size. A failing store yields
// Available=false instead of an error.
func (l *Layer) Stats(ctx context.Context) Stats {
	hits, misses := l.hits.Value(), l.misses.Value()
	stats := Stats{
		Hits:   hits,
		Misses: misses,
		Errors: l.errors.Value(),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}

	info, err := l.store.Info(ctx)
	if err != nil {
		l.fail("info", "", err)
		return stats
	}
	stats.Available = true
	stats.Backend = info.Backend
	stats.Keys = info.Keys
	stats.MemoryBytes = info.MemoryBytes
	stats.MemoryHuman = info.MemoryHuman
	return stats
}

func (l *Layer) write(ctx context.Context, key string, data []byte, ttl time.Duration) bool {
	if err := l.store.Set(ctx, key, data, ttl); err != nil {
		l.fail("set", key, err)
		return false
	}
	return true
}

// decode resets dest before decoding so stale fields never leak through.
func (l *Layer) decode(data []byte, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("cache: destination must be a non-nil pointer, got %T", dest)
	}
	rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
	return l.codec.Unmarshal(data, dest)
}

func (l *Layer) hit(key string) {
	l.hits.Inc()
	l.recorder.CacheHit(Namespace(key))
}

func (l *Layer) miss(key string) {
	l.misses.Inc()
	l.recorder.CacheMiss(Namespace(key))
}

func (l *Layer) fail(op, key string, err error) {
	l.errors.Inc()
	l.recorder.CacheError(op)
	l.logger.Warn("cache operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}

// assign copies value into the pointer dest when the codec cannot be used.
func assign(dest any, value any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("cache: destination must be a non-nil pointer, got %T", dest)
	}
	target := rv.Elem()
	if value == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(target.Type()) {
		return fmt.Errorf("%w: cannot assign %T to %s", ErrInvalidResultType, value, target.Type())
	}
	target.Set(v)
	return nil
}

package cacheinfra

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(DefaultLocalConfig())
	if err != nil {
		t.Fatalf("NewLocalStore() failed: %v", err)
	}
	return store
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}
	if cfg.MaxTTL != 24*time.Hour {
		t.Errorf("expected MaxTTL to be 24h, got %v", cfg.MaxTTL)
	}
	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestLocalConfig_Validate(t *testing.T) {
	valid := DefaultLocalConfig()

	tests := []struct {
		name   string
		mutate func(*LocalConfig)
		field  string
	}{
		{"zero capacity", func(c *LocalConfig) { c.Capacity = 0 }, "Capacity"},
		{"zero shards", func(c *LocalConfig) { c.NumShards = 0 }, "NumShards"},
		{"zero ttl", func(c *LocalConfig) { c.MaxTTL = 0 }, "MaxTTL"},
		{"eviction too low", func(c *LocalConfig) { c.EvictionPercentage = 0 }, "EvictionPercentage"},
		{"eviction too high", func(c *LocalConfig) { c.EvictionPercentage = 101 }, "EvictionPercentage"},
		{"negative interval", func(c *LocalConfig) { c.EvictionInterval = -time.Second }, "EvictionInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error but got none")
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestNewLocalStore_InvalidConfig(t *testing.T) {
	if _, err := NewLocalStore(LocalConfig{}); err == nil {
		t.Error("expected error for zero config")
	}
}

func TestLocalStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	if _, ok, _ := store.Get(ctx, "missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	data, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(data) != "v" {
		t.Fatalf("expected hit with %q, got %q ok=%v err=%v", "v", data, ok, err)
	}

	exists, _ := store.Exists(ctx, "k")
	if !exists {
		t.Error("expected key to exist")
	}

	n, err := store.Delete(ctx, "k", "missing")
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted key, got %d", n)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestLocalStore_PerEntryExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	now := time.Now()
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "short", []byte("a"), time.Second)
	_ = store.Set(ctx, "long", []byte("b"), time.Hour)

	now = now.Add(2 * time.Second)

	if _, ok, _ := store.Get(ctx, "short"); ok {
		t.Error("expected short-lived entry to be expired")
	}
	if _, ok, _ := store.Get(ctx, "long"); !ok {
		t.Error("expected long-lived entry to survive")
	}
}

func TestLocalStore_MGetMSet(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	err := store.MSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Minute)
	if err != nil {
		t.Fatalf("MSet() failed: %v", err)
	}

	got, err := store.MGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("MGet() failed: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Errorf("unexpected MGet result: %v", got)
	}
}

func scanAll(t *testing.T, store *LocalStore, match string, count int64, onPage func([]string)) []string {
	t.Helper()
	var all []string
	var cursor uint64
	for i := 0; ; i++ {
		if i > 10000 {
			t.Fatal("scan did not terminate")
		}
		keys, next, err := store.Scan(context.Background(), cursor, match, count)
		if err != nil {
			t.Fatalf("Scan() failed: %v", err)
		}
		all = append(all, keys...)
		if onPage != nil {
			onPage(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(all)
	return all
}

func TestLocalStore_ScanMatchesGlob(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	for i := 0; i < 25; i++ {
		_ = store.Set(ctx, fmt.Sprintf("search:query:%02d", i), []byte("x"), time.Minute)
	}
	_ = store.Set(ctx, "search:category:Resistors/Fixed:1", []byte("x"), time.Minute)
	_ = store.Set(ctx, "meta:manufacturers", []byte("x"), time.Minute)

	got := scanAll(t, store, "search:*", 4, nil)
	if len(got) != 26 {
		t.Fatalf("expected 26 search keys, got %d: %v", len(got), got)
	}
	for _, key := range got {
		if !strings.HasPrefix(key, "search:") {
			t.Errorf("unexpected key %q", key)
		}
	}
}

func TestLocalStore_ScanToleratesDeletesDuringIteration(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	for i := 0; i < 100; i++ {
		_ = store.Set(ctx, fmt.Sprintf("search:%03d", i), []byte("x"), time.Minute)
	}

	seen := scanAll(t, store, "search:*", 7, func(keys []string) {
		_, _ = store.Delete(ctx, keys...)
	})
	if len(seen) != 100 {
		t.Errorf("expected to visit 100 keys, visited %d", len(seen))
	}

	info, _ := store.Info(ctx)
	if info.Keys != 0 {
		t.Errorf("expected empty store, got %d keys", info.Keys)
	}
}

func TestLocalStore_ScanSortsOncePerWalk(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	for i := 0; i < 200; i++ {
		_ = store.Set(ctx, fmt.Sprintf("search:%03d", i), []byte("x"), time.Minute)
	}

	seen := scanAll(t, store, "search:*", 5, func(keys []string) {
		_, _ = store.Delete(ctx, keys...)
	})
	if len(seen) != 200 {
		t.Fatalf("expected to visit 200 keys, visited %d", len(seen))
	}
	if store.builds != 1 {
		t.Errorf("expected the key index to be built once, got %d builds", store.builds)
	}

	if got := scanAll(t, store, "search:*", 5, nil); len(got) != 0 {
		t.Errorf("expected deleted keys to be skipped, got %v", got)
	}

	_ = store.Set(ctx, "search:new", []byte("x"), time.Minute)
	got := scanAll(t, store, "search:*", 5, nil)
	if len(got) != 1 || got[0] != "search:new" {
		t.Errorf("expected a write to be visible to the next walk, got %v", got)
	}
	if store.builds != 2 {
		t.Errorf("expected a rebuild after the write, got %d builds", store.builds)
	}
}

func TestCompileGlob(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"search:*", "search:query:abc", true},
		{"search:*", "search:category:Resistors/Fixed:1", true},
		{"search:*", "meta:statistics", false},
		{"meta:categories:tree*", "meta:categories:tree:manufacturer:yageo", true},
		{"component:detail:?", "component:detail:7", true},
		{"component:detail:?", "component:detail:17", false},
		{"key[ab]", "keyb", true},
		{"key[^ab]", "keya", false},
		{`literal\*`, "literal*", true},
		{"a.b", "axb", false},
		{"", "anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.key, func(t *testing.T) {
			re, err := compileGlob(tt.pattern)
			if err != nil {
				t.Fatalf("compileGlob() failed: %v", err)
			}
			if got := re.MatchString(tt.key); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseMemoryInfo(t *testing.T) {
	raw := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nused_memory_rss:2000\r\n"
	bytes, human := parseMemoryInfo(raw)
	if bytes != 1048576 {
		t.Errorf("expected 1048576 bytes, got %d", bytes)
	}
	if human != "1.00M" {
		t.Errorf("expected 1.00M, got %q", human)
	}
}

func TestHumanBytes(t *testing.T) {
	if got := humanBytes(512); got != "512B" {
		t.Errorf("expected 512B, got %s", got)
	}
	if got := humanBytes(2048); got != "2.00K" {
		t.Errorf("expected 2.00K, got %s", got)
	}
}

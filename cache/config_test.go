package cache

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.Backend)
	}
	if cfg.Codec != CodecMsgpack {
		t.Errorf("expected msgpack codec, got %s", cfg.Codec)
	}
	if cfg.TTL.Search != time.Hour {
		t.Errorf("expected search TTL 1h, got %v", cfg.TTL.Search)
	}
	if cfg.TTL.ComponentDetail != 2*time.Hour {
		t.Errorf("expected component TTL 2h, got %v", cfg.TTL.ComponentDetail)
	}
	if cfg.TTL.Metadata != 24*time.Hour {
		t.Errorf("expected metadata TTL 24h, got %v", cfg.TTL.Metadata)
	}
	if cfg.TTL.Suggestions != 30*time.Minute {
		t.Errorf("expected suggestions TTL 30m, got %v", cfg.TTL.Suggestions)
	}
	if cfg.Coalesce {
		t.Error("expected coalescing to be opt-in")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "memcached" }},
		{"unknown codec", func(c *Config) { c.Codec = "gob" }},
		{"zero batch", func(c *Config) { c.ScanBatchSize = 0 }},
		{"sub-second ttl", func(c *Config) { c.TTL.Search = time.Millisecond }},
		{"zero ttl", func(c *Config) { c.TTL.Statistics = 0 }},
		{"bad local config", func(c *Config) { c.Local.Capacity = 0 }},
		{"bad redis config", func(c *Config) { c.Backend = BackendRedis; c.Redis.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewStore_Memory(t *testing.T) {
	store, err := NewStore(context.Background(), DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	defer store.Close()

	info, err := store.Info(context.Background())
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if info.Backend != "memory" {
		t.Errorf("expected memory backend, got %s", info.Backend)
	}
}

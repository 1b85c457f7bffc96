package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockCacheService always misses and hands the configured result back.
type mockCacheService struct {
	result any
	err    error
}

func (m *mockCacheService) Get(ctx context.Context, key string, dest any) bool { return false }
func (m *mockCacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	return true
}
func (m *mockCacheService) MGet(ctx context.Context, keys []string, dest func(key string) any) []string {
	return nil
}
func (m *mockCacheService) MSet(ctx context.Context, entries map[string]any, ttl time.Duration) bool {
	return true
}
func (m *mockCacheService) Delete(ctx context.Context, keys ...string) int64       { return 0 }
func (m *mockCacheService) Exists(ctx context.Context, key string) bool            { return false }
func (m *mockCacheService) DeletePattern(ctx context.Context, pattern string) int64 { return 0 }
func (m *mockCacheService) Stats(ctx context.Context) Stats                        { return Stats{} }

func (m *mockCacheService) GetOrFetch(ctx context.Context, key string, ttl time.Duration, dest any, fetchFn func(ctx context.Context) (any, error)) error {
	if m.err != nil {
		return m.err
	}
	return assign(dest, m.result)
}

func TestGetOrFetch_NilInterfaceNoPanic(t *testing.T) {
	mock := &mockCacheService{result: nil}

	type SomeInterface interface {
		DoSomething() string
	}

	result, err := GetOrFetch[SomeInterface](context.Background(), mock, "test-key", time.Minute, func(ctx context.Context) (SomeInterface, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_NilPointerNoPanic(t *testing.T) {
	mock := &mockCacheService{result: (*string)(nil)}

	result, err := GetOrFetch[*string](context.Background(), mock, "test-key", time.Minute, func(ctx context.Context) (*string, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), mock, "test-key", time.Minute, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value (0) but got: %v", result)
	}
}

func TestGetOrFetch_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	mock := &mockCacheService{err: boom}

	_, err := GetOrFetch[string](context.Background(), mock, "test-key", time.Minute, func(ctx context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom but got: %v", err)
	}
}

func TestGetOrFetch_ValidResult(t *testing.T) {
	expectedValue := "test-value"
	mock := &mockCacheService{result: expectedValue}

	result, err := GetOrFetch[string](context.Background(), mock, "test-key", time.Minute, func(ctx context.Context) (string, error) {
		return expectedValue, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != expectedValue {
		t.Errorf("expected '%s' but got: '%s'", expectedValue, result)
	}
}

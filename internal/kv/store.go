package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

var ErrNotFound = errors.New("not found")

// Store is a string keyed store of string values. Every piece of dashboard
// state is persisted through it.
type Store interface {
	// Get returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key string) error
	// Scan calls fn for every key with the given prefix in key order.
	Scan(ctx context.Context, prefix string, fn func(key, value string) error) error
}

// LoadJSON decodes the value stored under key into a T. Missing keys and
// values that fail to decode yield fallback.
func LoadJSON[T any](ctx context.Context, store Store, key string, fallback T) T {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback
	} else if err != nil {
		slog.WarnContext(ctx, "load value", "key", key, "error", err)
		return fallback
	}
	if raw == "" || raw == "null" {
		return fallback
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		slog.WarnContext(ctx, "decode value", "key", key, "error", err)
		return fallback
	}
	return value
}

func SaveJSON(ctx context.Context, store Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

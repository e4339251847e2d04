package kv

import (
	"context"
	"strings"
)

var _ Store = &PrefixStore{}

// PrefixStore scopes every key of the underlying store under prefix.
type PrefixStore struct {
	next   Store
	prefix string
}

func WithPrefix(next Store, prefix string) *PrefixStore {
	return &PrefixStore{
		next:   next,
		prefix: prefix,
	}
}

func (s *PrefixStore) Get(ctx context.Context, key string) (string, error) {
	return s.next.Get(ctx, s.prefix+key)
}

func (s *PrefixStore) Set(ctx context.Context, key, value string) error {
	return s.next.Set(ctx, s.prefix+key, value)
}

func (s *PrefixStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, s.prefix+key)
}

func (s *PrefixStore) Scan(ctx context.Context, prefix string, fn func(key, value string) error) error {
	return s.next.Scan(ctx, s.prefix+prefix, func(key, value string) error {
		return fn(strings.TrimPrefix(key, s.prefix), value)
	})
}

package kv

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/studydash/internal/keys"
)

var _ Store = &EncryptedStore{}

// EncryptedStore encrypts values, keys stay in plain text so that prefix
// scans keep working.
type EncryptedStore struct {
	next Store
	key  *keys.Key
}

func WithEncryption(next Store, key *keys.Key) *EncryptedStore {
	return &EncryptedStore{
		next: next,
		key:  key,
	}
}

func (s *EncryptedStore) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.next.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return s.decrypt(raw)
}

func (s *EncryptedStore) Set(ctx context.Context, key, value string) error {
	encrypted, err := s.key.Encrypt([]byte(value))
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}
	return s.next.Set(ctx, key, base64.StdEncoding.EncodeToString(encrypted))
}

func (s *EncryptedStore) Delete(ctx context.Context, key string) error {
	return s.next.Delete(ctx, key)
}

func (s *EncryptedStore) Scan(ctx context.Context, prefix string, fn func(key, value string) error) error {
	return s.next.Scan(ctx, prefix, func(key, raw string) error {
		value, err := s.decrypt(raw)
		if err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		return fn(key, value)
	})
}

func (s *EncryptedStore) decrypt(raw string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	plaintext, err := s.key.Decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

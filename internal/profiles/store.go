package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/studydash/internal/keys"
	"github.com/studydash/internal/kv"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrMobileMismatch = errors.New("mobile number does not match")
)

const (
	byIDPrefix           = "profile/"
	byRegistrationPrefix = "registration/"
	dataPrefix           = "profiles/"
)

type Store struct {
	store         kv.Store
	encryptionKey *keys.Key
}

func NewStore(
	store kv.Store,
	encryptionKey *keys.Key,
) *Store {
	return &Store{
		store:         store,
		encryptionKey: encryptionKey,
	}
}

// Namespace returns the store holding the dashboard state of a profile.
func (s *Store) Namespace(id ID) kv.Store {
	return kv.WithPrefix(s.store, dataPrefix+string(id)+"/")
}

func (s *Store) decode(raw string) (*Profile, error) {
	var encoded EncodedProfile
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	profile, err := encoded.Decode(s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return profile, nil
}

func (s *Store) FindByID(ctx context.Context, id ID) (*Profile, error) {
	raw, err := s.store.Get(ctx, byIDPrefix+string(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return s.decode(raw)
}

func (s *Store) FindByRegistration(ctx context.Context, registration string) (*Profile, error) {
	id, err := s.store.Get(ctx, byRegistrationPrefix+NormalizeRegistration(registration))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, ID(id))
}

func (s *Store) Insert(ctx context.Context, profile *Profile) error {
	encoded, err := profile.Encode(s.encryptionKey)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, byIDPrefix+string(encoded.ID), string(data)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, byRegistrationPrefix+NormalizeRegistration(encoded.Registration), string(encoded.ID)); err != nil {
		return err
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*Profile, error) {
	var out []*Profile
	if err := s.store.Scan(ctx, byIDPrefix, func(_, value string) error {
		profile, err := s.decode(value)
		if err != nil {
			return err
		}
		out = append(out, profile)
		return nil
	}); err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *Profile) int {
		return strings.Compare(a.Registration, b.Registration)
	})
	return out, nil
}

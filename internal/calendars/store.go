package calendars

import (
	"context"
	"errors"
	"fmt"

	"github.com/studydash/internal/kv"
)

type Store struct {
	store kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{
		store: store,
	}
}

func (s *Store) InsertCalendar(ctx context.Context, calendar *Calendar) error {
	return kv.SaveJSON(ctx, s.store, idKey(calendar.ID), calendar)
}

var ErrNotFound = errors.New("not found")

func (s *Store) FindByID(ctx context.Context, id string) (*Calendar, error) {
	calendar := kv.LoadJSON[*Calendar](ctx, s.store, idKey(id), nil)
	if calendar == nil {
		return nil, ErrNotFound
	}
	return calendar, nil
}

func idKey(id string) string {
	return fmt.Sprintf("calendars/%s", id)
}

package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/profiles"
)

var ErrNotFound = errors.New("not found")

const (
	chatsPrefix      = "telegram/chats/"
	updatesOffsetKey = "telegram/updates/offset"
)

type Chat struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"first_name"`
	ProfileID profiles.ID `json:"profile_id,omitempty"`
}

type Store struct {
	store kv.Store
}

func NewStore(
	store kv.Store,
) *Store {
	return &Store{
		store: store,
	}
}

func (s *Store) InsertChat(ctx context.Context, chat *Chat) error {
	return kv.SaveJSON(ctx, s.store, fmt.Sprintf("%s%d", chatsPrefix, chat.ID), chat)
}

func (s *Store) FindChat(ctx context.Context, id int64) (*Chat, error) {
	chat := kv.LoadJSON[*Chat](ctx, s.store, fmt.Sprintf("%s%d", chatsPrefix, id), nil)
	if chat == nil {
		return nil, ErrNotFound
	}
	return chat, nil
}

func (s *Store) ListChats(ctx context.Context) ([]Chat, error) {
	chats := make([]Chat, 0)
	if err := s.store.Scan(ctx, chatsPrefix, func(_, value string) error {
		var chat Chat
		if err := json.Unmarshal([]byte(value), &chat); err != nil {
			return err
		}
		chats = append(chats, chat)
		return nil
	}); err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *Store) ListChatsByProfile(ctx context.Context, profileID profiles.ID) ([]Chat, error) {
	chats, err := s.ListChats(ctx)
	if err != nil {
		return nil, err
	}
	linked := make([]Chat, 0, len(chats))
	for _, chat := range chats {
		if chat.ProfileID == profileID {
			linked = append(linked, chat)
		}
	}
	return linked, nil
}

func (s *Store) SetUpdatesOffset(ctx context.Context, offset int) error {
	return s.store.Set(ctx, updatesOffsetKey, strconv.Itoa(offset))
}

func (s *Store) GetUpdatesOffset(ctx context.Context) (int, error) {
	value, err := s.store.Get(ctx, updatesOffsetKey)
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	offset, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse offset: %w", err)
	}
	return offset, nil
}

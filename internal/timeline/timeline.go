package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/timezone"
)

const (
	Key = "actionLog"

	MaxEntries    = 50
	DefaultRecent = 5
)

type Entry struct {
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}

// Log is an audit trail of user actions, newest first.
type Log struct {
	store kv.Store
	clock timezone.Clock
}

func New(store kv.Store, clock timezone.Clock) *Log {
	return &Log{
		store: store,
		clock: clock,
	}
}

func (l *Log) Entries(ctx context.Context) []Entry {
	return kv.LoadJSON(ctx, l.store, Key, []Entry{})
}

// Append prepends an entry and drops everything past MaxEntries.
func (l *Log) Append(ctx context.Context, text string) (*Entry, error) {
	entry := Entry{
		ID:   uuid.NewString(),
		At:   l.clock.Now(),
		Text: text,
	}
	entries := append([]Entry{entry}, l.Entries(ctx)...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	if err := kv.SaveJSON(ctx, l.store, Key, entries); err != nil {
		return nil, fmt.Errorf("save action log: %w", err)
	}
	return &entry, nil
}

func (l *Log) Appendf(ctx context.Context, format string, args ...any) (*Entry, error) {
	return l.Append(ctx, fmt.Sprintf(format, args...))
}

// Recent returns up to limit entries, DefaultRecent when limit is not positive.
func (l *Log) Recent(ctx context.Context, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultRecent
	}
	entries := l.Entries(ctx)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

package timeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/timezone"
)

func TestAppendIsBoundedNewestFirst(t *testing.T) {
	ctx := context.Background()
	clock := timezone.NewFixedClock(time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC))
	log := New(kv.NewMemoryStore(), clock)

	for i := 0; i < 60; i++ {
		if _, err := log.Appendf(ctx, "action %d", i); err != nil {
			t.Fatal(err)
		}
		clock.Add(time.Minute)
	}

	entries := log.Entries(ctx)
	if len(entries) != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, len(entries))
	}
	if entries[0].Text != "action 59" {
		t.Fatalf("expected newest first, got %q", entries[0].Text)
	}
	if entries[len(entries)-1].Text != "action 10" {
		t.Fatalf("expected oldest dropped, got %q", entries[len(entries)-1].Text)
	}
	if !entries[0].At.After(entries[1].At) {
		t.Fatal("expected timestamps to follow insertion order")
	}

	ids := map[string]bool{}
	for _, entry := range entries {
		if ids[entry.ID] {
			t.Fatalf("duplicate id %s", entry.ID)
		}
		ids[entry.ID] = true
	}
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	log := New(kv.NewMemoryStore(), timezone.NewFixedClock(time.Now()))
	for i := 0; i < 8; i++ {
		if _, err := log.Append(ctx, fmt.Sprint(i)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: DefaultRecent},
		{limit: -1, want: DefaultRecent},
		{limit: 3, want: 3},
		{limit: 100, want: 8},
	}
	for _, tt := range tests {
		if got := log.Recent(ctx, tt.limit); len(got) != tt.want {
			t.Fatalf("limit %d: expected %d entries, got %d", tt.limit, tt.want, len(got))
		}
	}
}

func TestEntriesCorruptLog(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	if err := store.Set(ctx, Key, "not json"); err != nil {
		t.Fatal(err)
	}
	log := New(store, timezone.NewFixedClock(time.Now()))
	if got := log.Entries(ctx); len(got) != 0 {
		t.Fatalf("expected empty log, got %v", got)
	}
	if _, err := log.Append(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}
	if got := log.Entries(ctx); len(got) != 1 {
		t.Fatalf("expected one entry, got %v", got)
	}
}

package xp

import (
	"context"
	"math"
	"testing"

	"github.com/studydash/internal/kv"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{xp: 0, want: 1},
		{xp: 499, want: 1},
		{xp: 500, want: 2},
		{xp: 1199, want: 2},
		{xp: 1200, want: 3},
		{xp: 2500, want: 4},
		{xp: 4500, want: 5},
		{xp: 6999, want: 5},
		{xp: 7000, want: 6},
		{xp: 1_000_000, want: 6},
		{xp: -5, want: 1},
	}
	for _, tt := range tests {
		if got := Level(tt.xp); got != tt.want {
			t.Fatalf("Level(%d): expected %d, got %d", tt.xp, tt.want, got)
		}
	}
}

func TestLevelIsMonotonic(t *testing.T) {
	previous := Level(0)
	for xp := 1; xp <= 8000; xp++ {
		level := Level(xp)
		if level < previous {
			t.Fatalf("level decreased at %d", xp)
		}
		previous = level
	}
}

func TestProgressOf(t *testing.T) {
	p := ProgressOf(850)
	if p.Level != 2 || p.CurrentLevelXP != 500 || p.NextLevelXP != 1200 {
		t.Fatalf("unexpected progress %+v", p)
	}
	if p.Fraction != 0.5 {
		t.Fatalf("expected half way, got %f", p.Fraction)
	}

	top := ProgressOf(9000)
	if top.Level != 6 || top.CurrentLevelXP != 7000 || top.NextLevelXP != 7000 {
		t.Fatalf("unexpected top progress %+v", top)
	}
	if !top.MaxLevelReached || math.IsNaN(top.Fraction) || math.IsInf(top.Fraction, 0) {
		t.Fatalf("unexpected top fraction %+v", top)
	}
}

func TestTrackerIgnoresInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(kv.NewMemoryStore())

	if _, err := tracker.Add(ctx, 100); err != nil {
		t.Fatal(err)
	}
	for _, amount := range []float64{-10, math.NaN(), math.Inf(1), math.Inf(-1), 0, 0.4} {
		total, err := tracker.Add(ctx, amount)
		if err != nil {
			t.Fatal(err)
		}
		if total != 100 {
			t.Fatalf("Add(%v): expected 100, got %d", amount, total)
		}
	}
	if got := tracker.Total(ctx); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestTrackerFloorsAmounts(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	tracker := NewTracker(store)

	if _, err := tracker.Add(ctx, 10.9); err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.Add(ctx, 490.2); err != nil {
		t.Fatal(err)
	}
	if got := tracker.Total(ctx); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
	if value, err := store.Get(ctx, Key); err != nil || value != "500" {
		t.Fatalf("expected stringified 500, got %q %v", value, err)
	}
	if got := tracker.Progress(ctx).Level; got != 2 {
		t.Fatalf("expected level 2, got %d", got)
	}
}

func TestTrackerCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	if err := store.Set(ctx, Key, "lots"); err != nil {
		t.Fatal(err)
	}
	tracker := NewTracker(store)
	if got := tracker.Total(ctx); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if total, err := tracker.Add(ctx, 5); err != nil || total != 5 {
		t.Fatalf("expected 5, got %d %v", total, err)
	}
}

package xp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/studydash/internal/kv"
)

const Key = "xp_total"

// Thresholds is the minimum XP of each level, level 1 first.
var Thresholds = [...]int{0, 500, 1200, 2500, 4500, 7000}

const (
	PresentReward    = 10
	AssignmentReward = 50
)

// Level returns 1 plus the number of thresholds reached, capped at the
// highest level.
func Level(xp int) int {
	level := 0
	for _, threshold := range Thresholds {
		if xp >= threshold {
			level++
		}
	}
	return min(max(level, 1), len(Thresholds))
}

type Progress struct {
	XP              int     `json:"xp"`
	Level           int     `json:"level"`
	CurrentLevelXP  int     `json:"current_level_xp"`
	NextLevelXP     int     `json:"next_level_xp"`
	Fraction        float64 `json:"fraction"`
	MaxLevelReached bool    `json:"max_level_reached"`
}

// ProgressOf describes how far xp is between the current and next level.
// At the top level the next threshold saturates.
func ProgressOf(xp int) Progress {
	level := Level(xp)
	floor := Thresholds[level-1]
	next := Thresholds[min(level, len(Thresholds)-1)]
	fraction := float64(xp-floor) / float64(max(1, next-floor))
	return Progress{
		XP:              xp,
		Level:           level,
		CurrentLevelXP:  floor,
		NextLevelXP:     next,
		Fraction:        min(max(fraction, 0), 1),
		MaxLevelReached: level == len(Thresholds),
	}
}

type Tracker struct {
	store kv.Store
}

func NewTracker(store kv.Store) *Tracker {
	return &Tracker{
		store: store,
	}
}

// Total returns the accumulated XP. A missing or unreadable value is 0.
func (t *Tracker) Total(ctx context.Context) int {
	value, err := t.store.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return 0
	} else if err != nil {
		slog.WarnContext(ctx, "failed to read xp", "error", err)
		return 0
	}
	total, err := strconv.Atoi(value)
	if err != nil || total < 0 {
		slog.WarnContext(ctx, "invalid xp value", "value", value)
		return 0
	}
	return total
}

// Add floors amount and adds it. Amounts that are not finite and positive
// are ignored.
func (t *Tracker) Add(ctx context.Context, amount float64) (int, error) {
	total := t.Total(ctx)
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return total, nil
	}
	gained := int(math.Floor(amount))
	if gained == 0 {
		return total, nil
	}
	total += gained
	if err := t.store.Set(ctx, Key, strconv.Itoa(total)); err != nil {
		return 0, fmt.Errorf("save xp: %w", err)
	}
	return total, nil
}

func (t *Tracker) Progress(ctx context.Context) Progress {
	return ProgressOf(t.Total(ctx))
}

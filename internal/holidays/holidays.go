package holidays

import (
	"context"
	"fmt"
	"slices"

	"github.com/studydash/internal/dates"
	"github.com/studydash/internal/kv"
)

const CustomKey = "custom_holidays"

// builtin is the static national calendar. Festival dates are approximate.
var builtin = map[int][]string{
	2024: {"2024-01-26", "2024-08-15", "2024-10-02", "2024-11-01", "2024-12-25"},
	2025: {
		"2025-01-26", // Republic Day
		"2025-03-14", // Holi
		"2025-08-15", // Independence Day
		"2025-10-02", // Gandhi Jayanti
		"2025-10-20", // Diwali
		"2025-12-25", // Christmas
	},
}

// Builtin returns the static holidays of a year.
func Builtin(year int) []string {
	return slices.Clone(builtin[year])
}

// Set is a snapshot of the holiday union.
type Set map[string]bool

func (s Set) IsHoliday(date string) bool {
	return s[date]
}

type Store struct {
	store kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{
		store: store,
	}
}

func (s *Store) Custom(ctx context.Context) []string {
	return kv.LoadJSON(ctx, s.store, CustomKey, []string{})
}

func (s *Store) SetCustom(ctx context.Context, dd []string) error {
	seen := make(map[string]bool, len(dd))
	unique := make([]string, 0, len(dd))
	for _, d := range dd {
		if seen[d] {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
	}
	return kv.SaveJSON(ctx, s.store, CustomKey, unique)
}

// Toggle adds date to the custom list, or removes it when already there.
// It reports whether the date is a custom holiday afterwards. Malformed
// dates are ignored.
func (s *Store) Toggle(ctx context.Context, date string) (bool, error) {
	if _, err := dates.Parse(date); err != nil {
		return false, nil
	}
	custom := s.Custom(ctx)
	on := !slices.Contains(custom, date)
	if on {
		custom = append(custom, date)
	} else {
		custom = slices.DeleteFunc(custom, func(d string) bool { return d == date })
	}
	if err := s.SetCustom(ctx, custom); err != nil {
		return false, fmt.Errorf("set custom: %w", err)
	}
	return on, nil
}

// Snapshot returns every builtin and custom holiday.
func (s *Store) Snapshot(ctx context.Context) Set {
	set := Set{}
	for _, dd := range builtin {
		for _, d := range dd {
			set[d] = true
		}
	}
	for _, d := range s.Custom(ctx) {
		set[d] = true
	}
	return set
}

// Year lists the holidays of a year, sorted.
func (s *Store) Year(ctx context.Context, year int) []string {
	prefix := fmt.Sprintf("%04d-", year)
	var out []string
	for d := range s.Snapshot(ctx) {
		if len(d) > len(prefix) && d[:len(prefix)] == prefix {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out
}

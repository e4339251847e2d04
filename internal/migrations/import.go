package migrations

import (
	"context"
	"fmt"
	"slices"

	"github.com/studydash/internal/assignments"
	"github.com/studydash/internal/attendance"
	"github.com/studydash/internal/holidays"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/study"
	"github.com/studydash/internal/timeline"
	"github.com/studydash/internal/timer"
	"github.com/studydash/internal/xp"
)

// importable lists the keys a browser dump may carry.
var importable = append([]string{
	attendance.SubjectsKey,
	attendance.TimetableKey,
	attendance.RecordsKey,
	attendance.CycleKey,
	holidays.CustomKey,
	study.HistoryKey,
	study.PerSubjectKey,
	timeline.Key,
	xp.Key,
	assignments.Key,
	timer.Key,
}, legacyTimerKeys...)

// Import writes the known keys of a browser store dump and migrates the
// result. Unknown keys are skipped. It returns the imported keys, sorted.
func Import(ctx context.Context, store kv.Store, values map[string]string) ([]string, error) {
	var imported []string
	for key, value := range values {
		if !slices.Contains(importable, key) {
			continue
		}
		if err := store.Set(ctx, key, value); err != nil {
			return nil, fmt.Errorf("set %q: %w", key, err)
		}
		imported = append(imported, key)
	}
	slices.Sort(imported)
	if err := Run(ctx, store); err != nil {
		return nil, err
	}
	return imported, nil
}

package migrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/profiles"
	"github.com/studydash/internal/timer"
)

// Legacy timer keys, one value per key.
const (
	timerStartTimeKey  = "timerStartTime"
	timerElapsedKey    = "timerElapsed"
	timerIsRunningKey  = "timerIsRunning"
	pomodoroFocusKey   = "pomodoroFocus"
	pomodoroBreakKey   = "pomodoroBreak"
	selectedSubjectKey = "selectedSubject"
	lastSavedKey       = "lastSaved"
)

var legacyTimerKeys = []string{
	timerStartTimeKey,
	timerElapsedKey,
	timerIsRunningKey,
	pomodoroFocusKey,
	pomodoroBreakKey,
	selectedSubjectKey,
	lastSavedKey,
}

// Run migrates the state of a single profile.
func Run(ctx context.Context, store kv.Store) error {
	if err := foldTimerKeys(ctx, store); err != nil {
		return fmt.Errorf("fold timer keys: %w", err)
	}
	return nil
}

// RunAll migrates the state of every profile.
func RunAll(ctx context.Context, profilesStore *profiles.Store) error {
	pp, err := profilesStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	for _, profile := range pp {
		if err := Run(ctx, profilesStore.Namespace(profile.ID)); err != nil {
			return fmt.Errorf("migrate profile %q: %w", profile.ID, err)
		}
	}
	return nil
}

func foldTimerKeys(ctx context.Context, store kv.Store) error {
	legacy := map[string]string{}
	for _, key := range legacyTimerKeys {
		value, err := store.Get(ctx, key)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		} else if err != nil {
			return fmt.Errorf("get %q: %w", key, err)
		}
		legacy[key] = value
	}
	if len(legacy) == 0 {
		return nil
	}

	if _, err := store.Get(ctx, timer.Key); errors.Is(err, kv.ErrNotFound) {
		state := timerState(legacy)
		if err := kv.SaveJSON(ctx, store, timer.Key, state); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("get %q: %w", timer.Key, err)
	}

	var errs []error
	for key := range legacy {
		if err := store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %q: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	slog.InfoContext(ctx, "timer keys migrated", "keys", len(legacy))
	return nil
}

func timerState(legacy map[string]string) timer.State {
	state := timer.DefaultState()
	if minutes, err := strconv.Atoi(legacy[pomodoroFocusKey]); err == nil && minutes > 0 {
		state.FocusMinutes = minutes
	}
	if minutes, err := strconv.Atoi(legacy[pomodoroBreakKey]); err == nil && minutes > 0 {
		state.BreakMinutes = minutes
	}
	state.Subject = legacy[selectedSubjectKey]
	if elapsed, err := strconv.Atoi(legacy[timerElapsedKey]); err == nil && elapsed > 0 {
		state.Elapsed = elapsed
	}
	if saved, err := strconv.Atoi(legacy[lastSavedKey]); err == nil && saved > 0 {
		state.Credited = min(saved, state.Elapsed)
	}
	startedAt, err := strconv.ParseInt(legacy[timerStartTimeKey], 10, 64)
	if legacy[timerIsRunningKey] == "true" && err == nil && startedAt > 0 {
		t := time.UnixMilli(startedAt)
		state.StartedAt = &t
		state.Running = true
	}
	return state
}

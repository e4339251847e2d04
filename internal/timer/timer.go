package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/timezone"
)

const (
	Key = "timer_state"

	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
)

type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

type State struct {
	Mode         Mode       `json:"mode"`
	FocusMinutes int        `json:"focus_minutes"`
	BreakMinutes int        `json:"break_minutes"`
	Subject      string     `json:"subject,omitempty"`
	Running      bool       `json:"running"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	// Elapsed is the number of seconds in the current phase while paused.
	Elapsed int `json:"elapsed"`
	// Credited is the number of seconds of the current focus phase already
	// recorded as study time.
	Credited int `json:"credited"`
}

func DefaultState() State {
	return State{
		Mode:         ModeFocus,
		FocusMinutes: DefaultFocusMinutes,
		BreakMinutes: DefaultBreakMinutes,
	}
}

// Limit is the length of the current phase in seconds.
func (s State) Limit() int {
	if s.Mode == ModeBreak {
		return s.BreakMinutes * 60
	}
	return s.FocusMinutes * 60
}

func (s State) elapsedAt(now time.Time) int {
	if !s.Running || s.StartedAt == nil {
		return s.Elapsed
	}
	return max(0, int(now.Sub(*s.StartedAt)/time.Second))
}

type Status struct {
	State
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

// FocusSession is study time produced by the timer.
type FocusSession struct {
	Subject string
	// Seconds not yet recorded as study time.
	Seconds int
	// Limit is the full length of the focus phase.
	Limit int
	// Completed is set when the focus phase ran to its end, and unset when
	// the timer was paused part way.
	Completed bool
}

type FocusRecorder interface {
	RecordFocus(context.Context, FocusSession) error
}

type Timer struct {
	store    kv.Store
	clock    timezone.Clock
	recorder FocusRecorder
}

func New(store kv.Store, clock timezone.Clock, recorder FocusRecorder) *Timer {
	return &Timer{
		store:    store,
		clock:    clock,
		recorder: recorder,
	}
}

func (t *Timer) load(ctx context.Context) State {
	state := kv.LoadJSON(ctx, t.store, Key, DefaultState())
	if state.Mode != ModeFocus && state.Mode != ModeBreak {
		state.Mode = ModeFocus
	}
	if state.FocusMinutes <= 0 {
		state.FocusMinutes = DefaultFocusMinutes
	}
	if state.BreakMinutes <= 0 {
		state.BreakMinutes = DefaultBreakMinutes
	}
	return state
}

func (t *Timer) save(ctx context.Context, state State) error {
	if err := kv.SaveJSON(ctx, t.store, Key, state); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

// advance completes the current phase if it has run out. At most one phase
// completes per call and the next phase starts now.
func (t *Timer) advance(ctx context.Context, state State) (State, bool, error) {
	now := t.clock.Now()
	if !state.Running || state.elapsedAt(now) < state.Limit() {
		return state, false, nil
	}
	if state.Mode == ModeFocus {
		limit := state.Limit()
		if limit > 0 && t.recorder != nil {
			if err := t.recorder.RecordFocus(ctx, FocusSession{
				Subject:   state.Subject,
				Seconds:   max(0, limit-state.Credited),
				Limit:     limit,
				Completed: true,
			}); err != nil {
				return state, false, fmt.Errorf("record focus: %w", err)
			}
		}
		state.Mode = ModeBreak
	} else {
		state.Mode = ModeFocus
	}
	state.StartedAt = &now
	state.Elapsed = 0
	state.Credited = 0
	return state, true, nil
}

func (t *Timer) status(state State) *Status {
	elapsed := min(state.elapsedAt(t.clock.Now()), state.Limit())
	state.Elapsed = elapsed
	return &Status{
		State:     state,
		Limit:     state.Limit(),
		Remaining: state.Limit() - elapsed,
	}
}

// Status evaluates the timer, completing a finished phase.
func (t *Timer) Status(ctx context.Context) (*Status, error) {
	state, changed, err := t.advance(ctx, t.load(ctx))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := t.save(ctx, state); err != nil {
			return nil, err
		}
	}
	return t.status(state), nil
}

// Start resumes the current phase from where it was paused.
func (t *Timer) Start(ctx context.Context) (*Status, error) {
	state, _, err := t.advance(ctx, t.load(ctx))
	if err != nil {
		return nil, err
	}
	if !state.Running {
		startedAt := t.clock.Now().Add(-time.Duration(state.Elapsed) * time.Second)
		state.StartedAt = &startedAt
		state.Running = true
	}
	if err := t.save(ctx, state); err != nil {
		return nil, err
	}
	return t.status(state), nil
}

// credit records the focus seconds elapsed since the last credit as study
// time of the current subject.
func (t *Timer) credit(ctx context.Context, state *State) error {
	if !state.Running || state.Mode != ModeFocus {
		return nil
	}
	elapsed := state.elapsedAt(t.clock.Now())
	diff := elapsed - state.Credited
	if diff <= 0 {
		return nil
	}
	if t.recorder != nil {
		if err := t.recorder.RecordFocus(ctx, FocusSession{
			Subject: state.Subject,
			Seconds: diff,
			Limit:   state.Limit(),
		}); err != nil {
			return fmt.Errorf("record focus: %w", err)
		}
	}
	state.Credited = elapsed
	return nil
}

// Pause stops the timer. In focus mode the seconds elapsed since the last
// credit are recorded as study time.
func (t *Timer) Pause(ctx context.Context) (*Status, error) {
	state, _, err := t.advance(ctx, t.load(ctx))
	if err != nil {
		return nil, err
	}
	if state.Running {
		if err := t.credit(ctx, &state); err != nil {
			return nil, err
		}
		state.Running = false
		state.Elapsed = state.elapsedAt(t.clock.Now())
	}
	if err := t.save(ctx, state); err != nil {
		return nil, err
	}
	return t.status(state), nil
}

// Reset stops the timer and clears the current phase. Settings are kept.
func (t *Timer) Reset(ctx context.Context) (*Status, error) {
	state := t.load(ctx)
	state.Running = false
	state.StartedAt = nil
	state.Elapsed = 0
	state.Credited = 0
	if err := t.save(ctx, state); err != nil {
		return nil, err
	}
	return t.status(state), nil
}

// Configure changes the phase lengths and the subject. Non-positive
// minutes keep the current value. Switching the subject of a running focus
// phase credits the time so far to the previous subject.
func (t *Timer) Configure(ctx context.Context, focusMinutes, breakMinutes int, subject string) (*Status, error) {
	state, _, err := t.advance(ctx, t.load(ctx))
	if err != nil {
		return nil, err
	}
	if subject != state.Subject {
		if err := t.credit(ctx, &state); err != nil {
			return nil, err
		}
	}
	if focusMinutes > 0 {
		state.FocusMinutes = focusMinutes
	}
	if breakMinutes > 0 {
		state.BreakMinutes = breakMinutes
	}
	state.Subject = subject
	if err := t.save(ctx, state); err != nil {
		return nil, err
	}
	return t.status(state), nil
}

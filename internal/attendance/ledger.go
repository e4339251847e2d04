package attendance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/studydash/internal/dates"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/timezone"
)

const (
	SubjectsKey  = "att_subjects"
	TimetableKey = "att_timetable"
	RecordsKey   = "att_records"
	CycleKey     = "att_active_cycle"
)

// Ledger owns subjects, the weekly timetable, per date records and the
// active cycle.
type Ledger struct {
	store kv.Store
	clock timezone.Clock
}

func NewLedger(store kv.Store, clock timezone.Clock) *Ledger {
	return &Ledger{
		store: store,
		clock: clock,
	}
}

func (l *Ledger) today() string {
	return dates.Format(l.clock.Now())
}

func (l *Ledger) Subjects(ctx context.Context) []Subject {
	return kv.LoadJSON(ctx, l.store, SubjectsKey, []Subject{})
}

func (l *Ledger) Subject(ctx context.Context, id string) (*Subject, bool) {
	for _, subject := range l.Subjects(ctx) {
		if subject.ID == id {
			return &subject, true
		}
	}
	return nil, false
}

func (l *Ledger) Timetable(ctx context.Context) Timetable {
	return kv.LoadJSON(ctx, l.store, TimetableKey, Timetable{})
}

func (l *Ledger) Records(ctx context.Context) Records {
	return kv.LoadJSON(ctx, l.store, RecordsKey, Records{})
}

// Cycle returns the active cycle, by default the current week so far.
func (l *Ledger) Cycle(ctx context.Context) Cycle {
	return kv.LoadJSON(ctx, l.store, CycleKey, Cycle{
		Start: dates.StartOfWeek(l.clock.Now()),
	})
}

// AddSubject creates a subject, blank names are ignored.
func (l *Ledger) AddSubject(ctx context.Context, name string) (*Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	subject := Subject{
		ID:        NewSubjectID(),
		Name:      name,
		Resources: []string{},
	}
	subjects := append(l.Subjects(ctx), subject)
	if err := kv.SaveJSON(ctx, l.store, SubjectsKey, subjects); err != nil {
		return nil, fmt.Errorf("save subjects: %w", err)
	}
	return &subject, nil
}

// RemoveSubject deletes the subject and takes it out of every timetable
// slot. Its records stay, they are inert without a slot.
func (l *Ledger) RemoveSubject(ctx context.Context, id string) error {
	subjects := slices.DeleteFunc(l.Subjects(ctx), func(s Subject) bool { return s.ID == id })
	if err := kv.SaveJSON(ctx, l.store, SubjectsKey, subjects); err != nil {
		return fmt.Errorf("save subjects: %w", err)
	}
	timetable := l.Timetable(ctx)
	for weekday, ids := range timetable {
		timetable[weekday] = slices.DeleteFunc(ids, func(sid string) bool { return sid == id })
	}
	if err := kv.SaveJSON(ctx, l.store, TimetableKey, timetable); err != nil {
		return fmt.Errorf("save timetable: %w", err)
	}
	return nil
}

func (l *Ledger) updateSubject(ctx context.Context, id string, fn func(*Subject)) error {
	subjects := l.Subjects(ctx)
	i := slices.IndexFunc(subjects, func(s Subject) bool { return s.ID == id })
	if i < 0 {
		return nil
	}
	fn(&subjects[i])
	return kv.SaveJSON(ctx, l.store, SubjectsKey, subjects)
}

func (l *Ledger) AddResource(ctx context.Context, subjectID, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	return l.updateSubject(ctx, subjectID, func(s *Subject) {
		s.Resources = append(s.Resources, url)
	})
}

func (l *Ledger) RemoveResource(ctx context.Context, subjectID string, index int) error {
	return l.updateSubject(ctx, subjectID, func(s *Subject) {
		if index < 0 || index >= len(s.Resources) {
			return
		}
		s.Resources = slices.Delete(s.Resources, index, index+1)
	})
}

// ToggleSlot schedules the subject on weekday, or unschedules it if it is
// already there.
func (l *Ledger) ToggleSlot(ctx context.Context, weekday time.Weekday, subjectID string) error {
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil
	}
	if _, ok := l.Subject(ctx, subjectID); !ok {
		return nil
	}
	timetable := l.Timetable(ctx)
	slots := timetable[weekday]
	if slices.Contains(slots, subjectID) {
		slots = slices.DeleteFunc(slots, func(sid string) bool { return sid == subjectID })
	} else {
		slots = append(slots, subjectID)
	}
	timetable[weekday] = slots
	return kv.SaveJSON(ctx, l.store, TimetableKey, timetable)
}

// Scheduled returns the existing subjects of date's weekday in slot order.
func (l *Ledger) Scheduled(ctx context.Context, date string) []Subject {
	weekday, ok := dates.Weekday(date)
	if !ok {
		return nil
	}
	subjects := l.Subjects(ctx)
	var out []Subject
	for _, id := range l.Timetable(ctx)[weekday] {
		i := slices.IndexFunc(subjects, func(s Subject) bool { return s.ID == id })
		if i >= 0 {
			out = append(out, subjects[i])
		}
	}
	return out
}

// SetStatus records status for a subject on date and returns the status
// that was recorded before. Unknown statuses and malformed dates are
// ignored.
func (l *Ledger) SetStatus(ctx context.Context, date, subjectID string, status Status) (Status, error) {
	if !status.Valid() {
		return "", nil
	}
	if _, err := dates.Parse(date); err != nil {
		return "", nil
	}
	records := l.Records(ctx)
	marks := records[date]
	if marks == nil {
		marks = map[string]Status{}
		records[date] = marks
	}
	previous := marks[subjectID]
	marks[subjectID] = status
	if err := kv.SaveJSON(ctx, l.store, RecordsKey, records); err != nil {
		return "", fmt.Errorf("save records: %w", err)
	}
	return previous, nil
}

// MarkDayLeave records a leave for every subject scheduled on date.
func (l *Ledger) MarkDayLeave(ctx context.Context, date string) ([]Subject, error) {
	scheduled := l.Scheduled(ctx, date)
	if len(scheduled) == 0 {
		return nil, nil
	}
	records := l.Records(ctx)
	marks := records[date]
	if marks == nil {
		marks = map[string]Status{}
		records[date] = marks
	}
	for _, subject := range scheduled {
		marks[subject.ID] = StatusLeave
	}
	if err := kv.SaveJSON(ctx, l.store, RecordsKey, records); err != nil {
		return nil, fmt.Errorf("save records: %w", err)
	}
	return scheduled, nil
}

// SetCycle replaces the active cycle. Records are kept, only the window
// changes.
func (l *Ledger) SetCycle(ctx context.Context, cycle Cycle) error {
	if _, err := dates.Parse(cycle.Start); err != nil {
		return nil
	}
	if cycle.End != nil {
		if _, err := dates.Parse(*cycle.End); err != nil {
			return nil
		}
	}
	return kv.SaveJSON(ctx, l.store, CycleKey, cycle)
}

// Range resolves the active cycle into a date range.
func (l *Ledger) Range(ctx context.Context) (string, string) {
	cycle := l.Cycle(ctx)
	end := l.today()
	if cycle.End != nil {
		end = *cycle.End
	}
	return cycle.Start, end
}

// Stats computes the statistics of the active cycle.
func (l *Ledger) Stats(ctx context.Context, holidays HolidayChecker) Stats {
	start, end := l.Range(ctx)
	return ComputeStats(l.Subjects(ctx), l.Timetable(ctx), l.Records(ctx), holidays, start, end)
}

// Clear removes all attendance data and starts a fresh cycle today.
func (l *Ledger) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{SubjectsKey, TimetableKey, RecordsKey, CycleKey} {
		if err := l.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %q: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return l.SetCycle(ctx, Cycle{Start: l.today()})
}

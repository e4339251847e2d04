package study

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/studydash/internal/dates"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/timezone"
)

const (
	HistoryKey    = "studyHistory"
	PerSubjectKey = "studyPerSubject"

	streakLookback = 365
)

// History maps an ISO date to the seconds studied that day.
type History map[string]int

// PerSubjectHistory maps an ISO date to seconds studied per subject label.
type PerSubjectHistory map[string]map[string]int

type Day struct {
	Name    string `json:"name"`
	Seconds int    `json:"seconds"`
}

type DayMinutes struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

type DateSeconds struct {
	Date    string `json:"date"`
	Seconds int    `json:"seconds"`
}

type SubjectTotal struct {
	Subject string `json:"subject"`
	Seconds int    `json:"seconds"`
}

type Aggregator struct {
	store kv.Store
	clock timezone.Clock
}

func NewAggregator(store kv.Store, clock timezone.Clock) *Aggregator {
	return &Aggregator{
		store: store,
		clock: clock,
	}
}

func (a *Aggregator) today() string {
	return dates.Format(a.clock.Now())
}

func (a *Aggregator) History(ctx context.Context) History {
	return kv.LoadJSON(ctx, a.store, HistoryKey, History{})
}

func (a *Aggregator) PerSubjectHistory(ctx context.Context) PerSubjectHistory {
	return kv.LoadJSON(ctx, a.store, PerSubjectKey, PerSubjectHistory{})
}

// AddSession adds seconds to today's total and, when subject is not empty,
// to today's total for that subject. Values are added as given.
func (a *Aggregator) AddSession(ctx context.Context, seconds int, subject string) error {
	today := a.today()

	history := a.History(ctx)
	history[today] += seconds
	if err := kv.SaveJSON(ctx, a.store, HistoryKey, history); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	if subject == "" {
		return nil
	}
	perSubject := a.PerSubjectHistory(ctx)
	if perSubject[today] == nil {
		perSubject[today] = map[string]int{}
	}
	perSubject[today][subject] += seconds
	if err := kv.SaveJSON(ctx, a.store, PerSubjectKey, perSubject); err != nil {
		return fmt.Errorf("save per subject history: %w", err)
	}
	return nil
}

// Weekly folds the whole history by weekday, Sunday first. This is a
// lifetime distribution, not the current week.
func (a *Aggregator) Weekly(ctx context.Context) [7]Day {
	var weekly [7]Day
	for d := time.Sunday; d <= time.Saturday; d++ {
		weekly[d].Name = d.String()[:3]
	}
	for date, seconds := range a.History(ctx) {
		weekday, ok := dates.Weekday(date)
		if !ok {
			continue
		}
		weekly[weekday].Seconds += seconds
	}
	return weekly
}

func (a *Aggregator) WeeklyMinutes(ctx context.Context) [7]DayMinutes {
	var out [7]DayMinutes
	for i, day := range a.Weekly(ctx) {
		out[i] = DayMinutes{Name: day.Name, Minutes: day.Seconds / 60}
	}
	return out
}

// Streak counts consecutive days with study time, ending today.
func (a *Aggregator) Streak(ctx context.Context) int {
	history := a.History(ctx)
	now := a.clock.Now()
	streak := 0
	for i := 0; i < streakLookback; i++ {
		if history[dates.Format(now.AddDate(0, 0, -i))] <= 0 {
			break
		}
		streak++
	}
	return streak
}

func (a *Aggregator) Today(ctx context.Context) int {
	return a.History(ctx)[a.today()]
}

// Heatmap returns the last days of history, oldest first, today included.
func (a *Aggregator) Heatmap(ctx context.Context, days int) []DateSeconds {
	history := a.History(ctx)
	now := a.clock.Now()
	out := make([]DateSeconds, 0, max(0, days))
	for i := days - 1; i >= 0; i-- {
		date := dates.Format(now.AddDate(0, 0, -i))
		out = append(out, DateSeconds{Date: date, Seconds: history[date]})
	}
	return out
}

// SubjectTotals sums the per subject history over all dates, largest first.
func (a *Aggregator) SubjectTotals(ctx context.Context) []SubjectTotal {
	totals := map[string]int{}
	for _, subjects := range a.PerSubjectHistory(ctx) {
		for subject, seconds := range subjects {
			totals[subject] += seconds
		}
	}
	out := make([]SubjectTotal, 0, len(totals))
	for subject, seconds := range totals {
		out = append(out, SubjectTotal{Subject: subject, Seconds: seconds})
	}
	slices.SortFunc(out, func(a, b SubjectTotal) int {
		if a.Seconds != b.Seconds {
			return b.Seconds - a.Seconds
		}
		if a.Subject < b.Subject {
			return -1
		}
		return 1
	})
	return out
}

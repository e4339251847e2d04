package statistics

import (
	"context"
	"slices"
	"time"

	"github.com/studydash/internal/dates"
	"github.com/studydash/internal/study"
	"github.com/studydash/internal/timezone"
)

type HistorySource interface {
	History(context.Context) study.History
	PerSubjectHistory(context.Context) study.PerSubjectHistory
}

type Service struct {
	source HistorySource
	clock  timezone.Clock
}

func NewService(
	source HistorySource,
	clock timezone.Clock,
) *Service {
	return &Service{
		source: source,
		clock:  clock,
	}
}

func (s *Service) CalculateYear(ctx context.Context, year int) *Year {
	stats := &Year{
		Months: make([]int, 12),
	}
	for _, entry := range s.entries(ctx) {
		if entry.Date.Year() != year {
			continue
		}
		stats.Seconds += entry.Seconds
		stats.Months[entry.Date.Month()-1] += entry.Seconds
	}
	stats.Subjects = s.subjects(ctx, func(t time.Time) bool {
		return t.Year() == year
	})
	return stats
}

func (s *Service) CalculateYearMonth(ctx context.Context, year int, month time.Month) *Month {
	stats := &Month{}
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	weekIndex := map[int]int{}
	for d := monthStart; d.Before(monthStart.AddDate(0, 1, 0)); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		if _, ok := weekIndex[week]; !ok {
			weekIndex[week] = len(weekIndex)
			stats.Weeks = append(stats.Weeks, Week{
				Number: week,
			})
		}
	}
	for _, entry := range s.entries(ctx) {
		if entry.Date.Year() != year {
			continue
		}
		if entry.Date.Month() != month {
			continue
		}
		_, week := entry.Date.ISOWeek()
		stats.Seconds += entry.Seconds
		stats.Weeks[weekIndex[week]].Seconds += entry.Seconds
	}
	stats.Subjects = s.subjects(ctx, func(t time.Time) bool {
		return t.Year() == year && t.Month() == month
	})
	return stats
}

// CalculateYearWeek rolls up the seven days of an ISO week, Monday first.
func (s *Service) CalculateYearWeek(ctx context.Context, year int, week int) *YearWeek {
	monday := isoWeekStart(year, week)
	stats := &YearWeek{
		Days: make([]Day, 7),
	}
	for i := range stats.Days {
		stats.Days[i].Date = dates.Format(monday.AddDate(0, 0, i))
	}
	inWeek := func(t time.Time) bool {
		y, w := t.ISOWeek()
		return y == year && w == week
	}
	for _, entry := range s.entries(ctx) {
		if !inWeek(entry.Date) {
			continue
		}
		stats.Seconds += entry.Seconds
		stats.Days[int(entry.Date.Sub(monday).Hours()/24)].Seconds += entry.Seconds
	}
	stats.Subjects = s.subjects(ctx, inWeek)
	return stats
}

func isoWeekStart(year int, week int) time.Time {
	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(week-1)*7)
}

type entry struct {
	Date    time.Time
	Seconds int
}

// entries lists the study history up to today, malformed dates skipped.
func (s *Service) entries(ctx context.Context) []entry {
	now := s.clock.Now()
	history := s.source.History(ctx)
	out := make([]entry, 0, len(history))
	for date, seconds := range history {
		t, err := dates.Parse(date)
		if err != nil {
			continue
		}
		if dates.Format(t) > dates.Format(now) {
			continue
		}
		out = append(out, entry{Date: t, Seconds: seconds})
	}
	return out
}

func (s *Service) subjects(ctx context.Context, include func(time.Time) bool) []Subject {
	totals := map[string]int{}
	for date, bySubject := range s.source.PerSubjectHistory(ctx) {
		t, err := dates.Parse(date)
		if err != nil || !include(t) {
			continue
		}
		for name, seconds := range bySubject {
			totals[name] += seconds
		}
	}
	subjects := make([]Subject, 0, len(totals))
	for name, seconds := range totals {
		subjects = append(subjects, Subject{
			Name:    name,
			Seconds: seconds,
		})
	}
	slices.SortFunc(subjects, func(a, b Subject) int {
		if a.Seconds != b.Seconds {
			return b.Seconds - a.Seconds
		}
		if a.Name < b.Name {
			return -1
		}
		return 1
	})
	return subjects
}

package dates

import (
	"time"
)

const Layout = time.DateOnly

// Format returns the calendar date of t in t's location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse returns midnight UTC of the given date.
func Parse(date string) (time.Time, error) {
	return time.Parse(Layout, date)
}

func Weekday(date string) (time.Weekday, bool) {
	t, err := Parse(date)
	if err != nil {
		return 0, false
	}
	return t.Weekday(), true
}

func AddDays(date string, days int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, days)), nil
}

// Range lists every date from start to end inclusive. An end before start
// yields no dates.
func Range(start, end string) ([]string, error) {
	from, err := Parse(start)
	if err != nil {
		return nil, err
	}
	to, err := Parse(end)
	if err != nil {
		return nil, err
	}
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, Format(d))
	}
	return out, nil
}

// StartOfWeek returns the Sunday on or before t.
func StartOfWeek(t time.Time) string {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Format(day.AddDate(0, 0, -int(day.Weekday())))
}

// MonthMatrix lists the dates of every week touching the month, weeks
// starting on Sunday.
func MonthMatrix(year int, month time.Month) []string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, Format(d))
	}
	return out
}

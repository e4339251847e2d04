package dates

import (
	"testing"
	"time"
)

func TestRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{name: "single day", start: "2025-03-03", end: "2025-03-03", want: 1},
		{name: "one week", start: "2025-03-02", end: "2025-03-08", want: 7},
		{name: "across month", start: "2025-02-27", end: "2025-03-02", want: 4},
		{name: "leap year", start: "2024-02-28", end: "2024-03-01", want: 3},
		{name: "reversed", start: "2025-03-08", end: "2025-03-02", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Range(tt.start, tt.end)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d dates, got %v", tt.want, got)
			}
			if tt.want > 0 && (got[0] != tt.start || got[len(got)-1] != tt.end) {
				t.Fatalf("expected range %s..%s, got %v", tt.start, tt.end, got)
			}
		})
	}

	if _, err := Range("not-a-date", "2025-01-01"); err == nil {
		t.Fatal("expected error for malformed start")
	}
}

func TestStartOfWeek(t *testing.T) {
	// Wednesday
	now := time.Date(2025, time.March, 5, 18, 30, 0, 0, time.UTC)
	if got := StartOfWeek(now); got != "2025-03-02" {
		t.Fatalf("expected 2025-03-02, got %s", got)
	}
	// Sunday stays
	sunday := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	if got := StartOfWeek(sunday); got != "2025-03-02" {
		t.Fatalf("expected 2025-03-02, got %s", got)
	}
}

func TestMonthMatrix(t *testing.T) {
	// March 2025 starts on Saturday and ends on Monday.
	got := MonthMatrix(2025, time.March)
	if len(got)%7 != 0 {
		t.Fatalf("expected whole weeks, got %d days", len(got))
	}
	if got[0] != "2025-02-23" {
		t.Fatalf("expected 2025-02-23 first, got %s", got[0])
	}
	if got[len(got)-1] != "2025-04-05" {
		t.Fatalf("expected 2025-04-05 last, got %s", got[len(got)-1])
	}
}

func TestWeekday(t *testing.T) {
	day, ok := Weekday("2025-03-03")
	if !ok || day != time.Monday {
		t.Fatalf("expected Monday, got %v %v", day, ok)
	}
	if _, ok := Weekday("03/03/2025"); ok {
		t.Fatal("expected malformed date to be rejected")
	}
}

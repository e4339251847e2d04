package dashboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/studydash/internal/assignments"
	"github.com/studydash/internal/attendance"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/timezone"
)

func newService(t *testing.T) (*Service, *timezone.FixedClock) {
	t.Helper()
	// Wednesday
	clock := timezone.NewFixedClock(time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC))
	return New(kv.NewMemoryStore(), clock, 0), clock
}

func addScheduledSubject(t *testing.T, s *Service, name string, days ...time.Weekday) *attendance.Subject {
	t.Helper()
	ctx := context.Background()
	subject, err := s.Ledger.AddSubject(ctx, name)
	if err != nil {
		t.Fatal(err)
	}
	for _, day := range days {
		if err := s.Ledger.ToggleSlot(ctx, day, subject.ID); err != nil {
			t.Fatal(err)
		}
	}
	return subject
}

func TestMarkAttendanceAwardsXPOnTransitionToPresent(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	math := addScheduledSubject(t, s, "Math", time.Monday, time.Wednesday)

	for _, status := range []attendance.Status{
		attendance.StatusPresent,
		attendance.StatusPresent,
		attendance.StatusAbsent,
		attendance.StatusPresent,
	} {
		if err := s.MarkAttendance(ctx, "2025-03-05", math.ID, status); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.XP.Total(ctx); got != 20 {
		t.Fatalf("expected 20 XP, got %d", got)
	}

	// ignored input
	for _, tt := range []struct {
		date, subject string
		status        attendance.Status
	}{
		{"2025-03-03", "missing", attendance.StatusPresent},
		{"yesterday", math.ID, attendance.StatusPresent},
		{"2025-03-03", math.ID, "Late"},
	} {
		if err := s.MarkAttendance(ctx, tt.date, tt.subject, tt.status); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.XP.Total(ctx); got != 20 {
		t.Fatalf("expected ignored marks to keep 20 XP, got %d", got)
	}
}

func TestMarkDayLeaveLogs(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	addScheduledSubject(t, s, "Math", time.Wednesday)

	marked, err := s.MarkDayLeave(ctx, "2025-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if len(marked) != 1 {
		t.Fatalf("expected one subject, got %v", marked)
	}
	if got := s.Timeline.Recent(ctx, 1)[0].Text; got != "Marked whole day leave on 2025-03-05" {
		t.Fatalf("unexpected action %q", got)
	}

	if _, err := s.MarkDayLeave(ctx, "2025-03-04"); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Timeline.Entries(ctx)); got != 1 {
		t.Fatalf("expected a day without classes not to be logged, got %d entries", got)
	}
}

func TestAttendanceReport(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	math := addScheduledSubject(t, s, "Math", time.Monday, time.Wednesday, time.Friday)

	end := "2025-03-08"
	if err := s.Ledger.SetCycle(ctx, attendance.Cycle{Start: "2025-03-02", End: &end}); err != nil {
		t.Fatal(err)
	}
	for date, status := range map[string]attendance.Status{
		"2025-03-03": attendance.StatusPresent,
		"2025-03-05": attendance.StatusAbsent,
		"2025-03-07": attendance.StatusPresent,
	} {
		if err := s.MarkAttendance(ctx, date, math.ID, status); err != nil {
			t.Fatal(err)
		}
	}

	report := s.Attendance(ctx, 0)
	if report.TargetPercent != DefaultTargetPercent {
		t.Fatalf("expected default target, got %f", report.TargetPercent)
	}
	if report.Totals != (attendance.Count{Conducted: 3, Attended: 2}) {
		t.Fatalf("unexpected totals %+v", report.Totals)
	}
	if report.Needed[math.ID] != 1 || report.Skippable[math.ID] != 0 {
		t.Fatalf("unexpected predictions %v %v", report.Needed, report.Skippable)
	}

	if _, err := s.Holidays.Toggle(ctx, "2025-03-05"); err != nil {
		t.Fatal(err)
	}
	report = s.Attendance(ctx, 50)
	if report.Totals != (attendance.Count{Conducted: 2, Attended: 2}) {
		t.Fatalf("expected the holiday to be excluded, got %+v", report.Totals)
	}
	if report.Skippable[math.ID] != 2 {
		t.Fatalf("expected 2 skippable at 50%%, got %d", report.Skippable[math.ID])
	}
}

func TestAssignmentsFlow(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	essay, err := s.AddAssignment(ctx, "Essay", "English", "2025-03-10", assignments.PriorityHigh)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleAssignment(ctx, essay.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleAssignment(ctx, essay.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleAssignment(ctx, essay.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAssignment(ctx, essay.ID); err != nil {
		t.Fatal(err)
	}
	if got := s.XP.Total(ctx); got != 100 {
		t.Fatalf("expected 100 XP for two completions, got %d", got)
	}

	var texts []string
	for _, entry := range s.Timeline.Entries(ctx) {
		texts = append(texts, entry.Text)
	}
	want := []string{
		"Deleted assignment: Essay",
		"Completed: Essay (Assignments)",
		"Reopened: Essay (Assignments)",
		"Completed: Essay (Assignments)",
		"Added assignment: Essay",
	}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, texts)
	}

	if a, err := s.AddAssignment(ctx, "", "English", "2025-03-10", assignments.PriorityHigh); err != nil || a != nil {
		t.Fatalf("expected ignored assignment, got %v %v", a, err)
	}
}

func TestTimerCompletionRecordsStudy(t *testing.T) {
	ctx := context.Background()
	s, clock := newService(t)

	if _, err := s.Timer.Configure(ctx, 25, 5, "Physics"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Timer.Start(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Add(26 * time.Minute)

	summary, err := s.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TodayMinutes != 25 || summary.Streak != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Progress.XP != 1500 || summary.Progress.Level != 3 {
		t.Fatalf("unexpected progress %+v", summary.Progress)
	}
	if got := summary.RecentActions[0].Text; got != "Studied Physics for 25 mins (Timer)" {
		t.Fatalf("unexpected action %q", got)
	}
	if got := s.Study.PerSubjectHistory(ctx)["2025-03-05"]["Physics"]; got != 1500 {
		t.Fatalf("expected 1500 seconds of Physics, got %d", got)
	}
}

func TestWatchResource(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	if err := s.WatchResource(ctx, "", 150); err != nil {
		t.Fatal(err)
	}
	if err := s.WatchResource(ctx, "Math", 0); err != nil {
		t.Fatal(err)
	}
	if got := s.XP.Total(ctx); got != 2 {
		t.Fatalf("expected 2 XP, got %d", got)
	}
	if got := s.Study.Today(ctx); got != 150 {
		t.Fatalf("expected 150 seconds, got %d", got)
	}
	if got := s.Timeline.Recent(ctx, 1)[0].Text; got != "Watched resource for 3 mins (Resource)" {
		t.Fatalf("unexpected action %q", got)
	}
}

func TestDigest(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	math := addScheduledSubject(t, s, "Math", time.Monday)
	if err := s.MarkAttendance(ctx, "2025-03-03", math.ID, attendance.StatusAbsent); err != nil {
		t.Fatal(err)
	}

	digest, err := s.Digest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"2025-03-05", "Level 1, 0 XP", "Attendance: 0.0% (0/1)", "Math: 0.0%, attend 3 more"} {
		if !strings.Contains(digest, want) {
			t.Fatalf("expected %q in digest:\n%s", want, digest)
		}
	}
}

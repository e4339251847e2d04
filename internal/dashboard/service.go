package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/studydash/internal/assignments"
	"github.com/studydash/internal/attendance"
	"github.com/studydash/internal/dates"
	"github.com/studydash/internal/holidays"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/statistics"
	"github.com/studydash/internal/study"
	"github.com/studydash/internal/timeline"
	"github.com/studydash/internal/timer"
	"github.com/studydash/internal/timezone"
	"github.com/studydash/internal/xp"
)

const DefaultTargetPercent = 75

type Service struct {
	clock         timezone.Clock
	targetPercent float64

	Ledger      *attendance.Ledger
	Holidays    *holidays.Store
	Study       *study.Aggregator
	Timeline    *timeline.Log
	XP          *xp.Tracker
	Assignments *assignments.Store
	Timer       *timer.Timer
	Statistics  *statistics.Service
}

// New builds the services of one profile over its store.
func New(store kv.Store, clock timezone.Clock, targetPercent float64) *Service {
	if targetPercent <= 0 || targetPercent > 100 {
		targetPercent = DefaultTargetPercent
	}
	aggregator := study.NewAggregator(store, clock)
	s := &Service{
		clock:         clock,
		targetPercent: targetPercent,
		Ledger:        attendance.NewLedger(store, clock),
		Holidays:      holidays.NewStore(store),
		Study:         aggregator,
		Timeline:      timeline.New(store, clock),
		XP:            xp.NewTracker(store),
		Assignments:   assignments.NewStore(store, clock),
		Statistics:    statistics.NewService(aggregator, clock),
	}
	s.Timer = timer.New(store, clock, s)
	return s
}

func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) Today() string {
	return dates.Format(s.clock.Now())
}

func (s *Service) TargetPercent() float64 {
	return s.targetPercent
}

// MarkAttendance records a status. Marking a class Present that was not
// Present before is worth xp.PresentReward.
func (s *Service) MarkAttendance(ctx context.Context, date, subjectID string, status attendance.Status) error {
	if !status.Valid() {
		return nil
	}
	if _, err := dates.Parse(date); err != nil {
		return nil
	}
	if _, ok := s.Ledger.Subject(ctx, subjectID); !ok {
		return nil
	}
	previous, err := s.Ledger.SetStatus(ctx, date, subjectID, status)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if status == attendance.StatusPresent && previous != attendance.StatusPresent {
		if _, err := s.XP.Add(ctx, xp.PresentReward); err != nil {
			return fmt.Errorf("add xp: %w", err)
		}
	}
	return nil
}

func (s *Service) MarkDayLeave(ctx context.Context, date string) ([]attendance.Subject, error) {
	marked, err := s.Ledger.MarkDayLeave(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("mark day leave: %w", err)
	}
	if len(marked) == 0 {
		return nil, nil
	}
	if _, err := s.Timeline.Appendf(ctx, "Marked whole day leave on %s", date); err != nil {
		return nil, fmt.Errorf("log action: %w", err)
	}
	return marked, nil
}

type AttendanceReport struct {
	Start         string                      `json:"start"`
	End           string                      `json:"end"`
	TargetPercent float64                     `json:"target_percent"`
	Subjects      []attendance.Subject        `json:"subjects"`
	PerSubject    map[string]attendance.Count `json:"per_subject"`
	Totals        attendance.Count            `json:"totals"`
	Percent       float64                     `json:"percent"`
	Skippable     map[string]int              `json:"skippable"`
	Needed        map[string]int              `json:"needed"`
}

// Attendance reports the active cycle against target, or against the
// configured target when target is not positive.
func (s *Service) Attendance(ctx context.Context, target float64) *AttendanceReport {
	if target <= 0 {
		target = s.targetPercent
	}
	start, end := s.Ledger.Range(ctx)
	stats := s.Ledger.Stats(ctx, s.Holidays.Snapshot(ctx))
	return &AttendanceReport{
		Start:         start,
		End:           end,
		TargetPercent: target,
		Subjects:      s.Ledger.Subjects(ctx),
		PerSubject:    stats.PerSubject,
		Totals:        stats.Totals,
		Percent:       stats.Percent,
		Skippable:     attendance.PredictSkippable(stats.PerSubject, target),
		Needed:        attendance.PredictNeeded(stats.PerSubject, target),
	}
}

func (s *Service) AddAssignment(ctx context.Context, title, subject, dueDate string, priority assignments.Priority) (*assignments.Assignment, error) {
	assignment, err := s.Assignments.Add(ctx, title, subject, dueDate, priority)
	if err != nil {
		return nil, fmt.Errorf("add assignment: %w", err)
	}
	if assignment == nil {
		return nil, nil
	}
	if _, err := s.Timeline.Appendf(ctx, "Added assignment: %s", assignment.Title); err != nil {
		return nil, fmt.Errorf("log action: %w", err)
	}
	return assignment, nil
}

// ToggleAssignment flips an assignment between Pending and Done. Finishing
// one is worth xp.AssignmentReward.
func (s *Service) ToggleAssignment(ctx context.Context, id string) (*assignments.Assignment, error) {
	assignment, err := s.Assignments.Toggle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("toggle assignment: %w", err)
	}
	verb := "Reopened"
	if assignment.Status == assignments.StatusDone {
		verb = "Completed"
		if _, err := s.XP.Add(ctx, xp.AssignmentReward); err != nil {
			return nil, fmt.Errorf("add xp: %w", err)
		}
	}
	if _, err := s.Timeline.Appendf(ctx, "%s: %s (Assignments)", verb, assignment.Title); err != nil {
		return nil, fmt.Errorf("log action: %w", err)
	}
	return assignment, nil
}

func (s *Service) DeleteAssignment(ctx context.Context, id string) error {
	assignment, err := s.Assignments.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if _, err := s.Timeline.Appendf(ctx, "Deleted assignment: %s", assignment.Title); err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// RecordFocus stores study time produced by the timer. A completed focus
// phase is also worth one XP per second of its length and is logged.
func (s *Service) RecordFocus(ctx context.Context, session timer.FocusSession) error {
	if session.Seconds > 0 {
		if err := s.Study.AddSession(ctx, session.Seconds, session.Subject); err != nil {
			return fmt.Errorf("add study session: %w", err)
		}
	}
	if !session.Completed {
		return nil
	}
	if _, err := s.XP.Add(ctx, float64(session.Limit)); err != nil {
		return fmt.Errorf("add xp: %w", err)
	}
	subject := ""
	if session.Subject != "" {
		subject = " " + session.Subject
	}
	if _, err := s.Timeline.Appendf(ctx, "Studied%s for %s mins (Timer)", subject, minutes(session.Limit)); err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

// RecordStudy adds a manually logged study session.
func (s *Service) RecordStudy(ctx context.Context, seconds int, subject string) error {
	if err := s.Study.AddSession(ctx, seconds, subject); err != nil {
		return fmt.Errorf("add study session: %w", err)
	}
	return nil
}

// WatchResource records time spent on a subject resource. Every whole
// minute watched is worth one XP.
func (s *Service) WatchResource(ctx context.Context, subject string, seconds int) error {
	if seconds <= 0 {
		return nil
	}
	if err := s.Study.AddSession(ctx, seconds, subject); err != nil {
		return fmt.Errorf("add study session: %w", err)
	}
	if _, err := s.XP.Add(ctx, float64(seconds/60)); err != nil {
		return fmt.Errorf("add xp: %w", err)
	}
	label := subject
	if label == "" {
		label = "resource"
	}
	if _, err := s.Timeline.Appendf(ctx, "Watched %s for %s mins (Resource)", label, minutes(seconds)); err != nil {
		return fmt.Errorf("log action: %w", err)
	}
	return nil
}

func minutes(seconds int) string {
	return fmt.Sprintf("%.0f", math.Round(float64(seconds)/60))
}

type Summary struct {
	Date               string                       `json:"date"`
	Progress           xp.Progress                  `json:"progress"`
	Streak             int                          `json:"streak"`
	TodayMinutes       int                          `json:"today_minutes"`
	Weekly             [7]study.DayMinutes          `json:"weekly"`
	AttendancePercent  float64                      `json:"attendance_percent"`
	PendingAssignments []assignments.Assignment     `json:"pending_assignments"`
	RecentActions      []timeline.Entry             `json:"recent_actions"`
	TopSubjects        []study.SubjectTotal         `json:"top_subjects"`
	Timer              *timer.Status                `json:"timer,omitempty"`
	Scheduled          []attendance.Subject         `json:"scheduled"`
	Marks              map[string]attendance.Status `json:"marks"`
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	today := s.Today()
	timerStatus, err := s.Timer.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("timer status: %w", err)
	}
	marks := s.Ledger.Records(ctx)[today]
	if marks == nil {
		marks = map[string]attendance.Status{}
	}
	return &Summary{
		Date:               today,
		Progress:           s.XP.Progress(ctx),
		Streak:             s.Study.Streak(ctx),
		TodayMinutes:       s.Study.Today(ctx) / 60,
		Weekly:             s.Study.WeeklyMinutes(ctx),
		AttendancePercent:  s.Ledger.Stats(ctx, s.Holidays.Snapshot(ctx)).Percent,
		PendingAssignments: s.Assignments.List(ctx, assignments.StatusPending),
		RecentActions:      s.Timeline.Recent(ctx, timeline.DefaultRecent),
		TopSubjects:        s.Study.SubjectTotals(ctx),
		Timer:              timerStatus,
		Scheduled:          s.Ledger.Scheduled(ctx, today),
		Marks:              marks,
	}, nil
}

// Digest is a plain text summary for chat messages.
func (s *Service) Digest(ctx context.Context) (string, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return "", err
	}
	report := s.Attendance(ctx, 0)
	text := fmt.Sprintf(
		"%s\nLevel %d, %d XP\nStreak: %d days\nStudied today: %d mins\nAttendance: %.1f%% (%d/%d), target %.0f%%\nPending assignments: %d",
		summary.Date,
		summary.Progress.Level, summary.Progress.XP,
		summary.Streak,
		summary.TodayMinutes,
		report.Percent, report.Totals.Attended, report.Totals.Conducted, report.TargetPercent,
		len(summary.PendingAssignments),
	)
	for _, subject := range report.Subjects {
		count := report.PerSubject[subject.ID]
		if needed := report.Needed[subject.ID]; needed > 0 {
			text += fmt.Sprintf("\n%s: %.1f%%, attend %d more", subject.Name, count.Percent(), needed)
		} else {
			text += fmt.Sprintf("\n%s: %.1f%%, can skip %d", subject.Name, count.Percent(), report.Skippable[subject.ID])
		}
	}
	return text, nil
}

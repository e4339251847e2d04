package calendars

import (
	"context"
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/studydash/internal/attendance"
	"github.com/studydash/internal/authentication"
	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/dates"
	"github.com/studydash/internal/profiles"
)

type Service struct {
	store                 *Store
	authenticationService *authentication.Service
	dashboards            *dashboard.Factory
}

func NewService(
	store *Store,
	authenticationService *authentication.Service,
	dashboards *dashboard.Factory,
) *Service {
	return &Service{
		store:                 store,
		authenticationService: authenticationService,
		dashboards:            dashboards,
	}
}

func (s *Service) CreateCalendar(ctx context.Context) (*Calendar, error) {
	profile, ok := profiles.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("profile missing from context")
	}
	cal := NewCalendar(profile.ID)
	if err := s.store.InsertCalendar(ctx, cal); err != nil {
		return nil, fmt.Errorf("insert calendar: %w", err)
	}
	return cal, nil
}

// WriteICal writes the classes of the active cycle as all day events,
// labelled with their attendance, followed by the holidays of the cycle.
func (s *Service) WriteICal(ctx context.Context, w io.Writer, id string) error {
	cal, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find by id %q: %w", id, err)
	}
	ctx, err = s.authenticationService.AuthenticateContext(ctx, cal.ProfileID)
	if err != nil {
		return fmt.Errorf("authenticate context: %w", err)
	}
	d := s.dashboards.For(cal.ProfileID)

	start, end := d.Ledger.Range(ctx)
	days, err := dates.Range(start, end)
	if err != nil {
		return fmt.Errorf("cycle range: %w", err)
	}
	holidays := d.Holidays.Snapshot(ctx)
	records := d.Ledger.Records(ctx)
	stamp := d.Now()

	icalendar := ics.NewCalendar()
	icalendar.SetName("Timetable")
	icalendar.SetXWRCalName("Timetable")
	for _, date := range days {
		day, _ := dates.Parse(date)
		if holidays.IsHoliday(date) {
			ievent := icalendar.AddEvent(fmt.Sprintf("holiday-%s", date))
			ievent.SetSummary("Holiday")
			setAllDay(ievent, day, stamp)
			continue
		}
		for _, subject := range d.Ledger.Scheduled(ctx, date) {
			ievent := icalendar.AddEvent(fmt.Sprintf("%s-%s", date, subject.ID))
			ievent.SetSummary(summary(subject, records[date][subject.ID]))
			setAllDay(ievent, day, stamp)
		}
	}
	return icalendar.SerializeTo(w)
}

func summary(subject attendance.Subject, status attendance.Status) string {
	if status == "" {
		return subject.Name
	}
	return fmt.Sprintf("[%s] %s", status, subject.Name)
}

func setAllDay(ievent *ics.VEvent, day time.Time, stamp time.Time) {
	ievent.SetDtStampTime(stamp)
	ievent.SetAllDayStartAt(day)
	ievent.SetAllDayEndAt(day.AddDate(0, 0, 1))
}

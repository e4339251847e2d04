package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/studydash/internal/profiles"
)

type ID string

func NewID() ID {
	return ID(gonanoid.Must())
}

type Status uint

const (
	StatusUndefined Status = iota
	StatusPending
	StatusRunning
	StatusSucceded
	StatusFailing
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceded:
		return "succeeded"
	case StatusFailing:
		return "failing"
	default:
		return "undefined"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for candidate := StatusUndefined; candidate <= StatusFailing; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

const MaxAttempts = 5

type Job struct {
	ID        ID          `json:"id"`
	ProfileID profiles.ID `json:"profile_id"`
	Time      time.Time   `json:"time"`
	Status    Status      `json:"status"`
	Attempts  []time.Time `json:"attempts"`
	Errors    []string    `json:"errors"`
	// EveryHours repeats the job, zero runs it once.
	EveryHours int `json:"every_hours,omitempty"`

	Reminder *ReminderJob `json:"reminder,omitempty"`
	Digest   *DigestJob   `json:"digest,omitempty"`
}

type ReminderJob struct {
	Text string `json:"text"`
}

// DigestJob sends the dashboard digest of the profile.
type DigestJob struct{}

func (j Job) Do(ctx context.Context, s *Scheduler) error {
	switch {
	case j.Reminder != nil:
		return s.notifier.Notify(ctx, j.ProfileID, "Reminder: "+j.Reminder.Text)
	case j.Digest != nil:
		digest, err := s.dashboards.For(j.ProfileID).Digest(ctx)
		if err != nil {
			return fmt.Errorf("digest: %w", err)
		}
		return s.notifier.Notify(ctx, j.ProfileID, digest)
	}
	return fmt.Errorf("unsupported job type")
}

func newJob(ctx context.Context, ts time.Time, everyHours int) (*Job, error) {
	profile, ok := profiles.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("profile missing from context")
	}
	return &Job{
		ID:         NewID(),
		ProfileID:  profile.ID,
		Status:     StatusPending,
		Time:       ts,
		EveryHours: max(everyHours, 0),
	}, nil
}

func NewReminderJob(
	ctx context.Context,
	text string,
	ts time.Time,
	everyHours int,
) (*Job, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("reminder text is empty")
	}
	job, err := newJob(ctx, ts, everyHours)
	if err != nil {
		return nil, err
	}
	job.Reminder = &ReminderJob{Text: text}
	return job, nil
}

func NewDigestJob(
	ctx context.Context,
	ts time.Time,
	everyHours int,
) (*Job, error) {
	job, err := newJob(ctx, ts, everyHours)
	if err != nil {
		return nil, err
	}
	job.Digest = &DigestJob{}
	return job, nil
}

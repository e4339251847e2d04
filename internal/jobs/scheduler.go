package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/profiles"
	"github.com/studydash/internal/timezone"
)

// Notifier delivers a message to a profile.
type Notifier interface {
	Notify(ctx context.Context, profileID profiles.ID, text string) error
}

// LogNotifier writes messages to the log, for deployments without a chat
// bot.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, profileID profiles.ID, text string) error {
	slog.InfoContext(ctx, "notification", "profile_id", profileID, "text", text)
	return nil
}

type Scheduler struct {
	store      *Store
	notifier   Notifier
	dashboards *dashboard.Factory
	clock      timezone.Clock

	jobsGuard sync.RWMutex
	jobs      map[ID]*Job

	jobFailedCallbacks    []func(context.Context, *Job)
	jobSucceededCallbacks []func(context.Context, *Job)
}

func NewScheduler(
	store *Store,
	notifier Notifier,
	dashboards *dashboard.Factory,
	clock timezone.Clock,
) *Scheduler {
	return &Scheduler{
		store:      store,
		notifier:   notifier,
		dashboards: dashboards,
		clock:      clock,
		jobs:       make(map[ID]*Job),
	}
}

func (s *Scheduler) OnJobFailed(cb func(context.Context, *Job)) {
	s.jobFailedCallbacks = append(s.jobFailedCallbacks, cb)
}

func (s *Scheduler) OnJobSucceeded(cb func(context.Context, *Job)) {
	s.jobSucceededCallbacks = append(s.jobSucceededCallbacks, cb)
}

// Init will load all pending jobs from the store into memory, and start watching them.
func (s *Scheduler) Init(ctx context.Context) error {
	jobs, err := s.store.ListJobs(ctx, ByStatus(StatusPending, StatusFailing, StatusRunning), ExcludeFailed())
	if err != nil {
		return err
	}
	for _, job := range jobs {
		s.setupTimerForJob(ctx, job)
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()

	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()
	jobsToRun := []*Job{}
	s.jobsGuard.RLock()
	for _, job := range s.jobs {
		if !now.Before(job.Time) {
			jobsToRun = append(jobsToRun, job)
		}
	}
	s.jobsGuard.RUnlock()

	for _, job := range jobsToRun {
		slog.InfoContext(ctx, "starting job", "job_id", job.ID, "attempt", len(job.Attempts))
		if err := s.runJob(ctx, job); err != nil {
			slog.ErrorContext(ctx, "job failed", "job_id", job.ID, "error", err)
			for _, cb := range s.jobFailedCallbacks {
				cb(ctx, job)
			}
		} else {
			for _, cb := range s.jobSucceededCallbacks {
				cb(ctx, job)
			}
		}
	}
}

// List returns the jobs of the profile in the context.
func (s *Scheduler) List(ctx context.Context) ([]*Job, error) {
	profile, ok := profiles.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("profile missing from context")
	}
	return s.store.ListJobs(ctx, ByProfileID(profile.ID))
}

func (s *Scheduler) FindByID(ctx context.Context, id ID) (*Job, error) {
	profile, ok := profiles.FromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("profile missing from context")
	}
	job, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.ProfileID != profile.ID {
		return nil, ErrNotFound
	}
	return job, nil
}

func (s *Scheduler) DeleteByID(ctx context.Context, id ID) error {
	job, err := s.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find by id: %w", err)
	}
	if err := s.store.DeleteJob(ctx, job.ID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	s.deleteTimer(ctx, job)
	slog.InfoContext(ctx, "deleted job", "job_id", job.ID)
	return nil
}

func (s *Scheduler) Schedule(ctx context.Context, job *Job) error {
	if err := s.store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	s.setupTimerForJob(ctx, job)
	return nil
}

func (s *Scheduler) deleteTimer(ctx context.Context, job *Job) {
	s.jobsGuard.Lock()
	delete(s.jobs, job.ID)
	s.jobsGuard.Unlock()
	slog.InfoContext(ctx, "unscheduled job", "job_id", job.ID)
}

func (s *Scheduler) setupTimerForJob(ctx context.Context, job *Job) {
	s.jobsGuard.Lock()
	s.jobs[job.ID] = job
	s.jobsGuard.Unlock()
	slog.InfoContext(ctx, "scheduled job", "job_id", job.ID, "time", job.Time)
}

func (s *Scheduler) runJob(ctx context.Context, job *Job) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	job.Status = StatusRunning
	job.Attempts = append(job.Attempts, s.clock.Now())

	if err := s.store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	jobError := job.Do(ctx, s)
	if jobError != nil {
		job.Errors = append(job.Errors, jobError.Error())
		job.Status = StatusFailing
		if next := nextRetry(job); next != nil {
			job.Time = *next
		} else if !s.repeat(job) {
			s.deleteTimer(ctx, job)
		}
	} else {
		job.Status = StatusSucceded
		job.Errors = append(job.Errors, "")
		if !s.repeat(job) {
			s.deleteTimer(ctx, job)
		}
	}

	if err := s.store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	return jobError
}

// repeat moves a recurring job to its next occurrence after now.
func (s *Scheduler) repeat(job *Job) bool {
	if job.EveryHours <= 0 {
		return false
	}
	every := time.Duration(job.EveryHours) * time.Hour
	now := s.clock.Now()
	next := job.Time.Add(every)
	for !next.After(now) {
		next = next.Add(every)
	}
	job.Time = next
	job.Status = StatusPending
	job.Attempts = nil
	job.Errors = nil
	return true
}

const retryBase = 100 * time.Millisecond

func nextRetry(job *Job) *time.Time {
	if len(job.Attempts) >= MaxAttempts {
		return nil
	}
	next := job.Attempts[len(job.Attempts)-1].Add(retryBase * 2 << len(job.Attempts))
	return &next
}

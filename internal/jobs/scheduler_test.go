package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/keys"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/profiles"
	"github.com/studydash/internal/timezone"
)

type notification struct {
	profileID profiles.ID
	text      string
}

type fakeNotifier struct {
	failures int
	sent     []notification
}

func (n *fakeNotifier) Notify(_ context.Context, profileID profiles.ID, text string) error {
	if n.failures > 0 {
		n.failures--
		return errors.New("chat unreachable")
	}
	n.sent = append(n.sent, notification{profileID: profileID, text: text})
	return nil
}

var start = time.Date(2025, time.March, 5, 8, 0, 0, 0, time.UTC)

func newScheduler(t *testing.T, notifier Notifier) (*Scheduler, *timezone.FixedClock, context.Context) {
	t.Helper()
	key, err := keys.NewKey()
	if err != nil {
		t.Fatal(err)
	}
	root := kv.NewMemoryStore()
	clock := timezone.NewFixedClock(start)
	profilesStore := profiles.NewStore(root, key)
	scheduler := NewScheduler(NewStore(root), notifier, dashboard.NewFactory(profilesStore, clock, 75), clock)
	ctx := profiles.NewContext(context.Background(), &profiles.Profile{ID: "p1"})
	return scheduler, clock, ctx
}

func TestReminderRunsOnce(t *testing.T) {
	notifier := &fakeNotifier{}
	scheduler, clock, ctx := newScheduler(t, notifier)

	job, err := NewReminderJob(ctx, " Submit lab report ", start.Add(time.Hour), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := scheduler.Schedule(ctx, job); err != nil {
		t.Fatal(err)
	}

	scheduler.tick(ctx)
	if len(notifier.sent) != 0 {
		t.Fatal("job ran before its time")
	}

	clock.Add(time.Hour)
	scheduler.tick(ctx)
	scheduler.tick(ctx)
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %v", notifier.sent)
	}
	if got := notifier.sent[0]; got.profileID != "p1" || got.text != "Reminder: Submit lab report" {
		t.Fatalf("unexpected notification %+v", got)
	}

	stored, err := scheduler.FindByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != StatusSucceded {
		t.Fatalf("expected succeeded, got %s", stored.Status)
	}
}

func TestReminderRetriesWithBackoff(t *testing.T) {
	notifier := &fakeNotifier{failures: 2}
	scheduler, clock, ctx := newScheduler(t, notifier)

	job, err := NewReminderJob(ctx, "Revise", start, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := scheduler.Schedule(ctx, job); err != nil {
		t.Fatal(err)
	}

	failed := 0
	scheduler.OnJobFailed(func(context.Context, *Job) { failed++ })

	scheduler.tick(ctx)
	if job.Status != StatusFailing || !job.Time.After(start) {
		t.Fatalf("expected a retry after now, got %s at %s", job.Status, job.Time)
	}
	for i := 0; i < 10; i++ {
		clock.Add(time.Second)
		scheduler.tick(ctx)
	}
	if failed != 2 {
		t.Fatalf("expected 2 failures, got %d", failed)
	}
	if len(notifier.sent) != 1 || len(job.Attempts) != 3 {
		t.Fatalf("expected delivery on third attempt, got %d sent after %d attempts", len(notifier.sent), len(job.Attempts))
	}
}

func TestReminderGivesUp(t *testing.T) {
	notifier := &fakeNotifier{failures: 100}
	scheduler, clock, ctx := newScheduler(t, notifier)

	job, err := NewReminderJob(ctx, "Revise", start, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := scheduler.Schedule(ctx, job); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		scheduler.tick(ctx)
		clock.Add(5 * time.Second)
	}
	if len(job.Attempts) != MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", MaxAttempts, len(job.Attempts))
	}
	active, err := scheduler.store.ListJobs(ctx, ExcludeFailed())
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active jobs, got %d", len(active))
	}
}

func TestRecurringDigest(t *testing.T) {
	notifier := &fakeNotifier{}
	scheduler, clock, ctx := newScheduler(t, notifier)

	job, err := NewDigestJob(ctx, start, 24)
	if err != nil {
		t.Fatal(err)
	}
	if err := scheduler.Schedule(ctx, job); err != nil {
		t.Fatal(err)
	}

	scheduler.tick(ctx)
	if len(notifier.sent) != 1 || !strings.HasPrefix(notifier.sent[0].text, "2025-03-05") {
		t.Fatalf("unexpected notifications %v", notifier.sent)
	}
	if !job.Time.Equal(start.Add(24*time.Hour)) || job.Status != StatusPending {
		t.Fatalf("expected next run tomorrow, got %s at %s", job.Status, job.Time)
	}

	clock.Add(3 * 24 * time.Hour)
	scheduler.tick(ctx)
	if len(notifier.sent) != 2 {
		t.Fatalf("expected missed runs to collapse, got %d", len(notifier.sent))
	}
	if !job.Time.Equal(start.Add(4 * 24 * time.Hour)) {
		t.Fatalf("unexpected next run %s", job.Time)
	}
}

func TestJobsAreScopedToProfile(t *testing.T) {
	scheduler, _, ctx := newScheduler(t, &fakeNotifier{})

	job, err := NewReminderJob(ctx, "Revise", start, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := scheduler.Schedule(ctx, job); err != nil {
		t.Fatal(err)
	}

	other := profiles.NewContext(context.Background(), &profiles.Profile{ID: "p2"})
	if _, err := scheduler.FindByID(other, job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := scheduler.DeleteByID(other, job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	listed, err := scheduler.List(other)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no jobs, got %d", len(listed))
	}

	if err := scheduler.DeleteByID(ctx, job.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := scheduler.FindByID(ctx, job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewJobRequiresProfile(t *testing.T) {
	if _, err := NewReminderJob(context.Background(), "Revise", start, 0); err == nil {
		t.Fatal("expected error without a profile")
	}
	ctx := profiles.NewContext(context.Background(), &profiles.Profile{ID: "p1"})
	if _, err := NewReminderJob(ctx, "  ", start, 0); err == nil {
		t.Fatal("expected error for empty text")
	}
}

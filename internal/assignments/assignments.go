package assignments

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/studydash/internal/dates"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/timezone"
)

const Key = "assignments"

var ErrNotFound = errors.New("not found")

type Status string

const (
	StatusPending Status = "Pending"
	StatusDone    Status = "Done"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyDueSoon Urgency = "due_soon"
	UrgencyLater   Urgency = "later"
)

type Subtask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type Assignment struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Subject  string    `json:"subject"`
	DueDate  string    `json:"dueDate"`
	Status   Status    `json:"status"`
	Priority Priority  `json:"priority,omitempty"`
	Subtasks []Subtask `json:"subtasks,omitempty"`
}

type Store struct {
	store kv.Store
	clock timezone.Clock
}

func NewStore(store kv.Store, clock timezone.Clock) *Store {
	return &Store{
		store: store,
		clock: clock,
	}
}

// List returns assignments in insertion order, filtered by status unless
// status is empty.
func (s *Store) List(ctx context.Context, status Status) []Assignment {
	all := kv.LoadJSON(ctx, s.store, Key, []Assignment{})
	if status == "" {
		return all
	}
	return slices.DeleteFunc(all, func(a Assignment) bool { return a.Status != status })
}

func (s *Store) Get(ctx context.Context, id string) (*Assignment, error) {
	for _, a := range s.List(ctx, "") {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Store) save(ctx context.Context, all []Assignment) error {
	if err := kv.SaveJSON(ctx, s.store, Key, all); err != nil {
		return fmt.Errorf("save assignments: %w", err)
	}
	return nil
}

// Add creates a pending assignment. Title and due date are required,
// without them nothing is stored and nil is returned.
func (s *Store) Add(ctx context.Context, title, subject, dueDate string, priority Priority) (*Assignment, error) {
	title = strings.TrimSpace(title)
	if title == "" || dueDate == "" {
		return nil, nil
	}
	if !priority.Valid() {
		priority = PriorityMedium
	}
	assignment := Assignment{
		ID:       uuid.NewString(),
		Title:    title,
		Subject:  subject,
		DueDate:  dueDate,
		Status:   StatusPending,
		Priority: priority,
		Subtasks: []Subtask{},
	}
	if err := s.save(ctx, append(s.List(ctx, ""), assignment)); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (s *Store) update(ctx context.Context, id string, fn func(*Assignment)) (*Assignment, error) {
	all := s.List(ctx, "")
	i := slices.IndexFunc(all, func(a Assignment) bool { return a.ID == id })
	if i < 0 {
		return nil, ErrNotFound
	}
	fn(&all[i])
	if err := s.save(ctx, all); err != nil {
		return nil, err
	}
	updated := all[i]
	return &updated, nil
}

// Toggle flips the status between Pending and Done.
func (s *Store) Toggle(ctx context.Context, id string) (*Assignment, error) {
	return s.update(ctx, id, func(a *Assignment) {
		if a.Status == StatusDone {
			a.Status = StatusPending
		} else {
			a.Status = StatusDone
		}
	})
}

func (s *Store) Delete(ctx context.Context, id string) (*Assignment, error) {
	all := s.List(ctx, "")
	i := slices.IndexFunc(all, func(a Assignment) bool { return a.ID == id })
	if i < 0 {
		return nil, ErrNotFound
	}
	deleted := all[i]
	if err := s.save(ctx, slices.Delete(all, i, i+1)); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// AddSubtask appends a subtask, blank titles are ignored.
func (s *Store) AddSubtask(ctx context.Context, id, title string) (*Assignment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s.Get(ctx, id)
	}
	return s.update(ctx, id, func(a *Assignment) {
		a.Subtasks = append(a.Subtasks, Subtask{
			ID:    uuid.NewString(),
			Title: title,
		})
	})
}

func (s *Store) ToggleSubtask(ctx context.Context, id, subtaskID string) (*Assignment, error) {
	return s.update(ctx, id, func(a *Assignment) {
		for i := range a.Subtasks {
			if a.Subtasks[i].ID == subtaskID {
				a.Subtasks[i].Done = !a.Subtasks[i].Done
			}
		}
	})
}

// Urgency classifies a due date relative to today: past dates are
// overdue, up to two days ahead is due soon.
func (s *Store) Urgency(dueDate string) Urgency {
	due, err := dates.Parse(dueDate)
	if err != nil {
		return UrgencyLater
	}
	today, _ := dates.Parse(dates.Format(s.clock.Now()))
	days := int(due.Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= 2:
		return UrgencyDueSoon
	default:
		return UrgencyLater
	}
}

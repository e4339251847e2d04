package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/profiles"
)

const prefix = "jobs/"

var ErrNotFound = errors.New("not found")

type Store struct {
	store kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{
		store: store,
	}
}

func (s *Store) InsertJob(ctx context.Context, job *Job) error {
	return kv.SaveJSON(ctx, s.store, idKey(job.ID), job)
}

func ExcludeFailed() func(*Job) bool {
	return func(job *Job) bool {
		return job.Status != StatusFailing || len(job.Attempts) < MaxAttempts
	}
}

func ByProfileID(id profiles.ID) func(*Job) bool {
	return func(job *Job) bool {
		return job.ProfileID == id
	}
}

func ByStatus(status ...Status) func(*Job) bool {
	filter := make(map[Status]bool, len(status))
	for _, s := range status {
		filter[s] = true
	}
	return func(job *Job) bool {
		return filter[job.Status]
	}
}

func (s *Store) FindByID(ctx context.Context, id ID) (*Job, error) {
	job := kv.LoadJSON[*Job](ctx, s.store, idKey(id), nil)
	if job == nil {
		return nil, ErrNotFound
	}
	return job, nil
}

// ListJobs returns the jobs passing every filter, earliest first.
func (s *Store) ListJobs(ctx context.Context, filters ...func(*Job) bool) ([]*Job, error) {
	var jobs []*Job
	if err := s.store.Scan(ctx, prefix, func(_, value string) error {
		job := &Job{}
		if err := json.Unmarshal([]byte(value), job); err != nil {
			return err
		}
		for _, filter := range filters {
			if !filter(job) {
				return nil
			}
		}
		jobs = append(jobs, job)
		return nil
	}); err != nil {
		return nil, err
	}
	slices.SortFunc(jobs, func(a, b *Job) int {
		return a.Time.Compare(b.Time)
	})
	return jobs, nil
}

func (s *Store) DeleteJob(ctx context.Context, id ID) error {
	if err := s.store.Delete(ctx, idKey(id)); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return err
	}
	return nil
}

func idKey(id ID) string {
	return prefix + string(id)
}

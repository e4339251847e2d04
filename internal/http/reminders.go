package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/studydash/internal/jobs"
)

func handleListReminders(logger *slog.Logger, scheduler *jobs.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := scheduler.List(r.Context())
		if err != nil {
			logger.Error("list jobs", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*jobs.Job{}
		}
		writeJSON(logger, w, http.StatusOK, list)
	}
}

type reminderRequest struct {
	Kind       string    `json:"kind" validate:"required,oneof=reminder digest"`
	Text       string    `json:"text" validate:"required_if=Kind reminder,max=500"`
	Time       time.Time `json:"time" validate:"required"`
	EveryHours int       `json:"every_hours" validate:"min=0,max=720"`
}

func handleCreateReminder(logger *slog.Logger, v *Validator, scheduler *jobs.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reminderRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode reminder", err)
			return
		}

		var job *jobs.Job
		var err error
		switch req.Kind {
		case "digest":
			job, err = jobs.NewDigestJob(r.Context(), req.Time, req.EveryHours)
		default:
			job, err = jobs.NewReminderJob(r.Context(), req.Text, req.Time, req.EveryHours)
		}
		if err != nil {
			logger.Error("new job", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := scheduler.Schedule(r.Context(), job); err != nil {
			logger.Error("schedule", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusCreated, job)
	}
}

func handleDeleteReminder(logger *slog.Logger, scheduler *jobs.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		jobID := jobs.ID(parts[2])

		if err := scheduler.DeleteByID(r.Context(), jobID); errors.Is(err, jobs.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		} else if err != nil {
			logger.Error("delete by id", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

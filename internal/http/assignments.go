package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/studydash/internal/assignments"
	"github.com/studydash/internal/dashboard"
)

func handleListAssignments(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		status := assignments.Status(r.URL.Query().Get("status"))
		switch status {
		case "", assignments.StatusPending, assignments.StatusDone:
		default:
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(logger, w, http.StatusOK, d.Assignments.List(r.Context(), status))
	}
}

type assignmentRequest struct {
	Title    string               `json:"title" validate:"required,max=200"`
	Subject  string               `json:"subject" validate:"max=100"`
	DueDate  string               `json:"dueDate" validate:"required,date"`
	Priority assignments.Priority `json:"priority" validate:"omitempty,oneof=High Medium Low"`
}

func handleCreateAssignment(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var req assignmentRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode assignment", err)
			return
		}
		assignment, err := d.AddAssignment(r.Context(), req.Title, req.Subject, req.DueDate, req.Priority)
		if err != nil {
			logger.Error("add assignment", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if assignment == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(logger, w, http.StatusCreated, assignment)
	}
}

// writeAssignment answers with the assignment, or 404 for unknown ids.
func writeAssignment(logger *slog.Logger, w http.ResponseWriter, msg string, assignment *assignments.Assignment, err error) {
	if errors.Is(err, assignments.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil {
		logger.Error(msg, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(logger, w, http.StatusOK, assignment)
}

func handleToggleAssignment(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		assignmentID := parts[2]

		assignment, err := d.ToggleAssignment(r.Context(), assignmentID)
		writeAssignment(logger, w, "toggle assignment", assignment, err)
	}
}

func handleDeleteAssignment(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		assignmentID := parts[2]

		if err := d.DeleteAssignment(r.Context(), assignmentID); errors.Is(err, assignments.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		} else if err != nil {
			logger.Error("delete assignment", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type subtaskRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

func handleAddSubtask(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		assignmentID := parts[2]

		var req subtaskRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode subtask", err)
			return
		}
		assignment, err := d.Assignments.AddSubtask(r.Context(), assignmentID, req.Title)
		writeAssignment(logger, w, "add subtask", assignment, err)
	}
}

func handleToggleSubtask(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		assignmentID, subtaskID := parts[2], parts[4]

		assignment, err := d.Assignments.ToggleSubtask(r.Context(), assignmentID, subtaskID)
		writeAssignment(logger, w, "toggle subtask", assignment, err)
	}
}

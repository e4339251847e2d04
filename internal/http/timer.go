package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/timer"
)

func handleTimerAction(logger *slog.Logger, msg string, action func(*timer.Timer, context.Context) (*timer.Status, error)) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		status, err := action(d.Timer, r.Context())
		if err != nil {
			logger.Error(msg, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, status)
	}
}

func handleTimer(logger *slog.Logger) dashboardHandler {
	return handleTimerAction(logger, "timer status", (*timer.Timer).Status)
}

func handleStartTimer(logger *slog.Logger) dashboardHandler {
	return handleTimerAction(logger, "start timer", (*timer.Timer).Start)
}

func handlePauseTimer(logger *slog.Logger) dashboardHandler {
	return handleTimerAction(logger, "pause timer", (*timer.Timer).Pause)
}

func handleResetTimer(logger *slog.Logger) dashboardHandler {
	return handleTimerAction(logger, "reset timer", (*timer.Timer).Reset)
}

type timerSettingsRequest struct {
	FocusMinutes int    `json:"focus_minutes" validate:"required,min=1,max=180"`
	BreakMinutes int    `json:"break_minutes" validate:"required,min=1,max=60"`
	Subject      string `json:"subject" validate:"max=100"`
}

func handleTimerSettings(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var req timerSettingsRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode timer settings", err)
			return
		}
		status, err := d.Timer.Configure(r.Context(), req.FocusMinutes, req.BreakMinutes, req.Subject)
		if err != nil {
			logger.Error("configure timer", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, status)
	}
}

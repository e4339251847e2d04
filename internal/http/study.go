package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/study"
	"github.com/studydash/internal/timeline"
	"github.com/studydash/internal/xp"
)

const (
	defaultHeatmapDays = 30
	maxHeatmapDays     = 366
)

type studyResponse struct {
	TodaySeconds int                  `json:"today_seconds"`
	Streak       int                  `json:"streak"`
	Subjects     []study.SubjectTotal `json:"subjects"`
}

func handleStudy(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		writeJSON(logger, w, http.StatusOK, studyResponse{
			TodaySeconds: d.Study.Today(r.Context()),
			Streak:       d.Study.Streak(r.Context()),
			Subjects:     d.Study.SubjectTotals(r.Context()),
		})
	}
}

type sessionRequest struct {
	Seconds int    `json:"seconds" validate:"required,min=1,max=86400"`
	Subject string `json:"subject" validate:"max=100"`
}

func handleRecordStudy(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var req sessionRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode session", err)
			return
		}
		if err := d.RecordStudy(r.Context(), req.Seconds, req.Subject); err != nil {
			logger.Error("record study", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleWeekly(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		writeJSON(logger, w, http.StatusOK, d.Study.WeeklyMinutes(r.Context()))
	}
}

func handleHeatmap(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		days := defaultHeatmapDays
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 || parsed > maxHeatmapDays {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			days = parsed
		}
		writeJSON(logger, w, http.StatusOK, d.Study.Heatmap(r.Context(), days))
	}
}

func handleStatistics() dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		http.Redirect(w, r, fmt.Sprintf("/statistics/year/%d/", d.Now().Year()), http.StatusTemporaryRedirect)
	}
}

func handleYearStatistics(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		year, err := strconv.Atoi(parts[3])
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(logger, w, http.StatusOK, d.Statistics.CalculateYear(r.Context(), year))
	}
}

func handleYearMonthStatistics(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		year, err := strconv.Atoi(parts[3])
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		month, err := strconv.Atoi(parts[5])
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if month < int(time.January) || month > int(time.December) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(logger, w, http.StatusOK, d.Statistics.CalculateYearMonth(r.Context(), year, time.Month(month)))
	}
}

func handleYearWeekStatistics(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		year, err := strconv.Atoi(parts[3])
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		week, err := strconv.Atoi(parts[5])
		if err != nil || week < 1 || week > 53 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		writeJSON(logger, w, http.StatusOK, d.Statistics.CalculateYearWeek(r.Context(), year, week))
	}
}

func handleActions(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		limit := timeline.DefaultRecent
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		writeJSON(logger, w, http.StatusOK, d.Timeline.Recent(r.Context(), limit))
	}
}

func handleXP(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		writeJSON(logger, w, http.StatusOK, d.XP.Progress(r.Context()))
	}
}

type xpRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func handleAddXP(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var req xpRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode xp", err)
			return
		}
		total, err := d.XP.Add(r.Context(), req.Amount)
		if err != nil {
			logger.Error("add xp", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, xp.ProgressOf(total))
	}
}

type watchRequest struct {
	Subject string `json:"subject" validate:"max=100"`
	Seconds int    `json:"seconds" validate:"required,min=1,max=86400"`
}

func handleWatchResource(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var req watchRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode watch", err)
			return
		}
		if err := d.WatchResource(r.Context(), req.Subject, req.Seconds); err != nil {
			logger.Error("watch resource", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studydash/internal/attendance"
	"github.com/studydash/internal/dashboard"
)

func handleSummary(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		summary, err := d.Summary(r.Context())
		if err != nil {
			logger.Error("summary", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, summary)
	}
}

func handleAttendance(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var target float64
		if raw := r.URL.Query().Get("target"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || parsed <= 0 || parsed > 100 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			target = parsed
		}
		writeJSON(logger, w, http.StatusOK, d.Attendance(r.Context(), target))
	}
}

func handleClearAttendance(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		if err := d.Ledger.Clear(r.Context()); err != nil {
			logger.Error("clear attendance", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListSubjects(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		writeJSON(logger, w, http.StatusOK, d.Ledger.Subjects(r.Context()))
	}
}

type subjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func handleCreateSubject(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var req subjectRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode subject", err)
			return
		}
		subject, err := d.Ledger.AddSubject(r.Context(), req.Name)
		if err != nil {
			logger.Error("add subject", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if subject == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(logger, w, http.StatusCreated, subject)
	}
}

func handleDeleteSubject(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		subjectID := parts[2]

		if err := d.Ledger.RemoveSubject(r.Context(), subjectID); err != nil {
			logger.Error("remove subject", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type resourceRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func handleAddResource(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		subjectID := parts[2]

		var req resourceRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode resource", err)
			return
		}
		if err := d.Ledger.AddResource(r.Context(), subjectID, req.URL); err != nil {
			logger.Error("add resource", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRemoveResource(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		subjectID := parts[2]
		index, err := strconv.Atoi(parts[4])
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if err := d.Ledger.RemoveResource(r.Context(), subjectID, index); err != nil {
			logger.Error("remove resource", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleTimetable(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		writeJSON(logger, w, http.StatusOK, d.Ledger.Timetable(r.Context()))
	}
}

func handleToggleSlot(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		weekday, err := strconv.Atoi(parts[2])
		if err != nil || weekday < int(time.Sunday) || weekday > int(time.Saturday) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		subjectID := parts[3]

		if err := d.Ledger.ToggleSlot(r.Context(), time.Weekday(weekday), subjectID); err != nil {
			logger.Error("toggle slot", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, d.Ledger.Timetable(r.Context()))
	}
}

func handleRecords(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		writeJSON(logger, w, http.StatusOK, d.Ledger.Records(r.Context()))
	}
}

type statusRequest struct {
	Status attendance.Status `json:"status" validate:"required,oneof=Present Absent Cancelled Leave"`
}

func handleMarkAttendance(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		date, subjectID := parts[2], parts[3]
		if err := v.Var("date", date, dateTag); err != nil {
			writeError(logger, w, "validate date", err)
			return
		}

		var req statusRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode status", err)
			return
		}
		if err := d.MarkAttendance(r.Context(), date, subjectID, req.Status); err != nil {
			logger.Error("mark attendance", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMarkDayLeave(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		date := parts[2]
		if err := v.Var("date", date, dateTag); err != nil {
			writeError(logger, w, "validate date", err)
			return
		}

		marked, err := d.MarkDayLeave(r.Context(), date)
		if err != nil {
			logger.Error("mark day leave", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if len(marked) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(logger, w, http.StatusOK, marked)
	}
}

func handleGetCycle(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		writeJSON(logger, w, http.StatusOK, d.Ledger.Cycle(r.Context()))
	}
}

type cycleRequest struct {
	Start string  `json:"start" validate:"required,date"`
	End   *string `json:"end" validate:"omitempty,date"`
}

func handleSetCycle(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		var req cycleRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode cycle", err)
			return
		}
		if err := d.Ledger.SetCycle(r.Context(), attendance.Cycle{Start: req.Start, End: req.End}); err != nil {
			logger.Error("set cycle", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleHolidays(logger *slog.Logger) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		year := d.Now().Year()
		if raw := r.URL.Query().Get("year"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			year = parsed
		}
		holidays := d.Holidays.Year(r.Context(), year)
		if holidays == nil {
			holidays = []string{}
		}
		writeJSON(logger, w, http.StatusOK, holidays)
	}
}

type holidayResponse struct {
	Date    string `json:"date"`
	Holiday bool   `json:"holiday"`
	Custom  bool   `json:"custom"`
}

func handleToggleHoliday(logger *slog.Logger, v *Validator) dashboardHandler {
	return func(w http.ResponseWriter, r *http.Request, d *dashboard.Service) {
		parts := strings.Split(r.URL.Path, "/")
		date := parts[2]
		if err := v.Var("date", date, dateTag); err != nil {
			writeError(logger, w, "validate date", err)
			return
		}

		on, err := d.Holidays.Toggle(r.Context(), date)
		if err != nil {
			logger.Error("toggle holiday", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, holidayResponse{
			Date:    date,
			Holiday: d.Holidays.Snapshot(r.Context()).IsHoliday(date),
			Custom:  on,
		})
	}
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/studydash/internal/authentication"
	"github.com/studydash/internal/calendars"
	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/devices"
	"github.com/studydash/internal/jobs"
	"github.com/studydash/internal/migrations"
	"github.com/studydash/internal/profiles"
)

func Handler(
	logger *slog.Logger,
	authenticationService *authentication.Service,
	profilesStore *profiles.Store,
	dashboards *dashboard.Factory,
	calendarsService *calendars.Service,
	scheduler *jobs.Scheduler,
) http.HandlerFunc {
	v := NewValidator()
	requireAuth := WithAuthentication(logger, authenticationService)
	withDashboard := func(h dashboardHandler) http.HandlerFunc {
		return requireAuth(h.handlerFunc(dashboards))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", handleLogin(logger, v, authenticationService))
	mux.HandleFunc("POST /logout", handleLogout())

	mux.HandleFunc("GET /dashboard", withDashboard(handleSummary(logger)))

	mux.HandleFunc("GET /attendance", withDashboard(handleAttendance(logger)))
	mux.HandleFunc("DELETE /attendance", withDashboard(handleClearAttendance(logger)))
	mux.HandleFunc("GET /subjects", withDashboard(handleListSubjects(logger)))
	mux.HandleFunc("POST /subjects", withDashboard(handleCreateSubject(logger, v)))
	mux.HandleFunc("DELETE /subjects/{subject_id}", withDashboard(handleDeleteSubject(logger)))
	mux.HandleFunc("POST /subjects/{subject_id}/resources", withDashboard(handleAddResource(logger, v)))
	mux.HandleFunc("DELETE /subjects/{subject_id}/resources/{index}", withDashboard(handleRemoveResource(logger)))
	mux.HandleFunc("GET /timetable", withDashboard(handleTimetable(logger)))
	mux.HandleFunc("POST /timetable/{weekday}/{subject_id}", withDashboard(handleToggleSlot(logger)))
	mux.HandleFunc("GET /records", withDashboard(handleRecords(logger)))
	mux.HandleFunc("PUT /records/{date}/{subject_id}", withDashboard(handleMarkAttendance(logger, v)))
	mux.HandleFunc("POST /records/{date}/leave", withDashboard(handleMarkDayLeave(logger, v)))
	mux.HandleFunc("GET /cycle", withDashboard(handleGetCycle(logger)))
	mux.HandleFunc("PUT /cycle", withDashboard(handleSetCycle(logger, v)))
	mux.HandleFunc("GET /holidays", withDashboard(handleHolidays(logger)))
	mux.HandleFunc("POST /holidays/{date}", withDashboard(handleToggleHoliday(logger, v)))

	mux.HandleFunc("GET /study", withDashboard(handleStudy(logger)))
	mux.HandleFunc("POST /study/sessions", withDashboard(handleRecordStudy(logger, v)))
	mux.HandleFunc("GET /study/weekly", withDashboard(handleWeekly(logger)))
	mux.HandleFunc("GET /study/heatmap", withDashboard(handleHeatmap(logger)))
	mux.HandleFunc("GET /statistics/year/{year}/{$}", withDashboard(handleYearStatistics(logger)))
	mux.HandleFunc("GET /statistics/year/{year}/month/{month}/{$}", withDashboard(handleYearMonthStatistics(logger)))
	mux.HandleFunc("GET /statistics/year/{year}/week/{week}/{$}", withDashboard(handleYearWeekStatistics(logger)))
	mux.HandleFunc("GET /statistics/{$}", withDashboard(handleStatistics()))
	mux.HandleFunc("GET /actions", withDashboard(handleActions(logger)))
	mux.HandleFunc("GET /xp", withDashboard(handleXP(logger)))
	mux.HandleFunc("POST /xp", withDashboard(handleAddXP(logger, v)))
	mux.HandleFunc("POST /resources/watch", withDashboard(handleWatchResource(logger, v)))

	mux.HandleFunc("GET /assignments", withDashboard(handleListAssignments(logger)))
	mux.HandleFunc("POST /assignments", withDashboard(handleCreateAssignment(logger, v)))
	mux.HandleFunc("POST /assignments/{assignment_id}/toggle", withDashboard(handleToggleAssignment(logger)))
	mux.HandleFunc("DELETE /assignments/{assignment_id}", withDashboard(handleDeleteAssignment(logger)))
	mux.HandleFunc("POST /assignments/{assignment_id}/subtasks", withDashboard(handleAddSubtask(logger, v)))
	mux.HandleFunc("POST /assignments/{assignment_id}/subtasks/{subtask_id}/toggle", withDashboard(handleToggleSubtask(logger)))

	mux.HandleFunc("GET /timer", withDashboard(handleTimer(logger)))
	mux.HandleFunc("POST /timer/start", withDashboard(handleStartTimer(logger)))
	mux.HandleFunc("POST /timer/pause", withDashboard(handlePauseTimer(logger)))
	mux.HandleFunc("POST /timer/reset", withDashboard(handleResetTimer(logger)))
	mux.HandleFunc("PUT /timer/settings", withDashboard(handleTimerSettings(logger, v)))

	mux.HandleFunc("GET /calendars/{calendar_id}/timetable.ics", handleGetCalendar(logger, calendarsService))
	mux.HandleFunc("POST /calendars", requireAuth(handleCreateCalendar(logger, calendarsService)))

	mux.HandleFunc("GET /reminders", requireAuth(handleListReminders(logger, scheduler)))
	mux.HandleFunc("POST /reminders", requireAuth(handleCreateReminder(logger, v, scheduler)))
	mux.HandleFunc("DELETE /reminders/{job_id}", requireAuth(handleDeleteReminder(logger, scheduler)))

	mux.HandleFunc("POST /import", requireAuth(handleImport(logger, profilesStore)))

	return WithAccessLogs(logger)(mux.ServeHTTP)
}

// dashboardHandler serves a request against the dashboard of the
// authenticated profile.
type dashboardHandler func(http.ResponseWriter, *http.Request, *dashboard.Service)

func (h dashboardHandler) handlerFunc(dashboards *dashboard.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, ok := profiles.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r, dashboards.For(profile.ID))
	}
}

type loginRequest struct {
	Registration string `json:"registration" validate:"required,max=32"`
	Mobile       string `json:"mobile" validate:"required,numeric,min=6,max=15"`
	Name         string `json:"name" validate:"omitempty,max=64"`
}

type profileResponse struct {
	ID           profiles.ID `json:"id"`
	Registration string      `json:"registration"`
	Name         string      `json:"name,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

func handleLogin(
	logger *slog.Logger,
	v *Validator,
	authenticationService *authentication.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := v.Decode(r, &req); err != nil {
			writeError(logger, w, "decode login", err)
			return
		}

		profile, isNew, err := authenticationService.Login(r.Context(), req.Registration, req.Mobile, req.Name)
		if errors.Is(err, profiles.ErrMobileMismatch) || errors.Is(err, authentication.ErrMissingCredentials) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		} else if err != nil {
			logger.Error("login", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		device := devices.Device{
			ProfileID: profile.ID,
		}
		for _, cookie := range device.ToCookies(r.TLS != nil) {
			w.Header().Add("Set-Cookie", cookie.String())
		}

		status := http.StatusOK
		if isNew {
			status = http.StatusCreated
		}
		writeJSON(logger, w, status, profileResponse{
			ID:           profile.ID,
			Registration: profile.Registration,
			Name:         profile.Name,
			CreatedAt:    profile.CreatedAt,
		})
	}
}

func handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, cookie := range devices.ExpiredCookies(r.TLS != nil) {
			w.Header().Add("Set-Cookie", cookie.String())
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGetCalendar(logger *slog.Logger, calendarsService *calendars.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		id := parts[2]

		var buf strings.Builder
		if err := calendarsService.WriteICal(r.Context(), &buf, id); errors.Is(err, calendars.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		} else if err != nil {
			logger.Error("write calendar", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		fmt.Fprint(w, buf.String())
	}
}

type calendarResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func handleCreateCalendar(
	logger *slog.Logger,
	calendarsService *calendars.Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cal, err := calendarsService.CreateCalendar(r.Context())
		if err != nil {
			logger.Error("create calendar", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusCreated, calendarResponse{
			ID:  cal.ID,
			URL: fmt.Sprintf("webcal://%s/calendars/%s/timetable.ics", r.Host, cal.ID),
		})
	}
}

func handleImport(logger *slog.Logger, profilesStore *profiles.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, ok := profiles.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		values := map[string]string{}
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeError(logger, w, "decode import", ValidationError{"body": fmt.Sprintf("invalid json: %s", err)})
			return
		}

		imported, err := migrations.Import(r.Context(), profilesStore.Namespace(profile.ID), values)
		if err != nil {
			logger.Error("import", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, map[string][]string{"imported": imported})
	}
}

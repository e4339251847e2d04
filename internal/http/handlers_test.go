package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/studydash/internal/attendance"
	"github.com/studydash/internal/authentication"
	"github.com/studydash/internal/calendars"
	"github.com/studydash/internal/dashboard"
	"github.com/studydash/internal/jobs"
	"github.com/studydash/internal/keys"
	"github.com/studydash/internal/kv"
	"github.com/studydash/internal/profiles"
	"github.com/studydash/internal/timezone"
	"github.com/studydash/internal/xp"
)

type testServer struct {
	t       *testing.T
	handler http.HandlerFunc
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	key, err := keys.NewKey()
	if err != nil {
		t.Fatal(err)
	}
	// Wednesday
	clock := timezone.NewFixedClock(time.Date(2025, time.March, 5, 9, 0, 0, 0, time.UTC))
	root := kv.NewMemoryStore()
	profilesStore := profiles.NewStore(root, key)
	authenticationService := authentication.NewService(profilesStore, clock)
	dashboards := dashboard.NewFactory(profilesStore, clock, 75)
	calendarsService := calendars.NewService(calendars.NewStore(root), authenticationService, dashboards)
	scheduler := jobs.NewScheduler(jobs.NewStore(root), jobs.LogNotifier{}, dashboards, clock)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testServer{
		t:       t,
		handler: Handler(logger, authenticationService, profilesStore, dashboards, calendarsService, scheduler),
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for _, cookie := range s.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler(rec, req)
	return rec
}

func (s *testServer) login() {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/login", `{"registration":"21bce1234","mobile":"9876543210"}`)
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	s.cookies = rec.Result().Cookies()
	if len(s.cookies) == 0 {
		s.t.Fatal("expected profile cookie")
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(http.MethodGet, "/dashboard", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	s.cookies = []*http.Cookie{{Name: "profile_id", Value: "unknown"}}
	if rec := s.do(http.MethodGet, "/dashboard", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/login", `{"registration":"21BCE1234","mobile":"9876543210"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a returning profile, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "9876543210") {
		t.Fatal("mobile number leaked in response")
	}

	rec = s.do(http.MethodPost, "/login", `{"registration":"21BCE1234","mobile":"1111111111"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong mobile, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/login", `{"registration":"","mobile":"abc"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decode[map[string]map[string]string](t, rec)
	if body["errors"]["registration"] != "registration is required" {
		t.Fatalf("unexpected errors %v", body)
	}
	if _, ok := body["errors"]["mobile"]; !ok {
		t.Fatalf("expected mobile error, got %v", body)
	}

	if rec := s.do(http.MethodPost, "/logout", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAttendanceFlow(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/subjects", `{"name":"Math"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	math := decode[attendance.Subject](t, rec)

	if rec := s.do(http.MethodPost, "/subjects", `{"name":"   "}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for a blank name, got %d", rec.Code)
	}

	for _, weekday := range []string{"1", "3"} {
		if rec := s.do(http.MethodPost, "/timetable/"+weekday+"/"+math.ID, ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if rec := s.do(http.MethodPost, "/timetable/9/"+math.ID, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weekday 9, got %d", rec.Code)
	}

	if rec := s.do(http.MethodPut, "/records/2025-03-03/"+math.ID, `{"status":"Present"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/records/2025-03-05/"+math.ID, `{"status":"Late"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/records/03-05-2025/"+math.ID, `{"status":"Absent"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPut, "/records/2025-03-05/"+math.ID, `{"status":"Absent"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/attendance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	report := decode[dashboard.AttendanceReport](t, rec)
	if report.PerSubject[math.ID] != (attendance.Count{Conducted: 2, Attended: 1}) {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Needed[math.ID] != 2 {
		t.Fatalf("expected 2 classes needed, got %d", report.Needed[math.ID])
	}
	if rec := s.do(http.MethodGet, "/attendance?target=150", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/xp", "")
	if progress := decode[xp.Progress](t, rec); progress.XP != xp.PresentReward {
		t.Fatalf("expected %d xp, got %d", xp.PresentReward, progress.XP)
	}

	if rec := s.do(http.MethodPost, "/records/2025-03-04/leave", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on a day without classes, got %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/holidays/2025-03-05", "")
	if got := decode[holidayResponse](t, rec); !got.Holiday || !got.Custom {
		t.Fatalf("unexpected holiday %+v", got)
	}

	if rec := s.do(http.MethodPut, "/cycle", `{"start":"2025-03-01","end":"2025-03-31"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = s.do(http.MethodGet, "/cycle", "")
	if cycle := decode[attendance.Cycle](t, rec); cycle.Start != "2025-03-01" || cycle.End == nil || *cycle.End != "2025-03-31" {
		t.Fatalf("unexpected cycle %+v", cycle)
	}
}

func TestAssignmentsFlow(t *testing.T) {
	s := newTestServer(t)
	s.login()

	if rec := s.do(http.MethodPost, "/assignments", `{"title":"Essay"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without due date, got %d", rec.Code)
	}

	rec := s.do(http.MethodPost, "/assignments", `{"title":"Essay","subject":"English","dueDate":"2025-03-07","priority":"High"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	created := decode[map[string]any](t, rec)
	id := created["id"].(string)

	rec = s.do(http.MethodPost, "/assignments/"+id+"/subtasks", `{"title":"Outline"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if rec := s.do(http.MethodPost, "/assignments/"+id+"/toggle", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/assignments/missing/toggle", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/assignments?status=Done", "")
	if done := decode[[]map[string]any](t, rec); len(done) != 1 {
		t.Fatalf("expected one done assignment, got %v", done)
	}

	rec = s.do(http.MethodGet, "/actions?limit=10", "")
	actions := decode[[]map[string]any](t, rec)
	if len(actions) != 2 || actions[0]["text"] != "Completed: Essay (Assignments)" {
		t.Fatalf("unexpected actions %v", actions)
	}

	if rec := s.do(http.MethodDelete, "/assignments/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/assignments/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStudyAndTimer(t *testing.T) {
	s := newTestServer(t)
	s.login()

	if rec := s.do(http.MethodPost, "/study/sessions", `{"seconds":1500,"subject":"Physics"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/study/sessions", `{"seconds":-5}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec := s.do(http.MethodGet, "/study", "")
	if got := decode[studyResponse](t, rec); got.TodaySeconds != 1500 || got.Streak != 1 {
		t.Fatalf("unexpected study %+v", got)
	}

	rec = s.do(http.MethodGet, "/study/heatmap?days=7", "")
	if heatmap := decode[[]map[string]any](t, rec); len(heatmap) != 7 {
		t.Fatalf("expected 7 days, got %d", len(heatmap))
	}

	if rec := s.do(http.MethodGet, "/statistics/year/2025/month/3/", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/statistics/year/2025/month/13/", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = s.do(http.MethodPut, "/timer/settings", `{"focus_minutes":50,"break_minutes":10,"subject":"Physics"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = s.do(http.MethodPost, "/timer/start", "")
	if status := decode[map[string]any](t, rec); status["running"] != true || status["limit"] != float64(3000) {
		t.Fatalf("unexpected timer %v", status)
	}

	if rec := s.do(http.MethodPost, "/resources/watch", `{"subject":"Physics","seconds":600}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = s.do(http.MethodGet, "/dashboard", "")
	if summary := decode[map[string]any](t, rec); summary["today_minutes"] != float64(35) {
		t.Fatalf("unexpected summary %v", summary)
	}
}

func TestCalendarFeed(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/calendars", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	cal := decode[calendarResponse](t, rec)
	if !strings.HasSuffix(cal.URL, "/calendars/"+cal.ID+"/timetable.ics") {
		t.Fatalf("unexpected url %q", cal.URL)
	}

	s.cookies = nil
	rec = s.do(http.MethodGet, "/calendars/"+cal.ID+"/timetable.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "BEGIN:VCALENDAR") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if rec := s.do(http.MethodGet, "/calendars/missing/timetable.ics", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReminders(t *testing.T) {
	s := newTestServer(t)
	s.login()

	if rec := s.do(http.MethodPost, "/reminders", `{"kind":"reminder","time":"2025-03-05T18:00:00Z"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without text, got %d", rec.Code)
	}

	rec := s.do(http.MethodPost, "/reminders", `{"kind":"digest","time":"2025-03-05T18:00:00Z","every_hours":24}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	job := decode[jobs.Job](t, rec)
	if job.Digest == nil || job.EveryHours != 24 || job.Status != jobs.StatusPending {
		t.Fatalf("unexpected job %+v", job)
	}

	rec = s.do(http.MethodGet, "/reminders", "")
	if listed := decode[[]jobs.Job](t, rec); len(listed) != 1 {
		t.Fatalf("expected one job, got %d", len(listed))
	}

	if rec := s.do(http.MethodDelete, "/reminders/"+string(job.ID), ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/reminders/"+string(job.ID), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestImport(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.do(http.MethodPost, "/import", `{"xp_total":"120","pomodoroFocus":"45","unrelated":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	imported := decode[map[string][]string](t, rec)["imported"]
	if len(imported) != 2 {
		t.Fatalf("expected 2 imported keys, got %v", imported)
	}

	rec = s.do(http.MethodGet, "/xp", "")
	if progress := decode[xp.Progress](t, rec); progress.XP != 120 {
		t.Fatalf("expected 120 xp, got %d", progress.XP)
	}
	rec = s.do(http.MethodGet, "/timer", "")
	if status := decode[map[string]any](t, rec); status["focus_minutes"] != float64(45) {
		t.Fatalf("expected migrated focus minutes, got %v", status)
	}
}

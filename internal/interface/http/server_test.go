package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studioroll/attendance-hub/internal/application"
	"github.com/studioroll/attendance-hub/internal/application/command"
	"github.com/studioroll/attendance-hub/internal/application/query"
	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/internal/infrastructure/export"
)

// nopStudentRepo accepts every write.
type nopStudentRepo struct{}

func (nopStudentRepo) List(context.Context) ([]*student.Student, error) { return nil, nil }
func (nopStudentRepo) Create(_ context.Context, s *student.Student) (string, error) {
	return s.ID, nil
}
func (nopStudentRepo) Update(context.Context, string, student.Fields) error { return nil }
func (nopStudentRepo) Delete(context.Context, string) error                 { return nil }

// nopDayRepo accepts every write.
type nopDayRepo struct{}

func (nopDayRepo) List(context.Context) (map[string][]string, error) { return nil, nil }
func (nopDayRepo) Set(context.Context, string, []string) error       { return nil }
func (nopDayRepo) Delete(context.Context, string) error              { return nil }

const testAdminPass = "hunter2"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	roster := student.NewRoster()
	ana, err := student.NewStudent("Ana", 2)
	require.NoError(t, err)
	require.NoError(t, roster.Add(ana))
	state := application.NewState(roster, attendance.NewIndex())

	cmdDeps := command.Deps{State: state, Students: nopStudentRepo{}, Days: nopDayRepo{}}
	qryDeps := query.Deps{State: state}

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPass), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.AdminUser = "admin"
	cfg.AdminPasswordHash = string(hash)

	return NewServer(cfg, Dependencies{
		MarkAttendance:   command.NewMarkAttendanceHandler(cmdDeps),
		UnmarkAttendance: command.NewUnmarkAttendanceHandler(cmdDeps),
		EnrollStudent:    command.NewEnrollStudentHandler(cmdDeps),
		SetStudentActive: command.NewSetStudentActiveHandler(cmdDeps),
		RemoveStudent:    command.NewRemoveStudentHandler(cmdDeps),
		AdjustBalance:    command.NewAdjustBalanceHandler(cmdDeps),
		Reconcile:        command.NewReconcileHandler(cmdDeps),
		WeeklySummary:    query.NewWeeklySummaryHandler(qryDeps),
		DayAttendance:    query.NewDayAttendanceHandler(qryDeps),
		StudentRoster:    query.NewStudentRosterHandler(qryDeps),
		WeekHistory:      query.NewWeekHistoryHandler(qryDeps),
		Exporter: export.NewWeeklyReportExporter(
			query.NewWeeklySummaryHandler(qryDeps),
			query.NewWeekHistoryHandler(qryDeps),
		),
	})
}

func doRequest(t *testing.T, s *Server, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if admin {
		req.SetBasicAuth("admin", testAdminPass)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]any)
	return data
}

func TestServer_MarkAttendanceFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/attendance", `{"date":"2026-03-02","name":"Ana"}`, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, "consumed_pack", data["Effect"])

	// Same pair again conflicts.
	rec = doRequest(t, s, http.MethodPost, "/api/v1/attendance", `{"date":"2026-03-02","name":"Ana"}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The day view reflects the single mark.
	rec = doRequest(t, s, http.MethodGet, "/api/v1/days/2026-03-02", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decodeData(t, rec)
	assert.Equal(t, float64(1), day["count"])
}

func TestServer_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/attendance", `{"date":"2026-03-02","name":"Nadie"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/attendance", `{"date":"bad","name":"Ana"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/attendance", `{"date":"2026-03-02","name":"Ana"}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code, "unmark before mark conflicts")

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/students/Ana", `{"confirmed":false}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "deletion requires confirmation")

	rec = doRequest(t, s, http.MethodPost, "/api/v1/attendance", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AdminAuth(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/attendance", `{"date":"2026-03-02","name":"Ana"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance", strings.NewReader(`{"date":"2026-03-02","name":"Ana"}`))
	req.SetBasicAuth("admin", "wrong")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Reads stay open.
	rec = doRequest(t, s, http.MethodGet, "/api/v1/students", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StudentLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/students", `{"name":"Bruno","initial_pack":4}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/students", `{"name":"Bruno","initial_pack":1}`, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, s, http.MethodPatch, "/api/v1/students/Bruno/active", `{"active":false}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/students/Bruno/recharge", `{"amount":2}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/students/Bruno/paydebt", `{"amount":9}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "overpayment rejected")

	rec = doRequest(t, s, http.MethodDelete, "/api/v1/students/Bruno", `{"confirmed":true}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/students", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Bruno")
}

func TestServer_WeekEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/attendance", `{"date":"2026-03-02","name":"Ana"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/weeks/2026-W10/summary", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_marks":1`)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/weeks/2026-W10/history", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-03-02")

	rec = doRequest(t, s, http.MethodGet, "/api/v1/weeks/bogus/summary", "", false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/v1/weeks/2026-W10/export", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"),
	)
	assert.NotZero(t, rec.Body.Len())
}

func TestServer_ReconcileOnDemand(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/reconcile", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The nop repos report an empty store, so the seeded roster shows
	// up as drift.
	rec = doRequest(t, s, http.MethodPost, "/api/v1/reconcile", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, float64(1), data["students_checked"])
	assert.NotEmpty(t, data["drifts"])
}

func TestServer_HealthAndReady(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.deps.ReadinessChecks = map[string]func(ctx context.Context) error{
		"postgres": func(context.Context) error { return context.DeadlineExceeded },
	}
	rec = doRequest(t, s, http.MethodGet, "/ready", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

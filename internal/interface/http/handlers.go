package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/studioroll/attendance-hub/internal/application/command"
	"github.com/studioroll/attendance-hub/internal/application/query"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

// handleReady runs the configured readiness probes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := map[string]string{}
	for name, check := range s.deps.ReadinessChecks {
		if err := check(r.Context()); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "not_ready",
			"failures": failures,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleGetStudents handles GET /api/v1/students.
func (s *Server) handleGetStudents(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.StudentRoster.Handle(r.Context(), query.StudentRosterQuery{})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetDay handles GET /api/v1/days/{date}.
func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.DayAttendance.Handle(r.Context(), query.DayAttendanceQuery{Date: r.PathValue("date")})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetWeekSummary handles GET /api/v1/weeks/{week}/summary.
func (s *Server) handleGetWeekSummary(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.WeeklySummary.Handle(r.Context(), query.WeeklySummaryQuery{WeekID: r.PathValue("week")})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetWeekHistory handles GET /api/v1/weeks/{week}/history.
func (s *Server) handleGetWeekHistory(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.WeekHistory.Handle(r.Context(), query.WeekHistoryQuery{WeekID: r.PathValue("week")})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExportWeek handles GET /api/v1/weeks/{week}/export.
func (s *Server) handleExportWeek(w http.ResponseWriter, r *http.Request) {
	week := r.PathValue("week")
	if s.deps.Exporter == nil {
		writeJSONError(w, http.StatusNotImplemented, "export_disabled", "Export is not configured")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.xlsx"`, week))
	if err := s.deps.Exporter.Export(r.Context(), week, w); err != nil {
		// Headers may already be written; log and bail.
		s.logger.Error("week export failed",
			logger.WeekID(week),
			logger.Err(err),
		)
	}
}

type markRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// handleMarkAttendance handles POST /api/v1/attendance.
func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.MarkAttendance.Handle(r.Context(), command.MarkAttendanceCommand{
		Date: req.Date,
		Name: req.Name,
	})
	if err != nil {
		if result == nil {
			s.writeDomainError(w, err)
			return
		}
		s.logPersistFailure(err)
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUnmarkAttendance handles DELETE /api/v1/attendance.
func (s *Server) handleUnmarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UnmarkAttendance.Handle(r.Context(), command.UnmarkAttendanceCommand{
		Date: req.Date,
		Name: req.Name,
	})
	if err != nil {
		if result == nil {
			s.writeDomainError(w, err)
			return
		}
		s.logPersistFailure(err)
	}
	writeJSON(w, http.StatusOK, result)
}

type enrollRequest struct {
	Name        string `json:"name"`
	InitialPack int    `json:"initial_pack"`
}

// handleEnrollStudent handles POST /api/v1/students.
func (s *Server) handleEnrollStudent(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.EnrollStudent.Handle(r.Context(), command.EnrollStudentCommand{
		Name:        req.Name,
		InitialPack: req.InitialPack,
	})
	if err != nil {
		if result == nil {
			s.writeDomainError(w, err)
			return
		}
		s.logPersistFailure(err)
	}
	writeJSON(w, http.StatusCreated, result)
}

type removeRequest struct {
	Confirmed bool `json:"confirmed"`
}

// handleRemoveStudent handles DELETE /api/v1/students/{name}.
func (s *Server) handleRemoveStudent(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RemoveStudent.Handle(r.Context(), command.RemoveStudentCommand{
		Name:      r.PathValue("name"),
		Confirmed: req.Confirmed,
	})
	if err != nil {
		if result == nil {
			s.writeDomainError(w, err)
			return
		}
		s.logPersistFailure(err)
	}
	writeJSON(w, http.StatusOK, result)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// handleSetStudentActive handles PATCH /api/v1/students/{name}/active.
func (s *Server) handleSetStudentActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SetStudentActive.Handle(r.Context(), command.SetStudentActiveCommand{
		Name:   r.PathValue("name"),
		Active: req.Active,
	})
	if err != nil {
		if result == nil {
			s.writeDomainError(w, err)
			return
		}
		s.logPersistFailure(err)
	}
	writeJSON(w, http.StatusOK, result)
}

type adjustRequest struct {
	Amount int `json:"amount"`
}

// handleRecharge handles POST /api/v1/students/{name}/recharge.
func (s *Server) handleRecharge(w http.ResponseWriter, r *http.Request) {
	s.handleAdjust(w, r, command.AdjustRecharge)
}

// handlePayDebt handles POST /api/v1/students/{name}/paydebt.
func (s *Server) handlePayDebt(w http.ResponseWriter, r *http.Request) {
	s.handleAdjust(w, r, command.AdjustPayDebt)
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request, kind command.AdjustmentKind) {
	var req adjustRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.AdjustBalance.Handle(r.Context(), command.AdjustBalanceCommand{
		Name:   r.PathValue("name"),
		Kind:   kind,
		Amount: req.Amount,
	})
	if err != nil {
		if result == nil {
			s.writeDomainError(w, err)
			return
		}
		s.logPersistFailure(err)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Reconcile.Handle(r.Context(), command.ReconcileCommand{})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// logPersistFailure notes a command that committed locally but failed
// to persist. The response still carries the committed state; the
// reconciliation sweep surfaces the drift.
func (s *Server) logPersistFailure(err error) {
	s.logger.Warn("command committed locally but store write failed", logger.Err(err))
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var de *shared.DomainError
	code := "error"
	if errors.As(err, &de) {
		code = de.Domain + "." + de.Op
	}

	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, student.ErrInactive):
		writeJSONError(w, http.StatusConflict, "inactive", err.Error())
	case shared.IsAlreadyExists(err) || shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, shared.ErrNotConfirmed):
		writeJSONError(w, http.StatusUnprocessableEntity, "not_confirmed", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		s.logger.Error("request failed", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, code, "Internal error")
	}
}

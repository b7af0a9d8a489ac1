package command

import (
	"context"
	"fmt"
	"sort"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// The ledger is local-first: the snapshot commits before the store and
// nothing rolls it back when a write fails, so store and snapshot can
// drift apart. Reconciliation makes that drift visible. It never
// auto-corrects; the report is logged and handed to the operator.

// DriftKind classifies one reconciliation finding.
type DriftKind string

const (
	// DriftStudentMissing - student in the snapshot but not the store.
	DriftStudentMissing DriftKind = "student_missing_in_store"
	// DriftStudentOrphaned - student in the store but not the snapshot.
	DriftStudentOrphaned DriftKind = "student_orphaned_in_store"
	// DriftBalanceMismatch - pack/debt/active differ between the two.
	DriftBalanceMismatch DriftKind = "balance_mismatch"
	// DriftDayMissing - attendance day in the snapshot but not the store.
	DriftDayMissing DriftKind = "day_missing_in_store"
	// DriftDayOrphaned - attendance day in the store but not the snapshot.
	DriftDayOrphaned DriftKind = "day_orphaned_in_store"
	// DriftDayMismatch - attendee lists differ for the same date.
	DriftDayMismatch DriftKind = "day_mismatch"
)

// Drift is one reconciliation finding.
type Drift struct {
	Kind   DriftKind `json:"kind"`
	Key    string    `json:"key"` // student name or date
	Detail string    `json:"detail,omitempty"`
}

// ReconcileCommand requests a reconciliation pass. It has no parameters;
// the whole consistency domain is always checked.
type ReconcileCommand struct{}

// ReconcileResult is the reconciliation report.
type ReconcileResult struct {
	StudentsChecked int     `json:"students_checked"`
	DaysChecked     int     `json:"days_checked"`
	Drifts          []Drift `json:"drifts,omitempty"`
}

// Clean reports whether the store and the snapshot agree.
func (r *ReconcileResult) Clean() bool {
	return len(r.Drifts) == 0
}

// ReconcileHandler handles ReconcileCommand.
type ReconcileHandler struct {
	deps Deps
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(deps Deps) *ReconcileHandler {
	return &ReconcileHandler{deps: deps}
}

// Handle reads both stores and compares them against the live snapshot.
// Unlike every other command this one performs I/O before touching the
// snapshot, but it only ever takes the read lock.
func (h *ReconcileHandler) Handle(ctx context.Context, _ ReconcileCommand) (*ReconcileResult, error) {
	stored, err := h.deps.Students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list students: %w", err)
	}
	storedDays, err := h.deps.Days.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list attendance: %w", err)
	}

	storedByName := make(map[string]*student.Student, len(stored))
	for _, s := range stored {
		storedByName[s.Name] = s
	}

	var result ReconcileResult
	h.deps.State.View(func(roster *student.Roster, index *attendance.Index) {
		for _, s := range roster.All() {
			result.StudentsChecked++
			ss, ok := storedByName[s.Name]
			if !ok {
				result.Drifts = append(result.Drifts, Drift{Kind: DriftStudentMissing, Key: s.Name})
				continue
			}
			if ss.Pack != s.Pack || ss.Debt != s.Debt || ss.Active != s.Active {
				result.Drifts = append(result.Drifts, Drift{
					Kind: DriftBalanceMismatch,
					Key:  s.Name,
					Detail: fmt.Sprintf("snapshot pack=%d debt=%d active=%t, store pack=%d debt=%d active=%t",
						s.Pack, s.Debt, s.Active, ss.Pack, ss.Debt, ss.Active),
				})
			}
			delete(storedByName, s.Name)
		}
		for name := range storedByName {
			result.Drifts = append(result.Drifts, Drift{Kind: DriftStudentOrphaned, Key: name})
		}

		seen := make(map[string]bool, len(storedDays))
		for _, date := range index.Dates() {
			result.DaysChecked++
			seen[date] = true
			storedNames, ok := storedDays[date]
			if !ok {
				result.Drifts = append(result.Drifts, Drift{Kind: DriftDayMissing, Key: date})
				continue
			}
			if !sameNameSet(index.Names(date), storedNames) {
				result.Drifts = append(result.Drifts, Drift{
					Kind:   DriftDayMismatch,
					Key:    date,
					Detail: fmt.Sprintf("snapshot %v, store %v", index.Names(date), storedNames),
				})
			}
		}
		for date := range storedDays {
			if !seen[date] {
				result.Drifts = append(result.Drifts, Drift{Kind: DriftDayOrphaned, Key: date})
			}
		}
	})

	sort.Slice(result.Drifts, func(i, j int) bool {
		if result.Drifts[i].Key != result.Drifts[j].Key {
			return result.Drifts[i].Key < result.Drifts[j].Key
		}
		return result.Drifts[i].Kind < result.Drifts[j].Kind
	})

	h.deps.publish(shared.ReconcileCompletedEvent{
		BaseEvent:       shared.NewBaseEvent(shared.EventReconcileCompleted, "ledger"),
		StudentsChecked: result.StudentsChecked,
		DaysChecked:     result.DaysChecked,
		DriftCount:      len(result.Drifts),
	})

	if result.Clean() {
		h.deps.log().Info("reconcile clean",
			logger.Int("students", result.StudentsChecked),
			logger.Int("days", result.DaysChecked),
		)
	} else {
		h.deps.log().Warn("reconcile found drift",
			logger.Int("students", result.StudentsChecked),
			logger.Int("days", result.DaysChecked),
			logger.Int("drifts", len(result.Drifts)),
		)
	}

	return &result, nil
}

// sameNameSet compares attendee lists ignoring order; insertion order is
// display-only and carries no semantic weight.
func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

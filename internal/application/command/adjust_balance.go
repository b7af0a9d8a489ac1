package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/shared"
	"github.com/studioroll/attendance-hub/internal/domain/student"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// AdjustmentKind selects which counter an administrative adjustment moves.
type AdjustmentKind string

const (
	// AdjustRecharge adds prepaid credits to the pack.
	AdjustRecharge AdjustmentKind = "recharge"

	// AdjustPayDebt settles owed classes.
	AdjustPayDebt AdjustmentKind = "paydebt"
)

// AdjustBalanceCommand applies an administrative balance adjustment,
// outside the attendance flow. The two counters stay independent: a
// recharge never touches debt and a payment never touches pack.
type AdjustBalanceCommand struct {
	// Name is the student's identity key.
	Name string

	// Kind selects recharge or debt payment.
	Kind AdjustmentKind

	// Amount is the number of classes, a positive integer.
	Amount int
}

// Validate validates the command. Amount bounds against the current
// debt are checked by the ledger entity under the state lock.
func (c AdjustBalanceCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return student.ErrInvalidName
	}
	switch c.Kind {
	case AdjustRecharge, AdjustPayDebt:
	default:
		return fmt.Errorf("adjust_balance: unknown kind %q", c.Kind)
	}
	if c.Amount < 1 {
		return student.ErrInvalidAmount
	}
	return nil
}

// AdjustBalanceResult reports the committed adjustment.
type AdjustBalanceResult struct {
	// Student is a snapshot of the updated ledger entry.
	Student *student.Student
}

// AdjustBalanceHandler handles AdjustBalanceCommand.
type AdjustBalanceHandler struct {
	deps Deps
}

// NewAdjustBalanceHandler creates a new AdjustBalanceHandler.
func NewAdjustBalanceHandler(deps Deps) *AdjustBalanceHandler {
	return &AdjustBalanceHandler{deps: deps}
}

// Handle executes the adjustment. Overpaying a debt is rejected with
// ErrOverpayment and leaves all state unchanged.
func (h *AdjustBalanceHandler) Handle(ctx context.Context, cmd AdjustBalanceCommand) (*AdjustBalanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result    AdjustBalanceResult
		studentID string
		fields    student.Fields
	)

	err := h.deps.State.Mutate(func(roster *student.Roster, _ *attendance.Index) error {
		s, err := roster.Get(cmd.Name)
		if err != nil {
			return err
		}

		switch cmd.Kind {
		case AdjustRecharge:
			if err := s.Recharge(cmd.Amount); err != nil {
				return err
			}
			fields = student.PackField(s.Pack)
		case AdjustPayDebt:
			if err := s.PayDebt(cmd.Amount); err != nil {
				return err
			}
			fields = student.DebtField(s.Debt)
		}

		studentID = s.ID
		result.Student = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.deps.publish(shared.StudentBalanceAdjustedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventStudentBalanceAdjusted, studentID),
		Name:      cmd.Name,
		Kind:      string(cmd.Kind),
		Amount:    cmd.Amount,
		Pack:      int(result.Student.Pack),
		Debt:      int(result.Student.Debt),
	})
	h.deps.log().Info("balance adjusted",
		logger.StudentName(cmd.Name),
		logger.String("kind", string(cmd.Kind)),
		logger.Int("amount", cmd.Amount),
		logger.Pack(int(result.Student.Pack)),
		logger.Debt(int(result.Student.Debt)),
	)

	if persistErr := h.deps.Students.Update(ctx, studentID, fields); persistErr != nil {
		return &result, fmt.Errorf("adjust_balance: persist: %w", persistErr)
	}

	return &result, nil
}

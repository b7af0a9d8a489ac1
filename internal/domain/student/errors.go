package student

import (
	"github.com/studioroll/attendance-hub/internal/domain/shared"
)

// Student domain errors. All are local validation failures surfaced to
// the caller for user-facing messaging; none are retried.
var (
	// ErrNotFound - no student with the given name exists.
	ErrNotFound = shared.NewDomainError("student", "Find", shared.ErrNotFound, "student not found")

	// ErrDuplicateName - a student with that exact name already exists,
	// active or not. Name matching is case-sensitive.
	ErrDuplicateName = shared.NewDomainError("student", "Create", shared.ErrAlreadyExists, "a student with that name already exists")

	// ErrInvalidName - empty or whitespace-only name.
	ErrInvalidName = shared.NewDomainError("student", "Validate", shared.ErrEmptyValue, "student name cannot be empty")

	// ErrInactive - the operation requires an active student.
	ErrInactive = shared.NewDomainError("student", "CheckStatus", shared.ErrInvalidState, "student is inactive")

	// ErrInvalidAmount - an administrative adjustment amount was not a
	// positive integer.
	ErrInvalidAmount = shared.NewDomainError("student", "Adjust", shared.ErrInvalidInput, "amount must be a positive integer")

	// ErrOverpayment - a debt payment exceeded the outstanding debt.
	ErrOverpayment = shared.NewDomainError("student", "PayDebt", shared.ErrInvalidInput, "payment exceeds outstanding debt")
)

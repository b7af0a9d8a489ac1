// Package student contains the student ledger domain model: each student
// carries a prepaid pack balance and a debt balance, and every attendance
// mark moves exactly one of the two by exactly one. This is the core of
// the business logic - no external dependencies beyond uuid.
package student

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pack represents the prepaid count of remaining class credits.
type Pack int

// IsValid checks that the pack balance is non-negative.
func (p Pack) IsValid() bool {
	return p >= 0
}

// Debt represents the count of classes attended beyond available credits.
type Debt int

// IsValid checks that the debt balance is non-negative.
func (d Debt) IsValid() bool {
	return d >= 0
}

// BalanceState classifies a student's position in the credit state machine.
type BalanceState string

const (
	// BalanceCredited - the student has unused pack credits (pack > 0, debt = 0).
	BalanceCredited BalanceState = "credited"
	// BalanceNeutral - no credits and no debt (pack = 0, debt = 0).
	BalanceNeutral BalanceState = "neutral"
	// BalanceInDebt - the student owes classes (debt > 0).
	BalanceInDebt BalanceState = "in_debt"
)

// AttendEffect records which balance an attendance mark or reversal moved.
type AttendEffect string

const (
	// EffectConsumedPack - the mark drained one pack credit.
	EffectConsumedPack AttendEffect = "consumed_pack"
	// EffectIncurredDebt - the mark incurred one debt unit.
	EffectIncurredDebt AttendEffect = "incurred_debt"
	// EffectRefundedPack - the reversal refunded one pack credit.
	EffectRefundedPack AttendEffect = "refunded_pack"
	// EffectClearedDebt - the reversal cleared one debt unit.
	EffectClearedDebt AttendEffect = "cleared_debt"
)

// ConsumedPack reports whether the effect drained a pack credit.
func (e AttendEffect) ConsumedPack() bool {
	return e == EffectConsumedPack
}

// RefundedPack reports whether the effect refunded a pack credit.
func (e AttendEffect) RefundedPack() bool {
	return e == EffectRefundedPack
}

// Student is the central ledger entity. Name is the external identity key:
// case-sensitive, unique among all students whether active or not.
type Student struct {
	// ID is the internal document identifier (UUID in string form).
	ID string

	// Name identifies the student to the attendance index.
	Name string

	// Pack is the prepaid class-credit balance.
	Pack Pack

	// Debt is the owed-classes balance.
	Debt Debt

	// Active marks whether the student may be given attendance.
	Active bool

	// CreatedAt is when the record was created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last modified.
	UpdatedAt time.Time
}

// NewStudent creates a student with a fresh UUID. The name is trimmed and
// must be non-empty; a negative initial pack is clamped to zero, matching
// the enrollment form's behavior.
func NewStudent(name string, initialPack int) (*Student, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if initialPack < 0 {
		initialPack = 0
	}

	now := time.Now().UTC()
	return &Student{
		ID:        uuid.NewString(),
		Name:      name,
		Pack:      Pack(initialPack),
		Debt:      0,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// BalanceState returns the student's position in the credit state machine.
func (s *Student) BalanceState() BalanceState {
	switch {
	case s.Debt > 0:
		return BalanceInDebt
	case s.Pack > 0:
		return BalanceCredited
	default:
		return BalanceNeutral
	}
}

// Attend applies the balance effect of one attendance mark: pack is
// drained before debt is incurred, and exactly one of the two counters
// moves by exactly 1. The caller must have checked Active already; this
// method is pure balance accounting.
func (s *Student) Attend() AttendEffect {
	s.UpdatedAt = time.Now().UTC()
	if s.Pack > 0 {
		s.Pack--
		return EffectConsumedPack
	}
	s.Debt++
	return EffectIncurredDebt
}

// RevertAttendance applies the inverse of one attendance mark: debt is
// cleared before pack is refunded. The ledger keeps no per-mark record of
// which branch Attend fired, so this is a heuristic inverse - it assumes
// the most recent mark created the outstanding debt. A recharge between
// mark and unmark can misattribute the refund; the emitted domain events
// carry the branch taken so callers can audit.
func (s *Student) RevertAttendance() AttendEffect {
	s.UpdatedAt = time.Now().UTC()
	if s.Debt > 0 {
		s.Debt--
		return EffectClearedDebt
	}
	s.Pack++
	return EffectRefundedPack
}

// Recharge adds prepaid credits. The amount must be a positive integer;
// debt is never touched (the two counters are independent).
func (s *Student) Recharge(amount int) error {
	if amount < 1 {
		return ErrInvalidAmount
	}
	s.Pack += Pack(amount)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// PayDebt settles owed classes. The amount must be a positive integer no
// greater than the current debt.
func (s *Student) PayDebt(amount int) error {
	if amount < 1 {
		return ErrInvalidAmount
	}
	if Debt(amount) > s.Debt {
		return ErrOverpayment
	}
	s.Debt -= Debt(amount)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetActive toggles the student's active flag. Idempotent, no balance
// side effects.
func (s *Student) SetActive(active bool) {
	if s.Active == active {
		return
	}
	s.Active = active
	s.UpdatedAt = time.Now().UTC()
}

// Clone creates a copy of the student, for read-only snapshots handed to
// queries and renderers.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

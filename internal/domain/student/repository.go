package student

import (
	"context"
)

// Fields carries a partial update for a student document. Nil fields are
// left untouched, mirroring the document store's partial-write semantics.
// The accounting engine sends only the counter that an operation actually
// moved.
type Fields struct {
	Pack   *Pack
	Debt   *Debt
	Active *bool
}

// PackField builds a partial update touching only the pack balance.
func PackField(p Pack) Fields {
	return Fields{Pack: &p}
}

// DebtField builds a partial update touching only the debt balance.
func DebtField(d Debt) Fields {
	return Fields{Debt: &d}
}

// ActiveField builds a partial update touching only the active flag.
func ActiveField(active bool) Fields {
	return Fields{Active: &active}
}

// Repository defines the persistence contract for student documents.
// Implementations live in infrastructure/persistence. The store is an
// eventually-persisted key/value document store; the core relies on
// nothing beyond last-write-wins per key.
type Repository interface {
	// List returns every student document.
	List(ctx context.Context) ([]*Student, error)

	// Create persists a new student and returns the stored document ID.
	// Returns ErrDuplicateName if the name is already taken.
	Create(ctx context.Context, s *Student) (string, error)

	// Update applies a partial field update to the identified document.
	// Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, id string, fields Fields) error

	// Delete removes the identified document.
	// Returns ErrNotFound if the document does not exist.
	Delete(ctx context.Context, id string) error
}

package attendance

import (
	"context"
)

// Repository defines the persistence contract for attendance day
// documents: one document per calendar date, holding the names present
// that day. Implementations live in infrastructure/persistence. The core
// relies on nothing beyond last-write-wins per key.
type Repository interface {
	// List returns every day document as a date -> names mapping.
	List(ctx context.Context) (map[string][]string, error)

	// Set writes the full attendee list for a date, creating the
	// document if needed.
	Set(ctx context.Context, date string, names []string) error

	// Delete removes the document for a date. Deleting an absent date
	// is not an error.
	Delete(ctx context.Context, date string) error
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studioroll/attendance-hub/pkg/isoweek"
)

// AttendanceRepository implements attendance.Repository for PostgreSQL.
// Each class date maps to one row whose names column is the full
// attendee list; Set overwrites the row, last write wins per date.
type AttendanceRepository struct {
	conn *Connection
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(conn *Connection) *AttendanceRepository {
	return &AttendanceRepository{conn: conn}
}

// List returns every recorded day keyed by date string.
func (r *AttendanceRepository) List(ctx context.Context) (map[string][]string, error) {
	rows, err := r.conn.Query(ctx, "SELECT date, names FROM attendance_days")
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	defer rows.Close()

	days := make(map[string][]string)
	for rows.Next() {
		var date time.Time
		var names []string
		if err := rows.Scan(&date, &names); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		days[date.Format(isoweek.DateLayout)] = names
	}
	return days, rows.Err()
}

// Set upserts the attendee list for a date.
func (r *AttendanceRepository) Set(ctx context.Context, date string, names []string) error {
	query := `
		INSERT INTO attendance_days (date, names, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (date) DO UPDATE
		SET names = EXCLUDED.names, updated_at = NOW()
	`

	if _, err := r.conn.Exec(ctx, query, date, names); err != nil {
		return fmt.Errorf("failed to set attendance day %s: %w", date, err)
	}
	return nil
}

// Delete removes the row for a date. Deleting an absent date is not an
// error; the caller already decided the day is gone.
func (r *AttendanceRepository) Delete(ctx context.Context, date string) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM attendance_days WHERE date = $1", date); err != nil {
		return fmt.Errorf("failed to delete attendance day %s: %w", date, err)
	}
	return nil
}

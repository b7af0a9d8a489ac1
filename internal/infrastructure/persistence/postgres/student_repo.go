package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studioroll/attendance-hub/internal/domain/student"
)

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

// List returns every student row.
func (r *StudentRepository) List(ctx context.Context) ([]*student.Student, error) {
	query := `
		SELECT id, name, pack, debt, active, created_at, updated_at
		FROM students
		ORDER BY name
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []*student.Student
	for rows.Next() {
		var s student.Student
		var pack, debt int
		if err := rows.Scan(&s.ID, &s.Name, &pack, &debt, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		s.Pack = student.Pack(pack)
		s.Debt = student.Debt(debt)
		students = append(students, &s)
	}
	return students, rows.Err()
}

// Create inserts a new student row.
func (r *StudentRepository) Create(ctx context.Context, s *student.Student) (string, error) {
	query := `
		INSERT INTO students (id, name, pack, debt, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		s.ID,
		s.Name,
		int(s.Pack),
		int(s.Debt),
		s.Active,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return "", student.ErrDuplicateName
		}
		return "", fmt.Errorf("failed to create student: %w", err)
	}
	return s.ID, nil
}

// Update writes only the fields that are set. A no-field update is a no-op.
func (r *StudentRepository) Update(ctx context.Context, id string, fields student.Fields) error {
	set := make([]string, 0, 4)
	args := make([]any, 0, 5)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if fields.Pack != nil {
		set = append(set, "pack = "+arg(int(*fields.Pack)))
	}
	if fields.Debt != nil {
		set = append(set, "debt = "+arg(int(*fields.Debt)))
	}
	if fields.Active != nil {
		set = append(set, "active = "+arg(*fields.Active))
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = "+arg(time.Now().UTC()))

	query := "UPDATE students SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = " + arg(id)

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return student.ErrNotFound
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return student.ErrNotFound
	}
	return nil
}

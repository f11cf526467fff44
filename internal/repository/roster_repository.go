package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/courseware/internal/model"
)

// RosterRepository handles batch membership.
type RosterRepository interface {
	List(ctx context.Context, batchID int64) ([]model.Student, error)
	// Add returns ErrDuplicate when the student is already enrolled.
	Add(ctx context.Context, batchID, studentID int64) error
	// Remove returns ErrNotFound when the student was not enrolled.
	Remove(ctx context.Context, batchID, studentID int64) error
}

type rosterRepository struct {
	db *pgxpool.Pool
}

func NewRosterRepository(db *pgxpool.Pool) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) List(ctx context.Context, batchID int64) ([]model.Student, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.first_name, s.last_name, s.email, s.created_at
		FROM batch_students bs
		JOIN students s ON s.id = bs.student_id
		WHERE bs.batch_id = $1
		ORDER BY s.first_name ASC, s.last_name ASC, s.email ASC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *rosterRepository) Add(ctx context.Context, batchID, studentID int64) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO batch_students (batch_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		batchID, studentID,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *rosterRepository) Remove(ctx context.Context, batchID, studentID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM batch_students WHERE batch_id = $1 AND student_id = $2`,
		batchID, studentID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

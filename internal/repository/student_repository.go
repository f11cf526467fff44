package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/courseware/internal/model"
)

type StudentRepository interface {
	// Search matches q against names and email. An empty q lists everyone.
	Search(ctx context.Context, q string, limit int) ([]model.Student, error)
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	Create(ctx context.Context, s *model.Student) error
}

type studentRepository struct {
	db *pgxpool.Pool
}

func NewStudentRepository(db *pgxpool.Pool) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Search(ctx context.Context, q string, limit int) ([]model.Student, error) {
	query := `
		SELECT id, first_name, last_name, email, created_at
		FROM students
		WHERE $1 = ''
		   OR email ILIKE '%' || $1 || '%'
		   OR (first_name || ' ' || last_name) ILIKE '%' || $1 || '%'
		ORDER BY first_name ASC, last_name ASC, email ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, escapeLike(strings.TrimSpace(q)), limit)
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

func (r *studentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	s := &model.Student{}
	err := r.db.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, created_at FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	s := &model.Student{}
	err := r.db.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, created_at FROM students WHERE lower(email) = lower($1)`, email,
	).Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

func (r *studentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO students (first_name, last_name, email)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.FirstName, s.LastName, s.Email,
	).Scan(&s.ID, &s.CreatedAt)
	return translate(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

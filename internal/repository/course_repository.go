package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/courseware/internal/model"
)

type CourseRepository interface {
	List(ctx context.Context) ([]model.Course, error)
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	// Delete removes the course with everything beneath it and returns the
	// storage keys of the files that went with it.
	Delete(ctx context.Context, id int64) ([]string, error)
}

type courseRepository struct {
	db *pgxpool.Pool
}

func NewCourseRepository(db *pgxpool.Pool) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context) ([]model.Course, error) {
	query := `SELECT id, title, description, created_at, updated_at FROM courses ORDER BY title ASC, id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]model.Course, 0)
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	query := `SELECT id, title, description, created_at, updated_at FROM courses WHERE id = $1`
	c := &model.Course{}
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	query := `
		INSERT INTO courses (title, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, course.Title, course.Description).
		Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	return translate(err)
}

func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	query := `
		UPDATE courses
		SET title = $1, description = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, course.Title, course.Description, course.ID).
		Scan(&course.CreatedAt, &course.UpdatedAt)
	return translate(err)
}

func (r *courseRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	var keys []string
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT fi.storage_key
			FROM files fi
			JOIN folders fo ON fo.id = fi.folder_id
			JOIN batches b ON b.id = fo.batch_id
			WHERE b.course_id = $1`, id)
		if err != nil {
			return err
		}
		keys, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect storage keys: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return keys, nil
}

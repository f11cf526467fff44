package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/courseware/internal/model"
)

type BatchRepository interface {
	ListByCourse(ctx context.Context, courseID int64) ([]model.Batch, error)
	GetByID(ctx context.Context, id int64) (*model.Batch, error)
	Create(ctx context.Context, batch *model.Batch) error
}

type batchRepository struct {
	db *pgxpool.Pool
}

func NewBatchRepository(db *pgxpool.Pool) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) ListByCourse(ctx context.Context, courseID int64) ([]model.Batch, error) {
	query := `SELECT id, course_id, name, created_at FROM batches WHERE course_id = $1 ORDER BY name ASC, id ASC`
	rows, err := r.db.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := make([]model.Batch, 0)
	for rows.Next() {
		var b model.Batch
		if err := rows.Scan(&b.ID, &b.CourseID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (r *batchRepository) GetByID(ctx context.Context, id int64) (*model.Batch, error) {
	query := `SELECT id, course_id, name, created_at FROM batches WHERE id = $1`
	b := &model.Batch{}
	if err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.CourseID, &b.Name, &b.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (r *batchRepository) Create(ctx context.Context, batch *model.Batch) error {
	query := `
		INSERT INTO batches (course_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, batch.CourseID, batch.Name).Scan(&batch.ID, &batch.CreatedAt)
	return translate(err)
}

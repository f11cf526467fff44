package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/courseware/internal/model"
)

type FileRepository interface {
	ListByFolder(ctx context.Context, folderID int64) ([]model.File, error)
	Create(ctx context.Context, file *model.File) error
}

type fileRepository struct {
	db *pgxpool.Pool
}

func NewFileRepository(db *pgxpool.Pool) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) ListByFolder(ctx context.Context, folderID int64) ([]model.File, error) {
	query := `
		SELECT id, folder_id, name, storage_key, url, content_type, size_bytes, created_at
		FROM files WHERE folder_id = $1
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]model.File, 0)
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.FolderID, &f.Name, &f.StorageKey, &f.URL, &f.ContentType, &f.SizeBytes, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	query := `
		INSERT INTO files (folder_id, name, storage_key, url, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		file.FolderID, file.Name, file.StorageKey, file.URL, file.ContentType, file.SizeBytes,
	).Scan(&file.ID, &file.CreatedAt)
	return translate(err)
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/courseware/internal/model"
)

type FolderRepository interface {
	// ListByBatch returns every folder of the batch regardless of depth.
	ListByBatch(ctx context.Context, batchID int64) ([]model.Folder, error)
	GetByID(ctx context.Context, id int64) (*model.Folder, error)
	Create(ctx context.Context, folder *model.Folder) error
	Rename(ctx context.Context, id int64, name string) error
	// Delete removes the folder subtree and returns the storage keys of the
	// files it contained.
	Delete(ctx context.Context, id int64) ([]string, error)
}

type folderRepository struct {
	db *pgxpool.Pool
}

func NewFolderRepository(db *pgxpool.Pool) FolderRepository {
	return &folderRepository{db: db}
}

const folderColumns = `f.id, f.batch_id, f.name, f.parent_id, p.name, f.created_at`

func scanFolder(row pgx.Row) (model.Folder, error) {
	var (
		f          model.Folder
		parentID   *int64
		parentName *string
	)
	if err := row.Scan(&f.ID, &f.BatchID, &f.Name, &parentID, &parentName, &f.CreatedAt); err != nil {
		return f, err
	}
	if parentID != nil {
		f.Parent = &model.FolderRef{ID: *parentID}
		if parentName != nil {
			f.Parent.Name = *parentName
		}
	}
	return f, nil
}

func (r *folderRepository) ListByBatch(ctx context.Context, batchID int64) ([]model.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders f
		LEFT JOIN folders p ON p.id = f.parent_id
		WHERE f.batch_id = $1
		ORDER BY f.name ASC, f.id ASC
	`
	rows, err := r.db.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := make([]model.Folder, 0)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (r *folderRepository) GetByID(ctx context.Context, id int64) (*model.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders f
		LEFT JOIN folders p ON p.id = f.parent_id
		WHERE f.id = $1
	`
	f, err := scanFolder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (r *folderRepository) Create(ctx context.Context, folder *model.Folder) error {
	var parentID *int64
	if folder.Parent != nil {
		parentID = &folder.Parent.ID
	}
	query := `
		INSERT INTO folders (batch_id, parent_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, folder.BatchID, parentID, folder.Name).Scan(&folder.ID, &folder.CreatedAt)
	return translate(err)
}

func (r *folderRepository) Rename(ctx context.Context, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE folders SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *folderRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	var keys []string
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			WITH RECURSIVE subtree AS (
				SELECT id FROM folders WHERE id = $1
				UNION ALL
				SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id
			)
			SELECT storage_key FROM files WHERE folder_id IN (SELECT id FROM subtree)`, id)
		if err != nil {
			return err
		}
		keys, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect storage keys: %w", err)
		}

		// Children and files go through ON DELETE CASCADE.
		tag, err := tx.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
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

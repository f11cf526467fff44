package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/courseware/internal/model"
)

// DashboardRepository reads aggregate numbers for the staff dashboard.
type DashboardRepository interface {
	// SummaryCounts fills every total of the summary. RecentUploads is left alone.
	SummaryCounts(ctx context.Context, summary *model.DashboardSummary) error
	RecentUploads(ctx context.Context, limit int) ([]model.RecentUpload, error)
}

type dashboardRepository struct {
	db *pgxpool.Pool
}

func NewDashboardRepository(db *pgxpool.Pool) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) SummaryCounts(ctx context.Context, s *model.DashboardSummary) error {
	return r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM batches),
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM batch_students),
			(SELECT COUNT(*) FROM folders),
			(SELECT COUNT(*) FROM files),
			(SELECT COALESCE(SUM(size_bytes), 0) FROM files)`,
	).Scan(
		&s.TotalCourses, &s.TotalBatches, &s.TotalStudents, &s.TotalEnrollments,
		&s.TotalFolders, &s.TotalFiles, &s.StorageBytes,
	)
}

func (r *dashboardRepository) RecentUploads(ctx context.Context, limit int) ([]model.RecentUpload, error) {
	rows, err := r.db.Query(ctx,
		`SELECT f.id, f.name, f.url, f.size_bytes,
		        fo.id, fo.name, b.id, b.name, c.id, c.title, f.created_at
		 FROM files f
		 JOIN folders fo ON fo.id = f.folder_id
		 JOIN batches b ON b.id = fo.batch_id
		 JOIN courses c ON c.id = b.course_id
		 ORDER BY f.created_at DESC, f.id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := []model.RecentUpload{}
	for rows.Next() {
		var u model.RecentUpload
		if err := rows.Scan(
			&u.FileID, &u.Name, &u.URL, &u.SizeBytes,
			&u.FolderID, &u.FolderName, &u.BatchID, &u.BatchName,
			&u.CourseID, &u.CourseTitle, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

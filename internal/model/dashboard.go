package model

import "time"

// DashboardSummary is the staff landing page: catalogue totals plus the
// latest uploads.
type DashboardSummary struct {
	TotalCourses     int            `json:"total_courses"`
	TotalBatches     int            `json:"total_batches"`
	TotalStudents    int            `json:"total_students"`
	TotalEnrollments int            `json:"total_enrollments"`
	TotalFolders     int            `json:"total_folders"`
	TotalFiles       int            `json:"total_files"`
	StorageBytes     int64          `json:"storage_bytes"`
	RecentUploads    []RecentUpload `json:"recent_uploads"`
}

// RecentUpload is a file with enough context to link back into the tree.
type RecentUpload struct {
	FileID      int64     `json:"file_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	SizeBytes   int64     `json:"size_bytes"`
	FolderID    int64     `json:"folder_id"`
	FolderName  string    `json:"folder_name"`
	BatchID     int64     `json:"batch_id"`
	BatchName   string    `json:"batch_name"`
	CourseID    int64     `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	CreatedAt   time.Time `json:"created_at"`
}

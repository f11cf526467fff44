package model

import "time"

// Course is the top of the content hierarchy.
type Course struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// Batch is one cohort of a course. Folders and the roster hang off it.
type Batch struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBatchRequest is the payload for adding a batch to a course.
type CreateBatchRequest struct {
	Name string `json:"name" binding:"required,notblank,max=120"`
}

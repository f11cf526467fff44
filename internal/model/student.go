package model

import (
	"strings"
	"time"
)

// Student is a learner that can be enrolled in batches.
type Student struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName is "first last", or the email when both are empty.
func (s Student) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Email
	}
	return name
}

// CreateStudentRequest is the payload used by the seeder and directory imports.
type CreateStudentRequest struct {
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Email     string `json:"email" binding:"required,email,max=255"`
}

// StudentSearchQuery filters the student directory.
type StudentSearchQuery struct {
	Q     string `form:"q" binding:"max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AddMemberRequest enrolls a student by email or by id. Exactly one is used;
// email wins when both are present.
type AddMemberRequest struct {
	Email     string `json:"email" binding:"omitempty,email,max=255"`
	StudentID int64  `json:"student_id" binding:"omitempty,gt=0"`
}

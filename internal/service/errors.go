package service

import "errors"

// Domain errors returned by the content services. Handlers map them to
// response codes with errors.Is.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrBatchNotFound   = errors.New("batch not found")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrParentNotFound  = errors.New("parent folder not found")
	ErrParentMismatch  = errors.New("parent folder belongs to another batch")
	ErrDuplicateName   = errors.New("name already used at this level")
	ErrStudentNotFound = errors.New("student not found")
	ErrAlreadyMember   = errors.New("student already in batch")
	ErrNotMember       = errors.New("student not in batch")
	ErrStudentExists   = errors.New("student email already registered")
)

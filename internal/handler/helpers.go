package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/courseware/internal/repository"
	"github.com/stemsi/courseware/internal/response"
	"github.com/stemsi/courseware/internal/service"
)

// paramID parses a positive int64 path parameter. On failure it has already
// written a 400 response.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failService maps service and repository errors onto the response envelope.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrBatchNotFound),
		errors.Is(err, service.ErrFolderNotFound),
		errors.Is(err, service.ErrParentNotFound),
		errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrStudentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrStudentUnknown)
	case errors.Is(err, service.ErrParentMismatch):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrParentMismatch)
	case errors.Is(err, service.ErrDuplicateName),
		errors.Is(err, service.ErrStudentExists),
		errors.Is(err, repository.ErrDuplicate):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrNotMember):
		response.Fail(c, http.StatusNotFound, response.ErrNotInBatch)
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

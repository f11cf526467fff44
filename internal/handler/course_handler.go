package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/response"
	"github.com/stemsi/courseware/internal/service"
	"github.com/stemsi/courseware/internal/validator"
)

// CourseHandler serves the course catalogue and its batches.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// ListCourses godoc
// GET /api/v1/courses
// Lists every course ordered by title.
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.ListCourses(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, courses)
}

// CreateCourse godoc
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req model.CourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, course)
}

// UpdateCourse godoc
// PUT /api/v1/courses/:course_id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := paramID(c, "course_id")
	if !ok {
		return
	}

	var req model.CourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.UpdateCourse(c.Request.Context(), id, req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, course)
}

// DeleteCourse godoc
// DELETE /api/v1/courses/:course_id
// Deletes a course together with its batches, folders and files.
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := paramID(c, "course_id")
	if !ok {
		return
	}

	if err := h.courseService.DeleteCourse(c.Request.Context(), id); err != nil {
		failService(c, err)
		return
	}
	response.Done(c, "Course berhasil dihapus.")
}

// ListBatches godoc
// GET /api/v1/courses/:course_id/batches
func (h *CourseHandler) ListBatches(c *gin.Context) {
	courseID, ok := paramID(c, "course_id")
	if !ok {
		return
	}

	batches, err := h.courseService.ListBatches(c.Request.Context(), courseID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, batches)
}

// CreateBatch godoc
// POST /api/v1/courses/:course_id/batches
func (h *CourseHandler) CreateBatch(c *gin.Context) {
	courseID, ok := paramID(c, "course_id")
	if !ok {
		return
	}

	var req model.CreateBatchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	batch, err := h.courseService.CreateBatch(c.Request.Context(), courseID, req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, batch)
}

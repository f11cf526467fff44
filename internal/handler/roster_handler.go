package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/response"
	"github.com/stemsi/courseware/internal/service"
	"github.com/stemsi/courseware/internal/validator"
)

// RosterHandler handles batch membership and the student directory.
type RosterHandler struct {
	rosterService service.RosterService
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(rosterService service.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

// ListMembers godoc
// GET /api/v1/courses/:course_id/batches/:batch_id/students
func (h *RosterHandler) ListMembers(c *gin.Context) {
	courseID, ok := paramID(c, "course_id")
	if !ok {
		return
	}
	batchID, ok := paramID(c, "batch_id")
	if !ok {
		return
	}

	students, err := h.rosterService.List(c.Request.Context(), courseID, batchID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, students)
}

// AddMember godoc
// POST /api/v1/courses/:course_id/batches/:batch_id/students
// Enrolls a student by {email} or {student_id}. A student who is already
// enrolled gets a 200 with success=false and code ALREADY_IN_BATCH.
func (h *RosterHandler) AddMember(c *gin.Context) {
	courseID, ok := paramID(c, "course_id")
	if !ok {
		return
	}
	batchID, ok := paramID(c, "batch_id")
	if !ok {
		return
	}

	var req model.AddMemberRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Email == "" && req.StudentID == 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"email": "email or student_id is required"})
		return
	}

	student, err := h.rosterService.Add(c.Request.Context(), courseID, batchID, req)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyMember) {
			response.Decline(c, response.ErrAlreadyInBatch)
			return
		}
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, student)
}

// RemoveMember godoc
// DELETE /api/v1/courses/:course_id/batches/:batch_id/students/:student
// The :student segment is an email or a numeric id.
func (h *RosterHandler) RemoveMember(c *gin.Context) {
	courseID, ok := paramID(c, "course_id")
	if !ok {
		return
	}
	batchID, ok := paramID(c, "batch_id")
	if !ok {
		return
	}

	if err := h.rosterService.Remove(c.Request.Context(), courseID, batchID, c.Param("student")); err != nil {
		failService(c, err)
		return
	}
	response.Done(c, "Siswa berhasil dikeluarkan dari batch.")
}

// ListStudents godoc
// GET /api/v1/admin/students?q=&limit=
// Lists the student directory for enrollment pickers.
func (h *RosterHandler) ListStudents(c *gin.Context) {
	var query model.StudentSearchQuery
	if fields := validator.BindQuery(c, &query); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	students, err := h.rosterService.SearchStudents(c.Request.Context(), query.Q, query.Limit)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, students)
}

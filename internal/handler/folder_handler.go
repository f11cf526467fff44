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

// multipartOverhead leaves room for boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// FolderHandler serves the folder tree of a batch and the files inside folders.
type FolderHandler struct {
	folderService  service.FolderService
	fileService    service.FileService
	maxUploadBytes int64
}

// NewFolderHandler creates a new FolderHandler.
func NewFolderHandler(folderService service.FolderService, fileService service.FileService, maxUploadBytes int64) *FolderHandler {
	return &FolderHandler{
		folderService:  folderService,
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
	}
}

// ListFolders godoc
// GET /api/v1/batches/:batch_id/folders
// Returns every folder of the batch, at all depths. Clients filter by parent.
func (h *FolderHandler) ListFolders(c *gin.Context) {
	batchID, ok := paramID(c, "batch_id")
	if !ok {
		return
	}

	folders, err := h.folderService.ListByBatch(c.Request.Context(), batchID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, folders)
}

// CreateFolder godoc
// POST /api/v1/folders
// Creates a folder at the batch root or under parent_id.
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	var req model.CreateFolderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	folder, err := h.folderService.Create(c.Request.Context(), req)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, folder)
}

// RenameFolder godoc
// PUT /api/v1/folders/:folder_id
// Renames a folder. Answers {success, message}.
func (h *FolderHandler) RenameFolder(c *gin.Context) {
	id, ok := paramID(c, "folder_id")
	if !ok {
		return
	}

	var req model.RenameFolderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.folderService.Rename(c.Request.Context(), id, req.Name); err != nil {
		failService(c, err)
		return
	}
	response.Done(c, "Folder berhasil diubah.")
}

// DeleteFolder godoc
// DELETE /api/v1/folders/:folder_id
// Deletes a folder with all of its sub-folders and files.
func (h *FolderHandler) DeleteFolder(c *gin.Context) {
	id, ok := paramID(c, "folder_id")
	if !ok {
		return
	}

	if err := h.folderService.Delete(c.Request.Context(), id); err != nil {
		failService(c, err)
		return
	}
	response.Done(c, "Folder berhasil dihapus.")
}

// ListFiles godoc
// GET /api/v1/folders/:folder_id/files
func (h *FolderHandler) ListFiles(c *gin.Context) {
	folderID, ok := paramID(c, "folder_id")
	if !ok {
		return
	}

	files, err := h.fileService.ListByFolder(c.Request.Context(), folderID)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusOK, files)
}

// UploadFile godoc
// POST /api/v1/folders/:folder_id/files
// Accepts a multipart form with a single "file" part.
func (h *FolderHandler) UploadFile(c *gin.Context) {
	folderID, ok := paramID(c, "folder_id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	rec, err := h.fileService.Upload(c.Request.Context(), folderID, file, header)
	if err != nil {
		failService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rec)
}

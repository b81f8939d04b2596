package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecolehub/ecole-api/internal/service"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
	"github.com/ecolehub/ecole-api/pkg/response"
)

// ImportHandler accepts student import uploads.
type ImportHandler struct {
	imports *service.ImportService
	maxSize int64
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService, maxSize int64) *ImportHandler {
	if maxSize <= 0 {
		maxSize = 5 << 20
	}
	return &ImportHandler{imports: imports, maxSize: maxSize}
}

// ImportStudents godoc
// @Summary Import students from a CSV, Excel or JSON file
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Import file"
// @Param schoolId formData string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /imports/students [post]
func (h *ImportHandler) ImportStudents(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Le fichier est trop volumineux"))
		return
	}
	schoolID := c.PostForm("schoolId")
	if schoolID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schoolId is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxSize))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	result, err := h.imports.ImportStudents(c.Request.Context(), data, fileHeader.Filename, schoolID)
	if err != nil {
		// fatal file errors still carry the parse result for display
		if result != nil && result.FileError != nil {
			response.JSON(c, result.FileError.Status, result, nil)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

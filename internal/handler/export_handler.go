package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecolehub/ecole-api/internal/caseconv"
	"github.com/ecolehub/ecole-api/internal/models"
	"github.com/ecolehub/ecole-api/internal/service"
	"github.com/ecolehub/ecole-api/pkg/response"
)

// ExportHandler serves roster downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// StudentRoster godoc
// @Summary Export the student roster
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param classId query string false "Filter by class"
// @Param keyCase query string false "Header case, e.g. snakeCase"
// @Success 200 {file} file
// @Router /exports/students [get]
func (h *ExportHandler) StudentRoster(c *gin.Context) {
	filter := models.StudentFilter{
		ClassID:  c.Query("classId"),
		SchoolID: c.Query("schoolId"),
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	keyCase := caseconv.Case(c.Query("keyCase"))

	payload, contentType, err := h.exports.StudentRoster(c.Request.Context(), filter, format, keyCase)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("eleves-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, contentType, payload)
}

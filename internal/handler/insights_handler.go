package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecolehub/ecole-api/internal/service"
	"github.com/ecolehub/ecole-api/pkg/response"
)

// InsightsHandler exposes derived student metrics.
type InsightsHandler struct {
	insights *service.InsightsService
}

// NewInsightsHandler constructs InsightsHandler.
func NewInsightsHandler(insights *service.InsightsService) *InsightsHandler {
	return &InsightsHandler{insights: insights}
}

// StudentInsights godoc
// @Summary Derived performance snapshot for a student
// @Tags Insights
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/insights [get]
func (h *InsightsHandler) StudentInsights(c *gin.Context) {
	insights, err := h.insights.StudentInsights(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, insights, nil)
}

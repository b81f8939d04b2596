package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecolehub/ecole-api/internal/models"
	"github.com/ecolehub/ecole-api/internal/service"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
	"github.com/ecolehub/ecole-api/pkg/response"
)

// LinkHandler exposes the parent-linking endpoints.
type LinkHandler struct {
	links *service.LinkService
}

// NewLinkHandler constructs LinkHandler.
func NewLinkHandler(links *service.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

// Issue godoc
// @Summary Issue a parent-linking code
// @Tags Links
// @Accept json
// @Produce json
// @Param payload body models.IssueLinkRequest true "Issue payload"
// @Success 201 {object} response.Envelope
// @Router /links [post]
func (h *LinkHandler) Issue(c *gin.Context) {
	var req models.IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	resp, err := h.links.Issue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Redeem godoc
// @Summary Redeem a parent-linking code
// @Tags Links
// @Accept json
// @Produce json
// @Param payload body models.RedeemLinkRequest true "Redeem payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /links/redeem [patch]
func (h *LinkHandler) Redeem(c *gin.Context) {
	var req models.RedeemLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	link, err := h.links.Redeem(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

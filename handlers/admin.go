package handlers

import (
	"net/http"

	"coverly/services/provider"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler exposes the provider review queue and decisions.
type AdminHandler struct {
	Providers provider.ProviderService
}

func NewAdminHandler(providers provider.ProviderService) *AdminHandler {
	return &AdminHandler{Providers: providers}
}

// ReviewQueueHandler lists providers awaiting verification.
func (h *AdminHandler) ReviewQueueHandler(c *gin.Context) {
	queue, err := h.Providers.ReviewQueue(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": queue})
}

// AdminListProvidersHandler lists every provider regardless of status.
func (h *AdminHandler) AdminListProvidersHandler(c *gin.Context) {
	providers, err := h.Providers.ListAll(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

// ReviewProviderHandler applies an admin decision to a provider.
func (h *AdminHandler) ReviewProviderHandler(c *gin.Context) {
	logger := getLogger(c)
	var req provider.AdminReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	adminID := c.GetHeader("x-auth-user-id")
	if adminID == "" {
		adminID = "admin"
	}
	p, err := h.Providers.AdminReview(c.Request.Context(), adminID, c.Param("id"), req)
	if err != nil {
		logger.Warn("admin review failed", zap.String("provider", c.Param("id")), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

package handlers

import (
	"net/http"

	"coverly/middleware"
	"coverly/services/provider"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProviderHandler exposes the provider registry over HTTP.
type ProviderHandler struct {
	Service provider.ProviderService
}

func NewProviderHandler(svc provider.ProviderService) *ProviderHandler {
	return &ProviderHandler{Service: svc}
}

// RegisterProviderHandler creates a provider profile for the caller.
func (h *ProviderHandler) RegisterProviderHandler(c *gin.Context) {
	logger := getLogger(c)
	var req provider.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	result, err := h.Service.Register(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		logger.Warn("provider registration failed", zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetProvidersHandler lists active providers with public fields only.
func (h *ProviderHandler) GetProvidersHandler(c *gin.Context) {
	providers, err := h.Service.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

// GetProviderByIDHandler returns one provider; owners see private fields.
func (h *ProviderHandler) GetProviderByIDHandler(c *gin.Context) {
	p, err := h.Service.GetByID(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProviderHandler applies a partial self-edit.
func (h *ProviderHandler) UpdateProviderHandler(c *gin.Context) {
	var patch provider.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	p, err := h.Service.Update(c.Request.Context(), middleware.CallerID(c), c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// OnboardingLinkHandler re-issues the payment onboarding URL.
func (h *ProviderHandler) OnboardingLinkHandler(c *gin.Context) {
	url, err := h.Service.OnboardingLink(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"onboardingUrl": url})
}

// CompleteOnboardingHandler polls the gateway after the provider returns from
// the onboarding flow, for when the capability webhook has not landed yet.
func (h *ProviderHandler) CompleteOnboardingHandler(c *gin.Context) {
	id := c.Param("id")
	p, err := h.Service.GetByID(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if p.UserID != middleware.CallerID(c) {
		utils.RespondError(c, utils.NewForbiddenError("not the provider owner"))
		return
	}
	p, err = h.Service.CompleteOnboarding(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

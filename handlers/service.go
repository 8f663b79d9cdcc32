package handlers

import (
	"net/http"
	"strconv"

	"coverly/middleware"
	"coverly/models"
	"coverly/services/catalog"
	"coverly/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes the service catalog over HTTP.
type CatalogHandler struct {
	Service catalog.CatalogService
}

func NewCatalogHandler(svc catalog.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

// CreateServiceHandler adds an offering under the caller's provider.
func (h *CatalogHandler) CreateServiceHandler(c *gin.Context) {
	var spec catalog.ServiceSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	svc, err := h.Service.Create(c.Request.Context(), middleware.CallerID(c), c.Param("id"), spec)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

// ListProviderServicesHandler lists a provider's own offerings.
func (h *CatalogHandler) ListProviderServicesHandler(c *gin.Context) {
	services, err := h.Service.ListByProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// ListServicesHandler is the public catalog listing with filters.
func (h *CatalogHandler) ListServicesHandler(c *gin.Context) {
	filter := models.ServiceFilter{
		ProviderID: c.Query("providerId"),
		Tier:       models.ServiceTier(c.Query("tier")),
	}
	if v := c.Query("minPriceCents"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid_filter", "minPriceCents must be an integer")
			return
		}
		filter.MinPriceCents = n
	}
	if v := c.Query("maxPriceCents"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid_filter", "maxPriceCents must be an integer")
			return
		}
		filter.MaxPriceCents = n
	}
	if v := c.Query("maxTurnaroundDays"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid_filter", "maxTurnaroundDays must be an integer")
			return
		}
		filter.MaxTurnaroundDays = n
	}

	services, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// UpdateServiceHandler applies a partial patch to an offering.
func (h *CatalogHandler) UpdateServiceHandler(c *gin.Context) {
	var patch catalog.ServicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	svc, err := h.Service.Update(c.Request.Context(), middleware.CallerID(c), c.Param("id"), patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

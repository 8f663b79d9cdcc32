package handlers

import (
	"net/http"

	"coverly/middleware"
	"coverly/models"
	"coverly/services/dispute"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DisputeHandler exposes dispute filing to order parties and adjudication to
// admins.
type DisputeHandler struct {
	Service dispute.DisputeService
}

func NewDisputeHandler(svc dispute.DisputeService) *DisputeHandler {
	return &DisputeHandler{Service: svc}
}

// OpenDisputeHandler lets the writer dispute a delivered order.
func (h *DisputeHandler) OpenDisputeHandler(c *gin.Context) {
	logger := getLogger(c)
	var req dispute.OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	d, err := h.Service.Open(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req)
	if err != nil {
		logger.Warn("dispute open failed", zap.String("orderId", c.Param("id")), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// ListDisputesHandler lists the caller's disputes.
func (h *DisputeHandler) ListDisputesHandler(c *gin.Context) {
	disputes, err := h.Service.List(c.Request.Context(), middleware.CallerID(c), false,
		models.DisputeStatus(c.Query("status")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// DisputeEventsHandler returns the audit trail of one dispute to its parties.
func (h *DisputeHandler) DisputeEventsHandler(c *gin.Context) {
	events, err := h.Service.Events(c.Request.Context(), middleware.CallerID(c), false, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// AdminListDisputesHandler lists all disputes, optionally filtered by status.
func (h *DisputeHandler) AdminListDisputesHandler(c *gin.Context) {
	disputes, err := h.Service.List(c.Request.Context(), "", true,
		models.DisputeStatus(c.Query("status")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// AdminDisputeEventsHandler returns any dispute's audit trail.
func (h *DisputeHandler) AdminDisputeEventsHandler(c *gin.Context) {
	events, err := h.Service.Events(c.Request.Context(), "", true, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ResolveDisputeHandler applies an admin's adjudication.
func (h *DisputeHandler) ResolveDisputeHandler(c *gin.Context) {
	logger := getLogger(c)
	var req dispute.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	adminID := c.GetHeader("x-auth-user-id")
	if adminID == "" {
		adminID = "admin"
	}
	d, err := h.Service.Resolve(c.Request.Context(), adminID, c.Param("id"), req)
	if err != nil {
		logger.Warn("dispute resolution failed", zap.String("disputeId", c.Param("id")), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

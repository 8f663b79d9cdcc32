package handlers

import (
	"net/http"

	"coverly/middleware"
	"coverly/services/order"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	Service order.OrderService
}

func NewOrderHandler(svc order.OrderService) *OrderHandler {
	return &OrderHandler{Service: svc}
}

// PlaceOrderHandler creates an order and its escrow payment intent.
func (h *OrderHandler) PlaceOrderHandler(c *gin.Context) {
	logger := getLogger(c)
	var req order.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	placed, err := h.Service.Place(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		logger.Warn("order placement failed", zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, placed)
}

// ListOrdersHandler lists the caller's orders (as writer and as provider).
func (h *OrderHandler) ListOrdersHandler(c *gin.Context) {
	orders, err := h.Service.List(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderHandler returns one order to either of its parties.
func (h *OrderHandler) GetOrderHandler(c *gin.Context) {
	o, err := h.Service.Get(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ClaimOrderHandler lets the provider claim a paid order.
func (h *OrderHandler) ClaimOrderHandler(c *gin.Context) {
	o, err := h.Service.Claim(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// StartOrderHandler marks a claimed order as in progress.
func (h *OrderHandler) StartOrderHandler(c *gin.Context) {
	o, err := h.Service.Start(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// DeliverOrderHandler records the provider's coverage delivery.
func (h *OrderHandler) DeliverOrderHandler(c *gin.Context) {
	var input order.DeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	o, err := h.Service.Deliver(c.Request.Context(), middleware.CallerID(c), c.Param("id"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// CompleteOrderHandler settles the escrow in the provider's favor.
func (h *OrderHandler) CompleteOrderHandler(c *gin.Context) {
	o, err := h.Service.Complete(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// CancelOrderHandler cancels an unclaimed order and releases the hold.
func (h *OrderHandler) CancelOrderHandler(c *gin.Context) {
	o, err := h.Service.Cancel(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// GetDeliveryHandler returns the coverage delivered for an order.
func (h *OrderHandler) GetDeliveryHandler(c *gin.Context) {
	d, err := h.Service.GetDelivery(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DeliveryUploadURLHandler hands out an opaque storage key a delivery may
// reference as its file attachment.
func (h *OrderHandler) DeliveryUploadURLHandler(c *gin.Context) {
	o, err := h.Service.Get(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	key := "deliveries/" + o.ID + "/" + uuid.New().String()
	c.JSON(http.StatusOK, gin.H{"uploadKey": key})
}

// SubmitReviewHandler records the writer's rating for a delivered order.
func (h *OrderHandler) SubmitReviewHandler(c *gin.Context) {
	var input order.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}
	rv, err := h.Service.SubmitReview(c.Request.Context(), middleware.CallerID(c), c.Param("id"), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

// ListProviderReviewsHandler lists reviews for a provider.
func (h *OrderHandler) ListProviderReviewsHandler(c *gin.Context) {
	reviews, err := h.Service.ListProviderReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

package handlers

import (
	"errors"
	"io"
	"net/http"

	"coverly/services/order"
	"coverly/services/payment"
	provSvc "coverly/services/provider"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives payment processor events. The signature is checked
// against the raw body before any parsing happens.
type WebhookHandler struct {
	Gateway   payment.Gateway
	OrderSvc  order.OrderService
	Providers provSvc.ProviderService
}

func NewWebhookHandler(gw payment.Gateway, orders order.OrderService, providers provSvc.ProviderService) *WebhookHandler {
	return &WebhookHandler{Gateway: gw, OrderSvc: orders, Providers: providers}
}

// PaymentWebhookHandler verifies and dispatches one processor event.
func (h *WebhookHandler) PaymentWebhookHandler(c *gin.Context) {
	logger := getLogger(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", "unable to read request body")
		return
	}

	event, err := h.Gateway.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			utils.JSONError(c, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	switch event.Type {
	case payment.EventPaymentHeld:
		if err := h.OrderSvc.MarkPaymentHeld(c.Request.Context(), event.IntentID); err != nil {
			logger.Error("payment-held event not applied",
				zap.String("intentId", event.IntentID), zap.Error(err))
			utils.RespondError(c, err)
			return
		}
	case payment.EventAccountUpdated:
		if err := h.Providers.ApplyAccountUpdate(c.Request.Context(), event.AccountID, event.ChargesEnabled, event.PayoutsEnabled); err != nil {
			logger.Error("account-updated event not applied",
				zap.String("accountId", event.AccountID), zap.Error(err))
			utils.RespondError(c, err)
			return
		}
	default:
		// Unrecognized events are acknowledged so the processor stops
		// redelivering them.
		logger.Debug("ignoring webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

package order

import (
	"context"

	catalogRepo "coverly/database/repository/catalog"
	deliveryRepo "coverly/database/repository/delivery"
	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	reviewRepo "coverly/database/repository/review"
	"coverly/models"
	"coverly/services/payment"

	"go.uber.org/zap"
)

// PlaceOrderRequest is the writer's order payload.
type PlaceOrderRequest struct {
	ServiceID  string `json:"serviceId" binding:"required"`
	ScriptRef  string `json:"scriptRef"`
	ProjectRef string `json:"projectRef"`
}

// PlacedOrder pairs the new order with the client secret the frontend needs
// to confirm the escrow hold.
type PlacedOrder struct {
	Order        models.Order `json:"order"`
	ClientSecret string       `json:"clientSecret"`
}

// DeliveryInput is the provider's coverage payload.
type DeliveryInput struct {
	Summary         string `json:"summary" binding:"required"`
	Strengths       string `json:"strengths"`
	Weaknesses      string `json:"weaknesses"`
	Recommendations string `json:"recommendations"`
	Score           *int   `json:"score"`
	FileKey         string `json:"fileKey"`
}

// ReviewInput is the writer's rating payload.
type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// OrderService drives the order state machine and orchestrates the payment
// gateway around it.
type OrderService interface {
	Place(ctx context.Context, writerID string, req PlaceOrderRequest) (*PlacedOrder, error)
	Get(ctx context.Context, callerID, orderID string) (*models.Order, error)
	List(ctx context.Context, callerID string) ([]models.Order, error)

	Claim(ctx context.Context, callerID, orderID string) (*models.Order, error)
	Start(ctx context.Context, callerID, orderID string) (*models.Order, error)
	Deliver(ctx context.Context, callerID, orderID string, input DeliveryInput) (*models.Order, error)
	Complete(ctx context.Context, callerID, orderID string) (*models.Order, error)
	Cancel(ctx context.Context, callerID, orderID string) (*models.Order, error)

	// MarkPaymentHeld is the amount-capturable webhook transition. Guarded
	// so redelivered events are no-ops.
	MarkPaymentHeld(ctx context.Context, intentID string) error

	GetDelivery(ctx context.Context, callerID, orderID string) (*models.Delivery, error)
	SubmitReview(ctx context.Context, callerID, orderID string, input ReviewInput) (*models.Review, error)
	ListProviderReviews(ctx context.Context, providerID string) ([]models.Review, error)

	// Coupling points for the dispute engine and the maintenance job.
	MarkDisputed(ctx context.Context, orderID string, fromSLABreach bool) error
	// Settle captures the escrow hold, transfers the payout, and moves the
	// order to completed from any of the given predecessor statuses.
	Settle(ctx context.Context, orderID string, from []models.OrderStatus) (*models.Order, error)
	MarkRefunded(ctx context.Context, orderID string) error
}

// DefaultOrderService is the production implementation.
type DefaultOrderService struct {
	Orders     orderRepo.OrderRepository
	Deliveries deliveryRepo.DeliveryRepository
	Reviews    reviewRepo.ReviewRepository
	Providers  providerRepo.ProviderRepository
	Services   catalogRepo.ServiceRepository
	Gateway    payment.Gateway
	// Platform commission in basis points of the order price.
	CommissionBps int
	Logger        *zap.Logger
}

package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogRepo "coverly/database/repository/catalog"
	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultOrderService) Place(ctx context.Context, writerID string, req PlaceOrderRequest) (*PlacedOrder, error) {
	svc, err := s.Services.GetByID(req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("service not found")
		}
		return nil, err
	}
	if !svc.Active {
		return nil, utils.NewConflictError("service_not_active", "service is not currently offered")
	}
	p, err := s.Providers.GetByID(svc.ProviderID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProviderActive {
		return nil, utils.NewConflictError("provider_not_active", "provider is not accepting orders")
	}
	if p.UserID == writerID {
		return nil, utils.NewConflictError("self_order", "cannot order coverage from yourself")
	}

	// The fee split is fixed now, from the service's current price, and
	// never recomputed even if the service price changes later.
	fee, payout := ComputeSplit(svc.PriceCents, s.CommissionBps)

	orderID := uuid.New().String()
	intent, err := s.Gateway.CreatePaymentIntent(ctx, svc.PriceCents, svc.Currency, map[string]string{
		"orderId":   orderID,
		"serviceId": svc.ID,
		"writerId":  writerID,
	})
	if err != nil {
		s.Logger.Error("order placement: payment intent creation failed", zap.Error(err))
		return nil, utils.NewUpstreamError("payment_intent_failed", "could not create payment intent")
	}

	now := time.Now().UTC()
	o := &models.Order{
		ID:                  orderID,
		WriterID:            writerID,
		ProviderID:          svc.ProviderID,
		ServiceID:           svc.ID,
		ScriptRef:           req.ScriptRef,
		ProjectRef:          req.ProjectRef,
		Status:              models.OrderPlaced,
		PriceCents:          svc.PriceCents,
		PlatformFeeCents:    fee,
		ProviderPayoutCents: payout,
		Currency:            svc.Currency,
		PaymentIntentID:     intent.IntentID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Orders.Create(o); err != nil {
		return nil, fmt.Errorf("failed to store order: %w", err)
	}

	s.Logger.Info("order placed",
		zap.String("order", o.ID),
		zap.String("writer", writerID),
		zap.Int64("price", o.PriceCents))
	return &PlacedOrder{Order: *o, ClientSecret: intent.ClientSecret}, nil
}

func (s *DefaultOrderService) Get(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(callerID, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *DefaultOrderService) List(ctx context.Context, callerID string) ([]models.Order, error) {
	// Writers see their own orders; a caller who owns a provider also sees
	// orders addressed to that provider.
	own, err := s.Orders.List(orderRepo.OrderFilter{WriterID: callerID})
	if err != nil {
		return nil, err
	}
	if p, err := s.Providers.GetByUserID(callerID); err == nil {
		addressed, err := s.Orders.List(orderRepo.OrderFilter{ProviderID: p.ID})
		if err != nil {
			return nil, err
		}
		own = append(own, addressed...)
	}
	return own, nil
}

func (s *DefaultOrderService) Claim(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	p, err := s.Providers.GetByID(o.ProviderID)
	if err != nil {
		return nil, err
	}
	if p.UserID != callerID {
		return nil, utils.NewForbiddenError("only the order's provider may claim it")
	}
	svc, err := s.Services.GetByID(o.ServiceID)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().UTC().Add(time.Duration(svc.TurnaroundDays) * 24 * time.Hour)
	return s.apply(orderID, EventClaim, models.OrderMutation{SLADeadline: &deadline})
}

func (s *DefaultOrderService) Start(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProviderOwner(callerID, o); err != nil {
		return nil, err
	}
	return s.apply(orderID, EventStart, models.OrderMutation{})
}

func (s *DefaultOrderService) Deliver(ctx context.Context, callerID, orderID string, input DeliveryInput) (*models.Order, error) {
	if input.Summary == "" {
		return nil, utils.NewValidationError("summary_required", "delivery summary is required")
	}
	if input.Score != nil && (*input.Score < 1 || *input.Score > 10) {
		return nil, utils.NewValidationError("invalid_score", "score must be between 1 and 10")
	}

	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireProviderOwner(callerID, o); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := s.apply(orderID, EventDeliver, models.OrderMutation{DeliveredAt: &now})
	if err != nil {
		return nil, err
	}

	// Exactly-once: the guarded transition above can only succeed once, so
	// this insert never runs twice for the same order.
	if err := s.Deliveries.Create(&models.Delivery{
		OrderID:         orderID,
		Summary:         input.Summary,
		Strengths:       input.Strengths,
		Weaknesses:      input.Weaknesses,
		Recommendations: input.Recommendations,
		Score:           input.Score,
		FileKey:         input.FileKey,
		CreatedAt:       now,
	}); err != nil {
		return nil, fmt.Errorf("failed to store delivery for order %s: %w", orderID, err)
	}
	return updated, nil
}

func (s *DefaultOrderService) Complete(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if o.WriterID != callerID {
		return nil, utils.NewForbiddenError("only the order's writer may complete it")
	}
	return s.Settle(ctx, orderID, Rule(EventComplete).From)
}

func (s *DefaultOrderService) Cancel(ctx context.Context, callerID, orderID string) (*models.Order, error) {
	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if o.WriterID != callerID {
		return nil, utils.NewForbiddenError("only the order's writer may cancel it")
	}

	updated, err := s.apply(orderID, EventCancel, models.OrderMutation{})
	if err != nil {
		return nil, err
	}

	// Best-effort: releasing an uncaptured hold can fail without
	// invalidating the cancellation itself.
	if o.PaymentIntentID != "" {
		if _, err := s.Gateway.Refund(ctx, o.PaymentIntentID, nil); err != nil {
			s.Logger.Error("cancel: refund failed",
				zap.String("order", orderID), zap.Error(err))
		}
	}
	return updated, nil
}

// MarkPaymentHeld moves placed -> payment_held when the gateway reports the
// escrow hold. The guard makes at-least-once webhook delivery a no-op.
func (s *DefaultOrderService) MarkPaymentHeld(ctx context.Context, intentID string) error {
	o, err := s.Orders.GetByPaymentIntent(intentID)
	if err != nil {
		if errors.Is(err, orderRepo.ErrNotFound) {
			s.Logger.Warn("payment hold for unknown intent", zap.String("intent", intentID))
			return nil
		}
		return err
	}
	rule := Rule(EventPaymentHold)
	ok, err := s.Orders.TransitionStatus(o.ID, rule.From, rule.To, models.OrderMutation{})
	if err != nil {
		return err
	}
	if !ok {
		s.Logger.Debug("payment hold redelivery ignored", zap.String("order", o.ID))
	}
	return nil
}

// MarkDisputed transitions the order for a newly opened dispute. SLA-breach
// auto-disputes come from claimed/in_progress, writer disputes from
// delivered.
func (s *DefaultOrderService) MarkDisputed(ctx context.Context, orderID string, fromSLABreach bool) error {
	ev := EventDispute
	if fromSLABreach {
		ev = EventAutoDispute
	}
	_, err := s.apply(orderID, ev, models.OrderMutation{})
	return err
}

// Settle wins the completed transition, then captures the escrow hold and
// transfers the payout. Doing the guarded transition first means two racing
// settlements resolve to exactly one capture-and-transfer.
func (s *DefaultOrderService) Settle(ctx context.Context, orderID string, from []models.OrderStatus) (*models.Order, error) {
	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	p, err := s.Providers.GetByID(o.ProviderID)
	if err != nil {
		return nil, err
	}
	if p.PaymentAccountID == "" {
		return nil, utils.NewConflictError("provider_payment_not_configured", "provider has no payment account")
	}

	ok, err := s.Orders.TransitionStatus(orderID, from, models.OrderCompleted, models.OrderMutation{})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.NewConflictError("order_not_completable", "order is not in a completable state")
	}

	if err := s.Gateway.Capture(ctx, o.PaymentIntentID); err != nil {
		s.Logger.Error("settle: capture failed", zap.String("order", orderID), zap.Error(err))
		return nil, utils.NewUpstreamError("capture_failed", "could not capture payment")
	}
	transferID, err := s.Gateway.TransferToProvider(ctx, o.ProviderPayoutCents, p.PaymentAccountID, o.ID)
	if err != nil {
		s.Logger.Error("settle: transfer failed", zap.String("order", orderID), zap.Error(err))
		return nil, utils.NewUpstreamError("transfer_failed", "could not transfer payout")
	}

	if _, err := s.Orders.TransitionStatus(orderID, []models.OrderStatus{models.OrderCompleted},
		models.OrderCompleted, models.OrderMutation{TransferID: &transferID}); err != nil {
		return nil, err
	}

	s.Logger.Info("order settled",
		zap.String("order", orderID),
		zap.String("transfer", transferID),
		zap.Int64("payout", o.ProviderPayoutCents))
	return s.loadOrder(orderID)
}

func (s *DefaultOrderService) MarkRefunded(ctx context.Context, orderID string) error {
	_, err := s.apply(orderID, EventResolveRefund, models.OrderMutation{})
	return err
}

// apply runs one event through the transition table as a guarded update and
// maps a failed precondition to the event's conflict code.
func (s *DefaultOrderService) apply(orderID string, ev Event, mut models.OrderMutation) (*models.Order, error) {
	rule := Rule(ev)
	ok, err := s.Orders.TransitionStatus(orderID, rule.From, rule.To, mut)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.Orders.GetByID(orderID); errors.Is(err, orderRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("order not found")
		}
		return nil, utils.NewConflictError(rule.ConflictCode,
			fmt.Sprintf("order cannot %s from its current status", ev))
	}
	return s.loadOrder(orderID)
}

func (s *DefaultOrderService) loadOrder(orderID string) (*models.Order, error) {
	o, err := s.Orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, orderRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("order not found")
		}
		return nil, err
	}
	return o, nil
}

// requireParty allows the writer or the provider's owning user.
func (s *DefaultOrderService) requireParty(callerID string, o *models.Order) error {
	if o.WriterID == callerID {
		return nil
	}
	p, err := s.Providers.GetByID(o.ProviderID)
	if err == nil && p.UserID == callerID {
		return nil
	}
	if err != nil && !errors.Is(err, providerRepo.ErrNotFound) {
		return err
	}
	return utils.NewForbiddenError("not a party to this order")
}

func (s *DefaultOrderService) requireProviderOwner(callerID string, o *models.Order) error {
	p, err := s.Providers.GetByID(o.ProviderID)
	if err != nil {
		return err
	}
	if p.UserID != callerID {
		return utils.NewForbiddenError("only the order's provider may do this")
	}
	return nil
}

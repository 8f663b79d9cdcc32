package dispute

import (
	"context"
	"errors"
	"fmt"
	"time"

	disputeRepo "coverly/database/repository/dispute"
	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/services/order"
	"coverly/services/payment"
	"coverly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OpenDisputeRequest is the writer's dispute payload.
type OpenDisputeRequest struct {
	Reason      models.DisputeReason `json:"reason" binding:"required"`
	Description string               `json:"description"`
}

// ResolveDisputeRequest is the admin's adjudication payload.
type ResolveDisputeRequest struct {
	Status            models.DisputeStatus `json:"status" binding:"required"`
	AdminNotes        string               `json:"adminNotes"`
	RefundAmountCents *int64               `json:"refundAmountCents"`
}

// DisputeService opens and adjudicates disputes and maintains their
// append-only event trail.
type DisputeService interface {
	Open(ctx context.Context, callerID, orderID string, req OpenDisputeRequest) (*models.Dispute, error)
	Resolve(ctx context.Context, adminID, disputeID string, req ResolveDisputeRequest) (*models.Dispute, error)
	List(ctx context.Context, callerID string, isAdmin bool, status models.DisputeStatus) ([]models.Dispute, error)
	Events(ctx context.Context, callerID string, isAdmin bool, disputeID string) ([]models.DisputeEvent, error)

	// AutoOpenSLABreach is the maintenance-job entry point. It reports
	// whether a dispute was actually opened; a lost race is not an error.
	AutoOpenSLABreach(ctx context.Context, orderID string) (bool, error)
}

// DefaultDisputeService is the production implementation.
type DefaultDisputeService struct {
	Disputes  disputeRepo.DisputeRepository
	Orders    orderRepo.OrderRepository
	Providers providerRepo.ProviderRepository
	OrderSvc  order.OrderService
	Gateway   payment.Gateway
	Logger    *zap.Logger
}

func (s *DefaultDisputeService) Open(ctx context.Context, callerID, orderID string, req OpenDisputeRequest) (*models.Dispute, error) {
	o, err := s.Orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, orderRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("order not found")
		}
		return nil, err
	}
	if o.WriterID != callerID {
		return nil, utils.NewForbiddenError("only the order's writer may open a dispute")
	}

	if active, err := s.Disputes.HasActiveForOrder(orderID); err != nil {
		return nil, err
	} else if active {
		return nil, utils.NewConflictError("dispute_already_exists", "order already has an active dispute")
	}

	// The guarded order transition is the real gate: only delivered orders
	// may be disputed, and only one disputing caller wins.
	if err := s.OrderSvc.MarkDisputed(ctx, orderID, false); err != nil {
		return nil, err
	}

	d, err := s.createDispute(orderID, callerID, req.Reason, req.Description)
	if err != nil {
		if errors.Is(err, disputeRepo.ErrActiveDisputeExists) {
			return nil, utils.NewConflictError("dispute_already_exists", "order already has an active dispute")
		}
		return nil, err
	}
	s.appendEvent(d.ID, callerID, models.DisputeEventOpened, req.Description, "", models.DisputeOpen)
	s.Logger.Info("dispute opened",
		zap.String("dispute", d.ID), zap.String("order", orderID), zap.String("reason", string(req.Reason)))
	return d, nil
}

func (s *DefaultDisputeService) Resolve(ctx context.Context, adminID, disputeID string, req ResolveDisputeRequest) (*models.Dispute, error) {
	if req.Status == models.DisputeUnderReview {
		return s.markUnderReview(adminID, disputeID, req.AdminNotes)
	}
	switch req.Status {
	case models.DisputeResolvedRefund, models.DisputeResolvedNoRefund, models.DisputeResolvedPartial:
	default:
		return nil, utils.NewValidationError("invalid_resolution", "status must be under_review or a resolved_* value")
	}
	if req.Status == models.DisputeResolvedPartial && req.RefundAmountCents == nil {
		return nil, utils.NewValidationError("refund_amount_required_for_partial", "partial resolution requires a refund amount")
	}

	d, err := s.Disputes.GetByID(disputeID)
	if err != nil {
		if errors.Is(err, disputeRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("dispute not found")
		}
		return nil, err
	}
	o, err := s.Orders.GetByID(d.OrderID)
	if err != nil {
		return nil, err
	}

	// A no-refund resolution pays the provider out, so the payment account
	// must exist before the dispute is marked resolved.
	if req.Status == models.DisputeResolvedNoRefund {
		p, err := s.Providers.GetByID(o.ProviderID)
		if err != nil {
			return nil, err
		}
		if p.PaymentAccountID == "" {
			return nil, utils.NewConflictError("provider_payment_not_configured", "provider has no payment account")
		}
	}

	prior := d.Status
	if !prior.Active() {
		return nil, utils.NewConflictError("dispute_not_resolvable", "dispute is already resolved")
	}

	// Money moves before the dispute reaches a terminal status: a transient
	// gateway failure leaves the dispute open so the admin can retry. The
	// order-status guards make a retry after a late failure skip work already
	// done.
	switch req.Status {
	case models.DisputeResolvedRefund, models.DisputeResolvedPartial:
		if o.Status != models.OrderRefunded {
			if _, err := s.Gateway.Refund(ctx, o.PaymentIntentID, req.RefundAmountCents); err != nil {
				s.Logger.Error("dispute resolution: refund failed",
					zap.String("dispute", disputeID), zap.Error(err))
				return nil, utils.NewUpstreamError("refund_failed", "could not issue refund")
			}
			if err := s.OrderSvc.MarkRefunded(ctx, d.OrderID); err != nil {
				return nil, err
			}
		}
	case models.DisputeResolvedNoRefund:
		if o.Status != models.OrderCompleted {
			if _, err := s.OrderSvc.Settle(ctx, d.OrderID, order.Rule(order.EventResolveSettle).From); err != nil {
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	ok, err := s.Disputes.TransitionStatus(disputeID,
		[]models.DisputeStatus{models.DisputeOpen, models.DisputeUnderReview},
		req.Status,
		disputeRepo.DisputeMutation{
			AdminNotes:        &req.AdminNotes,
			RefundAmountCents: req.RefundAmountCents,
			ResolvedAt:        &now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.NewConflictError("dispute_not_resolvable", "dispute is already resolved")
	}

	s.appendEvent(disputeID, adminID, models.DisputeEventResolved, req.AdminNotes, prior, req.Status)
	s.Logger.Info("dispute resolved",
		zap.String("dispute", disputeID), zap.String("resolution", string(req.Status)))
	return s.Disputes.GetByID(disputeID)
}

// markUnderReview moves an open dispute into review and records the step on
// the trail. Resolution from under_review stays available.
func (s *DefaultDisputeService) markUnderReview(adminID, disputeID, note string) (*models.Dispute, error) {
	ok, err := s.Disputes.TransitionStatus(disputeID,
		[]models.DisputeStatus{models.DisputeOpen},
		models.DisputeUnderReview,
		disputeRepo.DisputeMutation{})
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.Disputes.GetByID(disputeID); errors.Is(err, disputeRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("dispute not found")
		}
		return nil, utils.NewConflictError("dispute_not_reviewable", "only an open dispute can be marked under review")
	}
	s.appendEvent(disputeID, adminID, models.DisputeEventStatusChange, note,
		models.DisputeOpen, models.DisputeUnderReview)
	s.Logger.Info("dispute under review", zap.String("dispute", disputeID))
	return s.Disputes.GetByID(disputeID)
}

// AutoOpenSLABreach opens a non_delivery dispute for an order whose SLA
// deadline passed undelivered. Safe against overlapping sweeps: the dispute
// check, the guarded order transition, and the guarded insert each make a
// rerun a no-op.
func (s *DefaultDisputeService) AutoOpenSLABreach(ctx context.Context, orderID string) (bool, error) {
	if active, err := s.Disputes.HasActiveForOrder(orderID); err != nil {
		return false, err
	} else if active {
		return false, nil
	}

	if err := s.OrderSvc.MarkDisputed(ctx, orderID, true); err != nil {
		var apiErr *utils.APIError
		if errors.As(err, &apiErr) {
			// A user-driven transition raced ahead of the sweep; skip.
			return false, nil
		}
		return false, err
	}

	d, err := s.createDispute(orderID, "system", models.DisputeReasonNonDelivery,
		"delivery deadline passed without a delivery")
	if err != nil {
		if errors.Is(err, disputeRepo.ErrActiveDisputeExists) {
			return false, nil
		}
		return false, err
	}
	s.appendEvent(d.ID, "system", models.DisputeEventOpened, "", "", models.DisputeOpen)
	s.appendEvent(d.ID, "system", models.DisputeEventSLAAutoOpen,
		"opened automatically for SLA breach", "", models.DisputeOpen)
	s.Logger.Info("dispute auto-opened for SLA breach",
		zap.String("dispute", d.ID), zap.String("order", orderID))
	return true, nil
}

func (s *DefaultDisputeService) List(ctx context.Context, callerID string, isAdmin bool, status models.DisputeStatus) ([]models.Dispute, error) {
	if isAdmin {
		return s.Disputes.List(disputeRepo.DisputeFilter{Status: status})
	}

	own, err := s.Disputes.List(disputeRepo.DisputeFilter{OpenedBy: callerID, Status: status})
	if err != nil {
		return nil, err
	}
	// A provider also sees disputes on orders addressed to them.
	if p, err := s.Providers.GetByUserID(callerID); err == nil {
		orders, err := s.Orders.List(orderRepo.OrderFilter{ProviderID: p.ID, Status: models.OrderDisputed})
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		if len(ids) > 0 {
			addressed, err := s.Disputes.List(disputeRepo.DisputeFilter{OrderIDs: ids, Status: status})
			if err != nil {
				return nil, err
			}
			for _, d := range addressed {
				if d.OpenedBy != callerID {
					own = append(own, d)
				}
			}
		}
	}
	return own, nil
}

func (s *DefaultDisputeService) Events(ctx context.Context, callerID string, isAdmin bool, disputeID string) ([]models.DisputeEvent, error) {
	d, err := s.Disputes.GetByID(disputeID)
	if err != nil {
		if errors.Is(err, disputeRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("dispute not found")
		}
		return nil, err
	}
	if !isAdmin {
		o, err := s.Orders.GetByID(d.OrderID)
		if err != nil {
			return nil, err
		}
		party := o.WriterID == callerID
		if !party {
			if p, err := s.Providers.GetByID(o.ProviderID); err == nil && p.UserID == callerID {
				party = true
			}
		}
		if !party {
			return nil, utils.NewForbiddenError("not a party to this dispute")
		}
	}
	return s.Disputes.ListEvents(disputeID)
}

func (s *DefaultDisputeService) createDispute(orderID, openedBy string, reason models.DisputeReason, description string) (*models.Dispute, error) {
	now := time.Now().UTC()
	d := &models.Dispute{
		ID:          uuid.New().String(),
		OrderID:     orderID,
		OpenedBy:    openedBy,
		Reason:      reason,
		Description: description,
		Status:      models.DisputeOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Disputes.CreateIfNoActive(d); err != nil {
		if errors.Is(err, disputeRepo.ErrActiveDisputeExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to store dispute for order %s: %w", orderID, err)
	}
	return d, nil
}

// appendEvent writes one audit row. Trail writes are never allowed to fail a
// dispute operation, but failures are logged.
func (s *DefaultDisputeService) appendEvent(disputeID, actor, eventType, note string, from, to models.DisputeStatus) {
	err := s.Disputes.AppendEvent(&models.DisputeEvent{
		ID:         uuid.New().String(),
		DisputeID:  disputeID,
		Actor:      actor,
		Type:       eventType,
		Note:       note,
		FromStatus: from,
		ToStatus:   to,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		s.Logger.Error("failed to append dispute event",
			zap.String("dispute", disputeID), zap.String("type", eventType), zap.Error(err))
	}
}

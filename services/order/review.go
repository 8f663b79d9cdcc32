package order

import (
	"context"
	"errors"
	"time"

	deliveryRepo "coverly/database/repository/delivery"
	reviewRepo "coverly/database/repository/review"
	"coverly/models"
	"coverly/utils"

	"go.uber.org/zap"
)

func (s *DefaultOrderService) GetDelivery(ctx context.Context, callerID, orderID string) (*models.Delivery, error) {
	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParty(callerID, o); err != nil {
		return nil, err
	}
	d, err := s.Deliveries.GetByOrder(orderID)
	if err != nil {
		if errors.Is(err, deliveryRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("no delivery for this order")
		}
		return nil, err
	}
	return d, nil
}

func (s *DefaultOrderService) SubmitReview(ctx context.Context, callerID, orderID string, input ReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, utils.NewValidationError("invalid_rating", "rating must be between 1 and 5")
	}

	o, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if o.WriterID != callerID {
		return nil, utils.NewForbiddenError("only the order's writer may review it")
	}
	if o.Status != models.OrderDelivered && o.Status != models.OrderCompleted {
		return nil, utils.NewConflictError("order_not_reviewable", "order has not been delivered yet")
	}
	if _, err := s.Reviews.GetByOrder(orderID); err == nil {
		return nil, utils.NewConflictError("review_already_exists", "order already has a review")
	} else if !errors.Is(err, reviewRepo.ErrNotFound) {
		return nil, err
	}

	rv := &models.Review{
		OrderID:    orderID,
		ProviderID: o.ProviderID,
		WriterID:   callerID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Reviews.Create(rv); err != nil {
		return nil, err
	}

	// Best-effort: a failed rating recompute must not roll back the review,
	// but it is never swallowed silently.
	if err := s.recomputeProviderRating(o.ProviderID); err != nil {
		s.Logger.Error("provider rating recompute failed",
			zap.String("provider", o.ProviderID), zap.Error(err))
	}
	return rv, nil
}

func (s *DefaultOrderService) ListProviderReviews(ctx context.Context, providerID string) ([]models.Review, error) {
	return s.Reviews.ListByProvider(providerID)
}

// recomputeProviderRating rebuilds the rolling average and completed count
// from the full review set. Recomputing instead of adjusting incrementally
// keeps the stored values free of float-ordering drift.
func (s *DefaultOrderService) recomputeProviderRating(providerID string) error {
	reviews, err := s.Reviews.ListByProvider(providerID)
	if err != nil {
		return err
	}
	p, err := s.Providers.GetByID(providerID)
	if err != nil {
		return err
	}

	var sum int
	for _, rv := range reviews {
		sum += rv.Rating
	}
	if len(reviews) > 0 {
		p.AvgRating = float64(sum) / float64(len(reviews))
	} else {
		p.AvgRating = 0
	}
	p.TotalOrdersCompleted = len(reviews)
	p.UpdatedAt = time.Now().UTC()
	return s.Providers.Update(p)
}

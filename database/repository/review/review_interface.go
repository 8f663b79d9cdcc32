package reviewRepo

import (
	"errors"

	"coverly/models"
)

var ErrNotFound = errors.New("review not found")

// ReviewRepository persists writer reviews, at most one per order.
type ReviewRepository interface {
	Create(review *models.Review) error
	GetByOrder(orderID string) (*models.Review, error)
	ListByProvider(providerID string) ([]models.Review, error)
}

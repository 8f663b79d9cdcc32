package deliveryRepo

import (
	"errors"

	"coverly/models"
)

var ErrNotFound = errors.New("delivery not found")

// DeliveryRepository persists the one delivery each order may have. The
// deliver transition in the order engine is what makes Create exactly-once.
type DeliveryRepository interface {
	Create(delivery *models.Delivery) error
	GetByOrder(orderID string) (*models.Delivery, error)
}

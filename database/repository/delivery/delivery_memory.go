package deliveryRepo

import (
	"sync"

	"coverly/models"
)

// MemoryDeliveryRepo is an in-memory DeliveryRepository for tests.
type MemoryDeliveryRepo struct {
	mu         sync.Mutex
	deliveries map[string]models.Delivery
}

func NewMemoryDeliveryRepo() *MemoryDeliveryRepo {
	return &MemoryDeliveryRepo{deliveries: make(map[string]models.Delivery)}
}

func (r *MemoryDeliveryRepo) Create(delivery *models.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries[delivery.OrderID] = *delivery
	return nil
}

func (r *MemoryDeliveryRepo) GetByOrder(orderID string) (*models.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deliveries[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := d
	return &cp, nil
}

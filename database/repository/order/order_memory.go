package orderRepo

import (
	"sync"
	"time"

	"coverly/models"
)

// MemoryOrderRepo is an in-memory OrderRepository. TransitionStatus holds the
// repo mutex for the whole check-and-write, giving the same
// exactly-one-winner guarantee as the Mongo conditional update.
type MemoryOrderRepo struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{orders: make(map[string]models.Order)}
}

func (r *MemoryOrderRepo) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *MemoryOrderRepo) GetByID(id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (r *MemoryOrderRepo) GetByPaymentIntent(intentID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentIntentID == intentID && intentID != "" {
			cp := o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryOrderRepo) TransitionStatus(id string, from []models.OrderStatus, to models.OrderStatus, mut models.OrderMutation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if o.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	if mut.SLADeadline != nil {
		o.SLADeadline = mut.SLADeadline
	}
	if mut.DeliveredAt != nil {
		o.DeliveredAt = mut.DeliveredAt
	}
	if mut.TransferID != nil {
		o.TransferID = *mut.TransferID
	}
	r.orders[id] = o
	return true, nil
}

func (r *MemoryOrderRepo) List(filter OrderFilter) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if filter.WriterID != "" && o.WriterID != filter.WriterID {
			continue
		}
		if filter.ProviderID != "" && o.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if !filter.UpdatedFrom.IsZero() && o.UpdatedAt.Before(filter.UpdatedFrom) {
			continue
		}
		if !filter.UpdatedTo.IsZero() && !o.UpdatedAt.Before(filter.UpdatedTo) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *MemoryOrderRepo) ListDeliveredBefore(cutoff time.Time) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if o.Status == models.OrderDelivered && o.DeliveredAt != nil && o.DeliveredAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *MemoryOrderRepo) ListSLABreached(now time.Time) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, o := range r.orders {
		if (o.Status == models.OrderClaimed || o.Status == models.OrderInProgress) &&
			o.SLADeadline != nil && o.SLADeadline.Before(now) {
			out = append(out, o)
		}
	}
	return out, nil
}

package reviewRepo

import (
	"sync"

	"coverly/models"
)

// MemoryReviewRepo is an in-memory ReviewRepository for tests.
type MemoryReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]models.Review
}

func NewMemoryReviewRepo() *MemoryReviewRepo {
	return &MemoryReviewRepo{reviews: make(map[string]models.Review)}
}

func (r *MemoryReviewRepo) Create(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[review.OrderID] = *review
	return nil
}

func (r *MemoryReviewRepo) GetByOrder(orderID string) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := rv
	return &cp, nil
}

func (r *MemoryReviewRepo) ListByProvider(providerID string) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Review
	for _, rv := range r.reviews {
		if rv.ProviderID == providerID {
			out = append(out, rv)
		}
	}
	return out, nil
}

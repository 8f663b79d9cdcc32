package providerRepo

import (
	"sync"

	"coverly/models"
)

// MemoryProviderRepo is an in-memory ProviderRepository for tests and the
// memory gateway wiring.
type MemoryProviderRepo struct {
	mu        sync.Mutex
	providers map[string]models.Provider
}

func NewMemoryProviderRepo() *MemoryProviderRepo {
	return &MemoryProviderRepo{providers: make(map[string]models.Provider)}
}

func (r *MemoryProviderRepo) Create(provider *models.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.providers {
		if p.UserID == provider.UserID {
			return ErrDuplicateUser
		}
	}
	r.providers[provider.ID] = *provider
	return nil
}

func (r *MemoryProviderRepo) GetByID(id string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (r *MemoryProviderRepo) GetByUserID(userID string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.providers {
		if p.UserID == userID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryProviderRepo) GetByPaymentAccount(accountID string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.providers {
		if p.PaymentAccountID == accountID && accountID != "" {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryProviderRepo) Update(provider *models.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[provider.ID]; !ok {
		return ErrNotFound
	}
	r.providers[provider.ID] = *provider
	return nil
}

func (r *MemoryProviderRepo) ListByStatus(status models.ProviderStatus) ([]models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Provider
	for _, p := range r.providers {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryProviderRepo) GetAll() ([]models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out, nil
}

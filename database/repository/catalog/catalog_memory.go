package catalogRepo

import (
	"sync"

	"coverly/models"
)

// MemoryServiceRepo is an in-memory ServiceRepository for tests.
type MemoryServiceRepo struct {
	mu       sync.Mutex
	services map[string]models.Service
}

func NewMemoryServiceRepo() *MemoryServiceRepo {
	return &MemoryServiceRepo{services: make(map[string]models.Service)}
}

func (r *MemoryServiceRepo) Create(service *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[service.ID] = *service
	return nil
}

func (r *MemoryServiceRepo) GetByID(id string) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := s
	return &cp, nil
}

func (r *MemoryServiceRepo) Update(service *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[service.ID]; !ok {
		return ErrNotFound
	}
	r.services[service.ID] = *service
	return nil
}

func (r *MemoryServiceRepo) List(filter models.ServiceFilter) ([]models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Service
	for _, s := range r.services {
		if !filter.IncludeInactive && !s.Active {
			continue
		}
		if filter.ProviderID != "" && s.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Tier != "" && s.Tier != filter.Tier {
			continue
		}
		if filter.MinPriceCents > 0 && s.PriceCents < filter.MinPriceCents {
			continue
		}
		if filter.MaxPriceCents > 0 && s.PriceCents > filter.MaxPriceCents {
			continue
		}
		if filter.MaxTurnaroundDays > 0 && s.TurnaroundDays > filter.MaxTurnaroundDays {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

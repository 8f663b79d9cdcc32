package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	catalogRepo "coverly/database/repository/catalog"
	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const listingCacheKey = "catalog:listing"
const listingCacheTTL = 2 * time.Minute

// ServiceSpec is the creation payload for a coverage offering.
type ServiceSpec struct {
	Title          string             `json:"title" binding:"required"`
	Description    string             `json:"description"`
	Tier           models.ServiceTier `json:"tier" binding:"required"`
	PriceCents     int64              `json:"priceCents" binding:"required,gt=0"`
	Currency       string             `json:"currency"`
	TurnaroundDays int                `json:"turnaroundDays" binding:"required,gt=0"`
	MaxPages       int                `json:"maxPages"`
}

// ServicePatch carries partial updates; nil fields are unchanged.
type ServicePatch struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	PriceCents     *int64  `json:"priceCents"`
	TurnaroundDays *int    `json:"turnaroundDays"`
	MaxPages       *int    `json:"maxPages"`
	Active         *bool   `json:"active"`
}

// CatalogService manages provider-owned coverage offerings.
type CatalogService interface {
	Create(ctx context.Context, callerID, providerID string, spec ServiceSpec) (*models.Service, error)
	Update(ctx context.Context, callerID, serviceID string, patch ServicePatch) (*models.Service, error)
	List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Service, error)
}

// DefaultCatalogService is the production implementation. Cache is optional;
// when nil, listings always hit the repository.
type DefaultCatalogService struct {
	Repo      catalogRepo.ServiceRepository
	Providers providerRepo.ProviderRepository
	Cache     *redis.Client
	Logger    *zap.Logger
}

func (s *DefaultCatalogService) Create(ctx context.Context, callerID, providerID string, spec ServiceSpec) (*models.Service, error) {
	p, err := s.Providers.GetByID(providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("provider not found")
		}
		return nil, err
	}
	if p.UserID != callerID {
		return nil, utils.NewForbiddenError("not the provider owner")
	}
	if p.Status != models.ProviderActive {
		return nil, utils.NewConflictError("provider_not_active", "provider must be active to list services")
	}

	currency := spec.Currency
	if currency == "" {
		currency = "usd"
	}
	now := time.Now().UTC()
	svc := &models.Service{
		ID:             uuid.New().String(),
		ProviderID:     providerID,
		Title:          spec.Title,
		Description:    spec.Description,
		Tier:           spec.Tier,
		PriceCents:     spec.PriceCents,
		Currency:       currency,
		TurnaroundDays: spec.TurnaroundDays,
		MaxPages:       spec.MaxPages,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.invalidateListing(ctx)
	return svc, nil
}

func (s *DefaultCatalogService) Update(ctx context.Context, callerID, serviceID string, patch ServicePatch) (*models.Service, error) {
	svc, err := s.Repo.GetByID(serviceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("service not found")
		}
		return nil, err
	}
	p, err := s.Providers.GetByID(svc.ProviderID)
	if err != nil {
		return nil, err
	}
	if p.UserID != callerID {
		return nil, utils.NewForbiddenError("not the service owner")
	}

	if patch.Title != nil {
		svc.Title = *patch.Title
	}
	if patch.Description != nil {
		svc.Description = *patch.Description
	}
	if patch.PriceCents != nil {
		if *patch.PriceCents <= 0 {
			return nil, utils.NewValidationError("invalid_price", "price must be positive")
		}
		svc.PriceCents = *patch.PriceCents
	}
	if patch.TurnaroundDays != nil {
		if *patch.TurnaroundDays <= 0 {
			return nil, utils.NewValidationError("invalid_turnaround", "turnaround days must be positive")
		}
		svc.TurnaroundDays = *patch.TurnaroundDays
	}
	if patch.MaxPages != nil {
		svc.MaxPages = *patch.MaxPages
	}
	if patch.Active != nil {
		svc.Active = *patch.Active
	}
	svc.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(svc); err != nil {
		return nil, fmt.Errorf("failed to update service %s: %w", serviceID, err)
	}
	s.invalidateListing(ctx)
	return svc, nil
}

// List serves public catalog listings, active services only. Unfiltered
// listings are answered from the redis cache when one is configured.
func (s *DefaultCatalogService) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	filter.IncludeInactive = false
	cacheable := s.Cache != nil && filter == (models.ServiceFilter{})

	if cacheable {
		if raw, err := s.Cache.Get(ctx, listingCacheKey).Bytes(); err == nil {
			var cached []models.Service
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	services, err := s.Repo.List(filter)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if raw, err := json.Marshal(services); err == nil {
			if err := s.Cache.Set(ctx, listingCacheKey, raw, listingCacheTTL).Err(); err != nil {
				s.Logger.Warn("catalog cache write failed", zap.Error(err))
			}
		}
	}
	return services, nil
}

// ListByProvider returns a provider's own services, inactive ones included.
func (s *DefaultCatalogService) ListByProvider(ctx context.Context, providerID string) ([]models.Service, error) {
	return s.Repo.List(models.ServiceFilter{ProviderID: providerID, IncludeInactive: true})
}

func (s *DefaultCatalogService) invalidateListing(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, listingCacheKey).Err(); err != nil {
		s.Logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

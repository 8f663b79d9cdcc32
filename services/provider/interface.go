package provider

import (
	"context"

	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/services/payment"

	"go.uber.org/zap"
)

// RegistrationRequest is the provider signup payload.
type RegistrationRequest struct {
	DisplayName string   `json:"displayName" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	Bio         string   `json:"bio"`
	Specialties []string `json:"specialties"`
}

// RegistrationResult pairs the new provider with its payment onboarding URL.
type RegistrationResult struct {
	Provider      models.Provider `json:"provider"`
	OnboardingURL string          `json:"onboardingUrl"`
}

// ProfilePatch holds the self-editable provider fields; nil means unchanged.
type ProfilePatch struct {
	DisplayName *string   `json:"displayName"`
	Bio         *string   `json:"bio"`
	Specialties *[]string `json:"specialties"`
}

// AdminReviewRequest is one admin decision on a provider.
type AdminReviewRequest struct {
	Decision  string   `json:"decision" binding:"required"` // approved | rejected | suspended
	Reason    string   `json:"reason"`
	Checklist []string `json:"checklist"`
}

// ProviderService is the provider registry: signup, payment onboarding, and
// the admin verification workflow.
type ProviderService interface {
	Register(ctx context.Context, userID string, req RegistrationRequest) (*RegistrationResult, error)
	GetByID(ctx context.Context, callerID, id string) (*models.Provider, error)
	List(ctx context.Context) ([]models.Provider, error)
	Update(ctx context.Context, callerID, id string, patch ProfilePatch) (*models.Provider, error)

	OnboardingLink(ctx context.Context, callerID, id string) (string, error)
	CompleteOnboarding(ctx context.Context, providerID string) (*models.Provider, error)
	// ApplyAccountUpdate handles the processor's account-updated webhook.
	ApplyAccountUpdate(ctx context.Context, accountID string, chargeable, payable *bool) error

	ReviewQueue(ctx context.Context) ([]models.Provider, error)
	ListAll(ctx context.Context) ([]models.Provider, error)
	AdminReview(ctx context.Context, adminID, providerID string, req AdminReviewRequest) (*models.Provider, error)
}

// DefaultProviderService is the production implementation.
type DefaultProviderService struct {
	Repo    providerRepo.ProviderRepository
	Gateway payment.Gateway
	Logger  *zap.Logger
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *DefaultProviderService) Register(ctx context.Context, userID string, req RegistrationRequest) (*RegistrationResult, error) {
	if _, err := s.Repo.GetByUserID(userID); err == nil {
		return nil, utils.NewConflictError("provider_already_exists", "user already has a provider profile")
	} else if !errors.Is(err, providerRepo.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing provider: %w", err)
	}

	acct, err := s.Gateway.CreateConnectAccount(ctx, req.Email)
	if err != nil {
		s.Logger.Error("provider registration: connect account provisioning failed", zap.Error(err))
		return nil, utils.NewUpstreamError("payment_account_provisioning_failed", "could not provision payment account")
	}

	now := time.Now().UTC()
	p := &models.Provider{
		ID:               uuid.New().String(),
		UserID:           userID,
		DisplayName:      req.DisplayName,
		Bio:              req.Bio,
		Specialties:      req.Specialties,
		Status:           models.ProviderPendingVerification,
		PaymentAccountID: acct.AccountID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Repo.Create(p); err != nil {
		if errors.Is(err, providerRepo.ErrDuplicateUser) {
			return nil, utils.NewConflictError("provider_already_exists", "user already has a provider profile")
		}
		return nil, fmt.Errorf("failed to store provider: %w", err)
	}

	s.Logger.Info("provider registered",
		zap.String("provider", p.ID), zap.String("user", userID))
	return &RegistrationResult{Provider: *p, OnboardingURL: acct.OnboardingURL}, nil
}

func (s *DefaultProviderService) GetByID(ctx context.Context, callerID, id string) (*models.Provider, error) {
	p, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("provider not found")
		}
		return nil, err
	}
	if callerID != p.UserID {
		pub := p.Public()
		return &pub, nil
	}
	return p, nil
}

func (s *DefaultProviderService) List(ctx context.Context) ([]models.Provider, error) {
	providers, err := s.Repo.ListByStatus(models.ProviderActive)
	if err != nil {
		return nil, err
	}
	out := make([]models.Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p.Public())
	}
	return out, nil
}

func (s *DefaultProviderService) Update(ctx context.Context, callerID, id string, patch ProfilePatch) (*models.Provider, error) {
	p, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("provider not found")
		}
		return nil, err
	}
	if p.UserID != callerID {
		return nil, utils.NewForbiddenError("not the provider owner")
	}
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Specialties != nil {
		p.Specialties = *patch.Specialties
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(p); err != nil {
		return nil, fmt.Errorf("failed to update provider %s: %w", id, err)
	}
	return p, nil
}

func (s *DefaultProviderService) OnboardingLink(ctx context.Context, callerID, id string) (string, error) {
	p, err := s.Repo.GetByID(id)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return "", utils.NewNotFoundError("provider not found")
		}
		return "", err
	}
	if p.UserID != callerID {
		return "", utils.NewForbiddenError("not the provider owner")
	}
	url, err := s.Gateway.AccountLink(ctx, p.PaymentAccountID)
	if err != nil {
		s.Logger.Error("onboarding link re-issue failed",
			zap.String("provider", id), zap.Error(err))
		return "", utils.NewUpstreamError("onboarding_link_failed", "could not issue onboarding link")
	}
	return url, nil
}

// CompleteOnboarding polls the gateway for the account's capability flags and
// promotes the provider out of pending_verification when both are set.
func (s *DefaultProviderService) CompleteOnboarding(ctx context.Context, providerID string) (*models.Provider, error) {
	p, err := s.Repo.GetByID(providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("provider not found")
		}
		return nil, err
	}
	status, err := s.Gateway.AccountStatus(ctx, p.PaymentAccountID)
	if err != nil {
		return nil, utils.NewUpstreamError("account_status_unavailable", "could not query payment account status")
	}
	s.applyCapabilities(p, status.Chargeable, status.Payable)
	if err := s.Repo.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist onboarding state for %s: %w", providerID, err)
	}
	return p, nil
}

// ApplyAccountUpdate is the webhook path. The onboarding flag is written
// unconditionally (redelivery-safe); when either capability flag is missing
// from the payload it falls back to a live account-status query, since
// processor webhook payloads are not guaranteed to carry both.
func (s *DefaultProviderService) ApplyAccountUpdate(ctx context.Context, accountID string, chargeable, payable *bool) error {
	p, err := s.Repo.GetByPaymentAccount(accountID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			// Accounts we did not provision are not an error; ack and drop.
			s.Logger.Warn("account update for unknown payment account", zap.String("account", accountID))
			return nil
		}
		return err
	}

	if chargeable == nil || payable == nil {
		status, err := s.Gateway.AccountStatus(ctx, accountID)
		if err != nil {
			return utils.NewUpstreamError("account_status_unavailable", "could not query payment account status")
		}
		chargeable, payable = &status.Chargeable, &status.Payable
	}

	s.applyCapabilities(p, *chargeable, *payable)
	if err := s.Repo.Update(p); err != nil {
		return fmt.Errorf("failed to persist account update for %s: %w", p.ID, err)
	}
	return nil
}

// applyCapabilities writes the onboarding flag and promotes only from
// pending_verification. Suspended and deactivated providers are never
// silently reactivated by gateway traffic; that takes an admin approval.
func (s *DefaultProviderService) applyCapabilities(p *models.Provider, chargeable, payable bool) {
	complete := chargeable && payable
	p.OnboardingComplete = complete
	if complete && p.Status == models.ProviderPendingVerification {
		p.Status = models.ProviderActive
		s.Logger.Info("provider activated via onboarding", zap.String("provider", p.ID))
	}
	p.UpdatedAt = time.Now().UTC()
}

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

// ReviewQueue lists providers awaiting verification.
func (s *DefaultProviderService) ReviewQueue(ctx context.Context) ([]models.Provider, error) {
	return s.Repo.ListByStatus(models.ProviderPendingVerification)
}

// ListAll returns every provider in any status, unsanitized. Admin-only by
// routing.
func (s *DefaultProviderService) ListAll(ctx context.Context) ([]models.Provider, error) {
	return s.Repo.GetAll()
}

// AdminReview applies an admin decision and appends an immutable review
// record regardless of outcome.
func (s *DefaultProviderService) AdminReview(ctx context.Context, adminID, providerID string, req AdminReviewRequest) (*models.Provider, error) {
	if (req.Decision == "rejected" || req.Decision == "suspended") && req.Reason == "" {
		return nil, utils.NewValidationError("reason_required", "a reason is required for rejection or suspension")
	}

	p, err := s.Repo.GetByID(providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrNotFound) {
			return nil, utils.NewNotFoundError("provider not found")
		}
		return nil, err
	}

	switch req.Decision {
	case "approved":
		// Approval only activates a provider whose payment onboarding is
		// done; otherwise it stays pending until the gateway confirms.
		if p.OnboardingComplete {
			p.Status = models.ProviderActive
		} else {
			p.Status = models.ProviderPendingVerification
		}
	case "rejected":
		p.Status = models.ProviderDeactivated
	case "suspended":
		p.Status = models.ProviderSuspended
	default:
		return nil, utils.NewValidationError("invalid_decision", "decision must be approved, rejected, or suspended")
	}

	p.ReviewRecords = append(p.ReviewRecords, models.AdminReviewRecord{
		ReviewID:  uuid.New().String(),
		AdminID:   adminID,
		Decision:  req.Decision,
		Reason:    req.Reason,
		Checklist: req.Checklist,
		CreatedAt: time.Now().UTC(),
	})
	p.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(p); err != nil {
		return nil, fmt.Errorf("failed to persist admin review for %s: %w", providerID, err)
	}
	s.Logger.Info("admin review applied",
		zap.String("provider", providerID),
		zap.String("decision", req.Decision),
		zap.String("status", string(p.Status)))
	return p, nil
}

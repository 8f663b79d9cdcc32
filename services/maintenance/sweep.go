package maintenance

import (
	"context"
	"time"

	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/services/dispute"
	"coverly/services/order"

	"go.uber.org/zap"
)

// Result reports what one maintenance pass actually did.
type Result struct {
	AutoCompleted       int `json:"autoCompleted"`
	SLABreachesDisputed int `json:"slaBreachesDisputed"`
}

// Sweeper is the periodic SLA reconciliation pass: it auto-completes stale
// deliveries and auto-opens disputes for breached deadlines. Runs are
// idempotent and safe to overlap; every candidate is re-checked with a
// guarded transition immediately before acting, so a rerun or a racing
// user action just skips the order.
type Sweeper struct {
	Orders     orderRepo.OrderRepository
	Providers  providerRepo.ProviderRepository
	OrderSvc   order.OrderService
	DisputeSvc dispute.DisputeService
	// Delivered orders older than this are settled without writer action.
	AutoCompleteAfter time.Duration
	Logger            *zap.Logger
}

// Run executes one full pass and returns the counts for observability.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var res Result
	now := time.Now().UTC()

	stale, err := s.Orders.ListDeliveredBefore(now.Add(-s.AutoCompleteAfter))
	if err != nil {
		return res, err
	}
	for _, o := range stale {
		if !s.providerPayable(o) {
			continue
		}
		if _, err := s.OrderSvc.Settle(ctx, o.ID, order.Rule(order.EventAutoComplete).From); err != nil {
			// Conflicts mean someone beat the sweep to it; anything else is
			// retried naturally on the next pass.
			s.Logger.Warn("maintenance: auto-complete skipped",
				zap.String("order", o.ID), zap.Error(err))
			continue
		}
		res.AutoCompleted++
	}

	breached, err := s.Orders.ListSLABreached(now)
	if err != nil {
		return res, err
	}
	for _, o := range breached {
		opened, err := s.DisputeSvc.AutoOpenSLABreach(ctx, o.ID)
		if err != nil {
			s.Logger.Warn("maintenance: auto-dispute failed",
				zap.String("order", o.ID), zap.Error(err))
			continue
		}
		if opened {
			res.SLABreachesDisputed++
		}
	}

	s.Logger.Info("maintenance sweep finished",
		zap.Int("autoCompleted", res.AutoCompleted),
		zap.Int("slaBreachesDisputed", res.SLABreachesDisputed))
	return res, nil
}

func (s *Sweeper) providerPayable(o models.Order) bool {
	p, err := s.Providers.GetByID(o.ProviderID)
	if err != nil {
		s.Logger.Warn("maintenance: provider lookup failed",
			zap.String("order", o.ID), zap.Error(err))
		return false
	}
	return p.PaymentAccountID != ""
}

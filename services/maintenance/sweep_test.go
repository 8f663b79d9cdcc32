package maintenance

import (
	"context"
	"testing"
	"time"

	catalogRepo "coverly/database/repository/catalog"
	deliveryRepo "coverly/database/repository/delivery"
	disputeRepo "coverly/database/repository/dispute"
	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	reviewRepo "coverly/database/repository/review"
	"coverly/models"
	"coverly/services/dispute"
	"coverly/services/order"
	"coverly/services/payment"

	"go.uber.org/zap"
)

type sweepEnv struct {
	orders   *orderRepo.MemoryOrderRepo
	disputes *disputeRepo.MemoryDisputeRepo
	gateway  *payment.MemoryGateway
	sweeper  *Sweeper
}

func newSweepEnv(t *testing.T) *sweepEnv {
	t.Helper()
	providers := providerRepo.NewMemoryProviderRepo()
	env := &sweepEnv{
		orders:   orderRepo.NewMemoryOrderRepo(),
		disputes: disputeRepo.NewMemoryDisputeRepo(),
		gateway:  payment.NewMemoryGateway("test-secret"),
	}
	orderSvc := &order.DefaultOrderService{
		Orders:        env.orders,
		Deliveries:    deliveryRepo.NewMemoryDeliveryRepo(),
		Reviews:       reviewRepo.NewMemoryReviewRepo(),
		Providers:     providers,
		Services:      catalogRepo.NewMemoryServiceRepo(),
		Gateway:       env.gateway,
		CommissionBps: 1500,
		Logger:        zap.NewNop(),
	}
	disputeSvc := &dispute.DefaultDisputeService{
		Disputes:  env.disputes,
		Orders:    env.orders,
		Providers: providers,
		OrderSvc:  orderSvc,
		Gateway:   env.gateway,
		Logger:    zap.NewNop(),
	}
	env.sweeper = &Sweeper{
		Orders:            env.orders,
		Providers:         providers,
		OrderSvc:          orderSvc,
		DisputeSvc:        disputeSvc,
		AutoCompleteAfter: 7 * 24 * time.Hour,
		Logger:            zap.NewNop(),
	}

	now := time.Now().UTC()
	if err := providers.Create(&models.Provider{
		ID:               "prov-1",
		UserID:           "prov-user-1",
		Status:           models.ProviderActive,
		PaymentAccountID: "acct_test",
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return env
}

func (e *sweepEnv) seedOrder(t *testing.T, id string, status models.OrderStatus, mutate func(*models.Order)) {
	t.Helper()
	now := time.Now().UTC()
	o := &models.Order{
		ID:                  id,
		WriterID:            "writer-1",
		ProviderID:          "prov-1",
		ServiceID:           "svc-1",
		Status:              status,
		PriceCents:          15000,
		PlatformFeeCents:    2250,
		ProviderPayoutCents: 12750,
		Currency:            "usd",
		PaymentIntentID:     "pi_" + id,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if mutate != nil {
		mutate(o)
	}
	if err := e.orders.Create(o); err != nil {
		t.Fatalf("seed order %s: %v", id, err)
	}
}

func TestSweepAutoCompletesStaleDeliveries(t *testing.T) {
	env := newSweepEnv(t)
	stale := time.Now().UTC().Add(-8 * 24 * time.Hour)
	fresh := time.Now().UTC().Add(-time.Hour)
	env.seedOrder(t, "old", models.OrderDelivered, func(o *models.Order) { o.DeliveredAt = &stale })
	env.seedOrder(t, "new", models.OrderDelivered, func(o *models.Order) { o.DeliveredAt = &fresh })

	res, err := env.sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.AutoCompleted != 1 || res.SLABreachesDisputed != 0 {
		t.Errorf("result = %+v, want {1 0}", res)
	}

	old, _ := env.orders.GetByID("old")
	if old.Status != models.OrderCompleted || old.TransferID == "" {
		t.Errorf("stale order = %s/%s, want completed with a transfer", old.Status, old.TransferID)
	}
	recent, _ := env.orders.GetByID("new")
	if recent.Status != models.OrderDelivered {
		t.Errorf("fresh order = %s, want still delivered", recent.Status)
	}
}

func TestSweepAutoOpensSLABreaches(t *testing.T) {
	env := newSweepEnv(t)
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	env.seedOrder(t, "late", models.OrderClaimed, func(o *models.Order) { o.SLADeadline = &past })
	env.seedOrder(t, "ontime", models.OrderInProgress, func(o *models.Order) { o.SLADeadline = &future })

	res, err := env.sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.AutoCompleted != 0 || res.SLABreachesDisputed != 1 {
		t.Errorf("result = %+v, want {0 1}", res)
	}

	late, _ := env.orders.GetByID("late")
	if late.Status != models.OrderDisputed {
		t.Errorf("late order = %s, want disputed", late.Status)
	}
	ontime, _ := env.orders.GetByID("ontime")
	if ontime.Status != models.OrderInProgress {
		t.Errorf("on-time order = %s, want still in_progress", ontime.Status)
	}
}

func TestSweepRerunIsIdempotent(t *testing.T) {
	env := newSweepEnv(t)
	stale := time.Now().UTC().Add(-8 * 24 * time.Hour)
	past := time.Now().UTC().Add(-time.Hour)
	env.seedOrder(t, "old", models.OrderDelivered, func(o *models.Order) { o.DeliveredAt = &stale })
	env.seedOrder(t, "late", models.OrderClaimed, func(o *models.Order) { o.SLADeadline = &past })

	first, err := env.sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.AutoCompleted != 1 || first.SLABreachesDisputed != 1 {
		t.Errorf("first = %+v, want {1 1}", first)
	}

	second, err := env.sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.AutoCompleted != 0 || second.SLABreachesDisputed != 0 {
		t.Errorf("second = %+v, want {0 0}", second)
	}
	if len(env.gateway.Transfers) != 1 {
		t.Errorf("transfers = %d, want 1", len(env.gateway.Transfers))
	}
	disputes, _ := env.disputes.List(disputeRepo.DisputeFilter{})
	if len(disputes) != 1 {
		t.Errorf("disputes = %d, want 1", len(disputes))
	}
}

func TestSweepSkipsUnpayableProvider(t *testing.T) {
	env := newSweepEnv(t)
	stale := time.Now().UTC().Add(-8 * 24 * time.Hour)
	env.seedOrder(t, "orphan", models.OrderDelivered, func(o *models.Order) {
		o.ProviderID = "prov-missing"
		o.DeliveredAt = &stale
	})

	res, err := env.sweeper.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.AutoCompleted != 0 {
		t.Errorf("autoCompleted = %d, want 0", res.AutoCompleted)
	}
	o, _ := env.orders.GetByID("orphan")
	if o.Status != models.OrderDelivered {
		t.Errorf("order = %s, want still delivered", o.Status)
	}
}

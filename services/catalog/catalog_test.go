package catalog

import (
	"context"
	"testing"
	"time"

	catalogRepo "coverly/database/repository/catalog"
	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/utils"

	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*DefaultCatalogService, *providerRepo.MemoryProviderRepo) {
	t.Helper()
	providers := providerRepo.NewMemoryProviderRepo()
	svc := &DefaultCatalogService{
		Repo:      catalogRepo.NewMemoryServiceRepo(),
		Providers: providers,
		Logger:    zap.NewNop(),
	}
	now := time.Now().UTC()
	if err := providers.Create(&models.Provider{
		ID:        "prov-1",
		UserID:    "prov-user-1",
		Status:    models.ProviderActive,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return svc, providers
}

func validSpec() ServiceSpec {
	return ServiceSpec{
		Title:          "Feature coverage",
		Tier:           models.TierStandard,
		PriceCents:     15000,
		TurnaroundDays: 3,
	}
}

func TestCreateService(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), "prov-user-1", "prov-1", validSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Active {
		t.Error("new services start active")
	}
	if created.Currency != "usd" {
		t.Errorf("currency = %s, want the usd default", created.Currency)
	}
}

func TestCreateServiceOwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "someone-else", "prov-1", validSpec())
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Status != 403 {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestCreateServiceRequiresActiveProvider(t *testing.T) {
	svc, providers := newTestService(t)
	p, _ := providers.GetByID("prov-1")
	p.Status = models.ProviderPendingVerification
	if err := providers.Update(p); err != nil {
		t.Fatalf("demote provider: %v", err)
	}

	_, err := svc.Create(context.Background(), "prov-user-1", "prov-1", validSpec())
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Code != "provider_not_active" {
		t.Fatalf("expected provider_not_active, got %v", err)
	}
}

func TestUpdateServicePatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "prov-user-1", "prov-1", validSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price := int64(20000)
	inactive := false
	updated, err := svc.Update(ctx, "prov-user-1", created.ID, ServicePatch{
		PriceCents: &price,
		Active:     &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PriceCents != 20000 || updated.Active {
		t.Errorf("updated = %d/%v, want 20000/inactive", updated.PriceCents, updated.Active)
	}
	if updated.Title != "Feature coverage" {
		t.Errorf("unpatched title changed to %q", updated.Title)
	}

	bad := int64(-5)
	if _, err := svc.Update(ctx, "prov-user-1", created.ID, ServicePatch{PriceCents: &bad}); err == nil {
		t.Error("expected invalid_price for a negative price")
	}
	if _, err := svc.Update(ctx, "someone-else", created.ID, ServicePatch{PriceCents: &price}); err == nil {
		t.Error("expected forbidden for a non-owner")
	}
}

func TestListFiltersInactive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "prov-user-1", "prov-1", validSpec())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	spec := validSpec()
	spec.Title = "Premium coverage"
	spec.Tier = models.TierPremium
	spec.PriceCents = 40000
	if _, err := svc.Create(ctx, "prov-user-1", "prov-1", spec); err != nil {
		t.Fatalf("create second: %v", err)
	}

	inactive := false
	if _, err := svc.Update(ctx, "prov-user-1", created.ID, ServicePatch{Active: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	public, err := svc.List(ctx, models.ServiceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(public) != 1 || public[0].Tier != models.TierPremium {
		t.Errorf("public listing = %+v, want only the premium service", public)
	}

	own, err := svc.ListByProvider(ctx, "prov-1")
	if err != nil {
		t.Fatalf("list own: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("owner listing = %d, want both services", len(own))
	}
}

func TestListPriceAndTurnaroundFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cheap := validSpec()
	cheap.PriceCents = 5000
	cheap.TurnaroundDays = 7
	if _, err := svc.Create(ctx, "prov-user-1", "prov-1", cheap); err != nil {
		t.Fatalf("create: %v", err)
	}
	fast := validSpec()
	fast.Title = "Rush coverage"
	fast.PriceCents = 30000
	fast.TurnaroundDays = 1
	if _, err := svc.Create(ctx, "prov-user-1", "prov-1", fast); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.List(ctx, models.ServiceFilter{MaxPriceCents: 10000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].PriceCents != 5000 {
		t.Errorf("price filter = %+v, want only the 5000c service", got)
	}

	got, err = svc.List(ctx, models.ServiceFilter{MaxTurnaroundDays: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].TurnaroundDays != 1 {
		t.Errorf("turnaround filter = %+v, want only the rush service", got)
	}
}

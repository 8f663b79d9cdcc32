package provider

import (
	"context"
	"testing"

	providerRepo "coverly/database/repository/provider"
	"coverly/models"
	"coverly/services/payment"
	"coverly/utils"

	"go.uber.org/zap"
)

type testEnv struct {
	repo    *providerRepo.MemoryProviderRepo
	gateway *payment.MemoryGateway
	svc     *DefaultProviderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:    providerRepo.NewMemoryProviderRepo(),
		gateway: payment.NewMemoryGateway("test-secret"),
	}
	env.svc = &DefaultProviderService{
		Repo:    env.repo,
		Gateway: env.gateway,
		Logger:  zap.NewNop(),
	}
	return env
}

func (e *testEnv) register(t *testing.T, userID string) *models.Provider {
	t.Helper()
	res, err := e.svc.Register(context.Background(), userID, RegistrationRequest{
		DisplayName: "Coverage Pro",
		Email:       userID + "@example.com",
	})
	if err != nil {
		t.Fatalf("register %s: %v", userID, err)
	}
	return &res.Provider
}

func apiCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*utils.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	return apiErr.Code
}

func TestRegisterProvider(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Register(context.Background(), "user-1", RegistrationRequest{
		DisplayName: "Coverage Pro",
		Email:       "pro@example.com",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Provider.Status != models.ProviderPendingVerification {
		t.Errorf("status = %s, want pending_verification", res.Provider.Status)
	}
	if res.Provider.PaymentAccountID == "" {
		t.Error("expected a provisioned payment account")
	}
	if res.OnboardingURL == "" {
		t.Error("expected an onboarding url")
	}
}

func TestRegisterDuplicateUser(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "user-1")
	_, err := env.svc.Register(context.Background(), "user-1", RegistrationRequest{
		DisplayName: "Second Profile",
		Email:       "again@example.com",
	})
	if code := apiCode(t, err); code != "provider_already_exists" {
		t.Errorf("code = %s, want provider_already_exists", code)
	}
}

func TestPublicViewHidesPaymentAccount(t *testing.T) {
	env := newTestEnv(t)
	p := env.register(t, "user-1")

	own, err := env.svc.GetByID(context.Background(), "user-1", p.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if own.PaymentAccountID == "" {
		t.Error("owner view should include the payment account")
	}

	pub, err := env.svc.GetByID(context.Background(), "other-user", p.ID)
	if err != nil {
		t.Fatalf("public get: %v", err)
	}
	if pub.PaymentAccountID != "" || pub.ReviewRecords != nil {
		t.Error("public view must hide the payment account and review records")
	}
}

func TestAccountUpdatePromotesPending(t *testing.T) {
	env := newTestEnv(t)
	p := env.register(t, "user-1")

	yes := true
	if err := env.svc.ApplyAccountUpdate(context.Background(), p.PaymentAccountID, &yes, &yes); err != nil {
		t.Fatalf("account update: %v", err)
	}
	got, _ := env.repo.GetByID(p.ID)
	if !got.OnboardingComplete {
		t.Error("expected onboarding to be complete")
	}
	if got.Status != models.ProviderActive {
		t.Errorf("status = %s, want active", got.Status)
	}
}

func TestAccountUpdateFallsBackToLiveStatus(t *testing.T) {
	env := newTestEnv(t)
	p := env.register(t, "user-1")
	env.gateway.SetAccountStatus(p.PaymentAccountID, true, true)

	// Payload carries neither flag; the service must query the gateway.
	if err := env.svc.ApplyAccountUpdate(context.Background(), p.PaymentAccountID, nil, nil); err != nil {
		t.Fatalf("account update: %v", err)
	}
	got, _ := env.repo.GetByID(p.ID)
	if !got.OnboardingComplete || got.Status != models.ProviderActive {
		t.Errorf("provider = %s onboarded=%v, want active and onboarded", got.Status, got.OnboardingComplete)
	}
}

func TestAccountUpdateNeverReactivatesSuspended(t *testing.T) {
	env := newTestEnv(t)
	p := env.register(t, "user-1")
	got, _ := env.repo.GetByID(p.ID)
	got.Status = models.ProviderSuspended
	if err := env.repo.Update(got); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	yes := true
	if err := env.svc.ApplyAccountUpdate(context.Background(), p.PaymentAccountID, &yes, &yes); err != nil {
		t.Fatalf("account update: %v", err)
	}
	got, _ = env.repo.GetByID(p.ID)
	if got.Status != models.ProviderSuspended {
		t.Errorf("status = %s, gateway traffic must not reactivate a suspended provider", got.Status)
	}
	if !got.OnboardingComplete {
		t.Error("the onboarding flag is still written")
	}
}

func TestAccountUpdateUnknownAccountDropped(t *testing.T) {
	env := newTestEnv(t)
	yes := true
	if err := env.svc.ApplyAccountUpdate(context.Background(), "acct_unknown", &yes, &yes); err != nil {
		t.Fatalf("unknown account should be dropped, got %v", err)
	}
}

func TestAdminReviewReasonRequired(t *testing.T) {
	env := newTestEnv(t)
	p := env.register(t, "user-1")

	for _, decision := range []string{"rejected", "suspended"} {
		_, err := env.svc.AdminReview(context.Background(), "admin-1", p.ID, AdminReviewRequest{Decision: decision})
		if code := apiCode(t, err); code != "reason_required" {
			t.Errorf("%s without reason: code = %s, want reason_required", decision, code)
		}
	}
}

func TestAdminReviewDecisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Approval before onboarding keeps the provider pending.
	p := env.register(t, "user-1")
	got, err := env.svc.AdminReview(ctx, "admin-1", p.ID, AdminReviewRequest{Decision: "approved"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != models.ProviderPendingVerification {
		t.Errorf("status = %s, want still pending_verification before onboarding", got.Status)
	}

	// Approval after onboarding activates.
	yes := true
	if err := env.svc.ApplyAccountUpdate(ctx, p.PaymentAccountID, &yes, &yes); err != nil {
		t.Fatalf("onboard: %v", err)
	}
	got, err = env.svc.AdminReview(ctx, "admin-1", p.ID, AdminReviewRequest{Decision: "approved"})
	if err != nil {
		t.Fatalf("approve onboarded: %v", err)
	}
	if got.Status != models.ProviderActive {
		t.Errorf("status = %s, want active", got.Status)
	}

	// Rejection deactivates; every decision appends a record.
	got, err = env.svc.AdminReview(ctx, "admin-2", p.ID, AdminReviewRequest{Decision: "rejected", Reason: "plagiarized samples"})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != models.ProviderDeactivated {
		t.Errorf("status = %s, want deactivated", got.Status)
	}
	if len(got.ReviewRecords) != 3 {
		t.Errorf("review records = %d, want 3", len(got.ReviewRecords))
	}
	last := got.ReviewRecords[len(got.ReviewRecords)-1]
	if last.AdminID != "admin-2" || last.Decision != "rejected" || last.Reason == "" {
		t.Errorf("last record = %+v", last)
	}

	_, err = env.svc.AdminReview(ctx, "admin-1", p.ID, AdminReviewRequest{Decision: "maybe"})
	if code := apiCode(t, err); code != "invalid_decision" {
		t.Errorf("code = %s, want invalid_decision", code)
	}
}

func TestReviewQueue(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "user-1")
	p2 := env.register(t, "user-2")

	yes := true
	if err := env.svc.ApplyAccountUpdate(context.Background(), p2.PaymentAccountID, &yes, &yes); err != nil {
		t.Fatalf("onboard: %v", err)
	}

	queue, err := env.svc.ReviewQueue(context.Background())
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("queue = %d, want 1 (only the not-yet-onboarded provider)", len(queue))
	}
	if queue[0].UserID != "user-1" {
		t.Errorf("queued provider = %s, want user-1's", queue[0].UserID)
	}
}

func TestListAllIncludesEveryStatus(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "user-1")
	p2 := env.register(t, "user-2")
	if _, err := env.svc.AdminReview(context.Background(), "admin-1", p2.ID, AdminReviewRequest{
		Decision: "suspended",
		Reason:   "terms violation",
	}); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	// The public listing shows active providers only; neither qualifies.
	public, err := env.svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(public) != 0 {
		t.Errorf("public listing = %d, want 0", len(public))
	}

	all, err := env.svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin listing = %d, want 2", len(all))
	}
	for _, p := range all {
		if p.PaymentAccountID == "" {
			t.Errorf("provider %s: admin listing should keep the payment account", p.ID)
		}
	}
}

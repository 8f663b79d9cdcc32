package order

import (
	"context"
	"sync"
	"testing"
	"time"

	catalogRepo "coverly/database/repository/catalog"
	deliveryRepo "coverly/database/repository/delivery"
	orderRepo "coverly/database/repository/order"
	providerRepo "coverly/database/repository/provider"
	reviewRepo "coverly/database/repository/review"
	"coverly/models"
	"coverly/services/payment"
	"coverly/utils"

	"go.uber.org/zap"
)

const (
	testWriterID       = "writer-1"
	testProviderUserID = "prov-user-1"
	testProviderID     = "prov-1"
	testServiceID      = "svc-1"
)

type testEnv struct {
	orders    *orderRepo.MemoryOrderRepo
	providers *providerRepo.MemoryProviderRepo
	services  *catalogRepo.MemoryServiceRepo
	gateway   *payment.MemoryGateway
	svc       *DefaultOrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		orders:    orderRepo.NewMemoryOrderRepo(),
		providers: providerRepo.NewMemoryProviderRepo(),
		services:  catalogRepo.NewMemoryServiceRepo(),
		gateway:   payment.NewMemoryGateway("test-secret"),
	}
	env.svc = &DefaultOrderService{
		Orders:        env.orders,
		Deliveries:    deliveryRepo.NewMemoryDeliveryRepo(),
		Reviews:       reviewRepo.NewMemoryReviewRepo(),
		Providers:     env.providers,
		Services:      env.services,
		Gateway:       env.gateway,
		CommissionBps: 1500,
		Logger:        zap.NewNop(),
	}

	now := time.Now().UTC()
	if err := env.providers.Create(&models.Provider{
		ID:               testProviderID,
		UserID:           testProviderUserID,
		DisplayName:      "Coverage Pro",
		Status:           models.ProviderActive,
		PaymentAccountID: "acct_test",
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	if err := env.services.Create(&models.Service{
		ID:             testServiceID,
		ProviderID:     testProviderID,
		Title:          "Standard coverage",
		Tier:           models.TierStandard,
		PriceCents:     15000,
		Currency:       "usd",
		TurnaroundDays: 2,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return env
}

func (e *testEnv) place(t *testing.T) *models.Order {
	t.Helper()
	placed, err := e.svc.Place(context.Background(), testWriterID, PlaceOrderRequest{ServiceID: testServiceID})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	return &placed.Order
}

func (e *testEnv) placeHeld(t *testing.T) *models.Order {
	t.Helper()
	o := e.place(t)
	if err := e.svc.MarkPaymentHeld(context.Background(), o.PaymentIntentID); err != nil {
		t.Fatalf("mark payment held: %v", err)
	}
	return o
}

func conflictCode(t *testing.T, err error) string {
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

func TestComputeSplit(t *testing.T) {
	cases := []struct {
		price  int64
		bps    int
		fee    int64
		payout int64
	}{
		{15000, 1500, 2250, 12750},
		{100, 1500, 15, 85},
		{1, 1500, 0, 1},
		{3, 1500, 0, 3},
		{33, 1500, 5, 28},
		{9999, 1500, 1500, 8499},
		{15000, 0, 0, 15000},
	}
	for _, tc := range cases {
		fee, payout := ComputeSplit(tc.price, tc.bps)
		if fee != tc.fee || payout != tc.payout {
			t.Errorf("ComputeSplit(%d, %d) = (%d, %d), want (%d, %d)",
				tc.price, tc.bps, fee, payout, tc.fee, tc.payout)
		}
		if fee+payout != tc.price {
			t.Errorf("split of %d does not sum: %d + %d", tc.price, fee, payout)
		}
	}
}

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	placed, err := env.svc.Place(context.Background(), testWriterID, PlaceOrderRequest{
		ServiceID: testServiceID,
		ScriptRef: "draft-3.pdf",
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	o := placed.Order
	if o.Status != models.OrderPlaced {
		t.Errorf("status = %s, want placed", o.Status)
	}
	if o.PriceCents != 15000 || o.PlatformFeeCents != 2250 || o.ProviderPayoutCents != 12750 {
		t.Errorf("split = %d/%d/%d, want 15000/2250/12750",
			o.PriceCents, o.PlatformFeeCents, o.ProviderPayoutCents)
	}
	if o.PaymentIntentID == "" || placed.ClientSecret == "" {
		t.Error("expected a payment intent and a client secret")
	}
}

func TestPlaceSelfOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Place(context.Background(), testProviderUserID, PlaceOrderRequest{ServiceID: testServiceID})
	if code := conflictCode(t, err); code != "self_order" {
		t.Errorf("code = %s, want self_order", code)
	}
}

func TestPlaceInactiveService(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := env.services.GetByID(testServiceID)
	svc.Active = false
	if err := env.services.Update(svc); err != nil {
		t.Fatalf("deactivate service: %v", err)
	}
	_, err := env.svc.Place(context.Background(), testWriterID, PlaceOrderRequest{ServiceID: testServiceID})
	if code := conflictCode(t, err); code != "service_not_active" {
		t.Errorf("code = %s, want service_not_active", code)
	}
}

func TestClaimBeforePaymentHeld(t *testing.T) {
	env := newTestEnv(t)
	o := env.place(t)
	_, err := env.svc.Claim(context.Background(), testProviderUserID, o.ID)
	if code := conflictCode(t, err); code != "order_not_claimable" {
		t.Errorf("code = %s, want order_not_claimable", code)
	}
}

func TestClaimSetsSLADeadline(t *testing.T) {
	env := newTestEnv(t)
	o := env.placeHeld(t)
	claimed, err := env.svc.Claim(context.Background(), testProviderUserID, o.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != models.OrderClaimed {
		t.Errorf("status = %s, want claimed", claimed.Status)
	}
	if claimed.SLADeadline == nil {
		t.Fatal("expected an SLA deadline")
	}
	want := time.Now().UTC().Add(2 * 24 * time.Hour)
	if diff := claimed.SLADeadline.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("SLA deadline %v not within a minute of %v", claimed.SLADeadline, want)
	}
}

func TestClaimByNonProviderForbidden(t *testing.T) {
	env := newTestEnv(t)
	o := env.placeHeld(t)
	_, err := env.svc.Claim(context.Background(), "someone-else", o.ID)
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Status != 403 {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	env := newTestEnv(t)
	o := env.placeHeld(t)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Claim(context.Background(), testProviderUserID, o.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		if apiErr, ok := err.(*utils.APIError); ok && apiErr.Code == "order_not_claimable" {
			conflicts++
			continue
		}
		t.Errorf("unexpected claim error: %v", err)
	}
	if wins != 1 || conflicts != attempts-1 {
		t.Errorf("wins = %d, conflicts = %d, want 1 and %d", wins, conflicts, attempts-1)
	}
}

func TestLifecycleToCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := env.placeHeld(t)

	if _, err := env.svc.Claim(ctx, testProviderUserID, o.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := env.svc.Start(ctx, testProviderUserID, o.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	score := 7
	if _, err := env.svc.Deliver(ctx, testProviderUserID, o.ID, DeliveryInput{
		Summary: "Strong premise, act two sags.",
		Score:   &score,
	}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	done, err := env.svc.Complete(ctx, testWriterID, o.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if done.Status != models.OrderCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}
	if done.TransferID == "" {
		t.Error("expected a transfer id on the settled order")
	}
	if len(env.gateway.Captures) != 1 {
		t.Errorf("captures = %d, want 1", len(env.gateway.Captures))
	}
	if len(env.gateway.Transfers) != 1 {
		t.Fatalf("transfers = %d, want 1", len(env.gateway.Transfers))
	}
	tr := env.gateway.Transfers[0]
	if tr.AmountCents != 12750 || tr.AccountID != "acct_test" || tr.GroupTag != o.ID {
		t.Errorf("transfer = %+v, want 12750 to acct_test grouped by %s", tr, o.ID)
	}

	// A second completion attempt must lose the guarded transition.
	_, err = env.svc.Complete(ctx, testWriterID, o.ID)
	if code := conflictCode(t, err); code != "order_not_completable" {
		t.Errorf("code = %s, want order_not_completable", code)
	}
	if len(env.gateway.Transfers) != 1 {
		t.Errorf("transfers after retry = %d, want still 1", len(env.gateway.Transfers))
	}
}

func TestCompleteByProviderForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := env.placeHeld(t)
	if _, err := env.svc.Claim(ctx, testProviderUserID, o.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := env.svc.Deliver(ctx, testProviderUserID, o.ID, DeliveryInput{Summary: "done"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	_, err := env.svc.Complete(ctx, testProviderUserID, o.ID)
	apiErr, ok := err.(*utils.APIError)
	if !ok || apiErr.Status != 403 {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestCancelReleasesHold(t *testing.T) {
	env := newTestEnv(t)
	o := env.placeHeld(t)
	cancelled, err := env.svc.Cancel(context.Background(), testWriterID, o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.OrderCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if len(env.gateway.Refunds) != 1 {
		t.Fatalf("refunds = %d, want 1", len(env.gateway.Refunds))
	}
	if env.gateway.Refunds[0].IntentID != o.PaymentIntentID {
		t.Errorf("refunded intent = %s, want %s", env.gateway.Refunds[0].IntentID, o.PaymentIntentID)
	}
}

func TestCancelAfterClaimRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := env.placeHeld(t)
	if _, err := env.svc.Claim(ctx, testProviderUserID, o.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	_, err := env.svc.Cancel(ctx, testWriterID, o.ID)
	if code := conflictCode(t, err); code != "order_not_cancellable" {
		t.Errorf("code = %s, want order_not_cancellable", code)
	}
	if len(env.gateway.Refunds) != 0 {
		t.Errorf("refunds = %d, want 0", len(env.gateway.Refunds))
	}
}

func TestMarkPaymentHeldRedelivery(t *testing.T) {
	env := newTestEnv(t)
	o := env.place(t)
	for i := 0; i < 3; i++ {
		if err := env.svc.MarkPaymentHeld(context.Background(), o.PaymentIntentID); err != nil {
			t.Fatalf("redelivery %d: %v", i, err)
		}
	}
	got, _ := env.orders.GetByID(o.ID)
	if got.Status != models.OrderPaymentHeld {
		t.Errorf("status = %s, want payment_held", got.Status)
	}
}

func TestMarkPaymentHeldUnknownIntent(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.MarkPaymentHeld(context.Background(), "pi_unknown"); err != nil {
		t.Fatalf("unknown intent should be dropped, got %v", err)
	}
}

func TestDeliverValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := env.placeHeld(t)
	if _, err := env.svc.Claim(ctx, testProviderUserID, o.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if _, err := env.svc.Deliver(ctx, testProviderUserID, o.ID, DeliveryInput{}); err == nil {
		t.Error("expected summary_required")
	}
	bad := 11
	if _, err := env.svc.Deliver(ctx, testProviderUserID, o.ID, DeliveryInput{Summary: "x", Score: &bad}); err == nil {
		t.Error("expected invalid_score")
	}
}

func TestSubmitReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := env.placeHeld(t)
	if _, err := env.svc.Claim(ctx, testProviderUserID, o.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := env.svc.Deliver(ctx, testProviderUserID, o.ID, DeliveryInput{Summary: "done"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if _, err := env.svc.SubmitReview(ctx, testWriterID, o.ID, ReviewInput{Rating: 6}); err == nil {
		t.Error("expected invalid_rating for 6")
	}
	if _, err := env.svc.SubmitReview(ctx, testProviderUserID, o.ID, ReviewInput{Rating: 4}); err == nil {
		t.Error("expected forbidden for non-writer review")
	}

	rv, err := env.svc.SubmitReview(ctx, testWriterID, o.ID, ReviewInput{Rating: 4, Comment: "helpful"})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if rv.ProviderID != testProviderID {
		t.Errorf("review provider = %s, want %s", rv.ProviderID, testProviderID)
	}

	_, err = env.svc.SubmitReview(ctx, testWriterID, o.ID, ReviewInput{Rating: 5})
	if code := conflictCode(t, err); code != "review_already_exists" {
		t.Errorf("code = %s, want review_already_exists", code)
	}

	p, _ := env.providers.GetByID(testProviderID)
	if p.AvgRating != 4.0 || p.TotalOrdersCompleted != 1 {
		t.Errorf("rating = %.1f over %d, want 4.0 over 1", p.AvgRating, p.TotalOrdersCompleted)
	}
}

func TestGetOrderPartyOnly(t *testing.T) {
	env := newTestEnv(t)
	o := env.place(t)
	if _, err := env.svc.Get(context.Background(), testWriterID, o.ID); err != nil {
		t.Errorf("writer should see the order: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), testProviderUserID, o.ID); err != nil {
		t.Errorf("provider owner should see the order: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), "stranger", o.ID); err == nil {
		t.Error("expected forbidden for a stranger")
	}
}

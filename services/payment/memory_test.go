package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMemoryCaptureIdempotent(t *testing.T) {
	g := NewMemoryGateway("secret")
	intent, err := g.CreatePaymentIntent(context.Background(), 15000, "usd", nil)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := g.Capture(context.Background(), intent.IntentID); err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
	}
	if len(g.Captures) != 1 {
		t.Errorf("captures = %d, want 1", len(g.Captures))
	}
}

func TestMemorySequentialIDs(t *testing.T) {
	g := NewMemoryGateway("secret")
	acct, _ := g.CreateConnectAccount(context.Background(), "p@example.com")
	intent, _ := g.CreatePaymentIntent(context.Background(), 100, "usd", nil)
	if acct.AccountID != "acct_000001" {
		t.Errorf("account id = %s, want acct_000001", acct.AccountID)
	}
	if intent.IntentID != "pi_000002" {
		t.Errorf("intent id = %s, want pi_000002", intent.IntentID)
	}
}

func TestMemoryWebhookRoundtrip(t *testing.T) {
	g := NewMemoryGateway("secret")
	payload, err := json.Marshal(Event{Type: EventPaymentHeld, IntentID: "pi_000001"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	event, err := g.VerifyWebhook(payload, g.Sign(payload))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Type != EventPaymentHeld || event.IntentID != "pi_000001" {
		t.Errorf("event = %+v", event)
	}
}

func TestMemoryWebhookTampered(t *testing.T) {
	g := NewMemoryGateway("secret")
	payload := []byte(`{"Type":"payment.amount_capturable","IntentID":"pi_000001"}`)
	sig := g.Sign(payload)

	tampered := []byte(`{"Type":"payment.amount_capturable","IntentID":"pi_999999"}`)
	if _, err := g.VerifyWebhook(tampered, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("tampered payload: err = %v, want ErrInvalidSignature", err)
	}
	if _, err := g.VerifyWebhook(payload, "deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("bad signature: err = %v, want ErrInvalidSignature", err)
	}

	other := NewMemoryGateway("other-secret")
	if _, err := other.VerifyWebhook(payload, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("wrong secret: err = %v, want ErrInvalidSignature", err)
	}
}

func TestMemoryAccountStatus(t *testing.T) {
	g := NewMemoryGateway("secret")
	acct, _ := g.CreateConnectAccount(context.Background(), "p@example.com")

	st, err := g.AccountStatus(context.Background(), acct.AccountID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Chargeable || st.Payable {
		t.Error("fresh account should not be chargeable or payable")
	}

	g.SetAccountStatus(acct.AccountID, true, true)
	st, _ = g.AccountStatus(context.Background(), acct.AccountID)
	if !st.Chargeable || !st.Payable {
		t.Error("onboarded account should be chargeable and payable")
	}

	if _, err := g.AccountStatus(context.Background(), "acct_unknown"); err == nil {
		t.Error("expected an error for an unknown account")
	}
}

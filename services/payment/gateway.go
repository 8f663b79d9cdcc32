package payment

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned by VerifyWebhook on a tampered or
// mismatched payload.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Normalized event types emitted by VerifyWebhook. Processor-specific event
// names are mapped onto these; anything else comes back as EventIgnored and
// is dropped by the webhook handler.
const (
	EventPaymentHeld    = "payment.amount_capturable"
	EventAccountUpdated = "account.updated"
	EventIgnored        = ""
)

// ConnectAccount is a freshly provisioned provider sub-account.
type ConnectAccount struct {
	AccountID     string
	OnboardingURL string
}

// AccountStatus reports the capability flags of a connect account.
type AccountStatus struct {
	Chargeable bool
	Payable    bool
}

// Intent is a created payment intent plus the client secret the frontend
// needs to confirm it.
type Intent struct {
	IntentID     string
	ClientSecret string
}

// Event is a verified, normalized webhook event. ChargesEnabled and
// PayoutsEnabled are pointers because processor payloads are not guaranteed
// to carry both flags; nil means absent and callers fall back to a live
// AccountStatus query.
type Event struct {
	Type           string
	IntentID       string
	AccountID      string
	ChargesEnabled *bool
	PayoutsEnabled *bool
}

// Gateway is the escrow capability set over an external payment processor.
// Implementations are selected by dependency injection at construction time,
// never by environment sniffing inside business logic.
type Gateway interface {
	CreateConnectAccount(ctx context.Context, email string) (*ConnectAccount, error)
	// AccountLink re-issues an onboarding URL for an incomplete account.
	AccountLink(ctx context.Context, accountID string) (string, error)
	AccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	// Capture is idempotent: capturing an already-captured intent is a no-op.
	Capture(ctx context.Context, intentID string) error
	TransferToProvider(ctx context.Context, amountCents int64, accountID, groupTag string) (string, error)
	// Refund with a nil amount refunds the full intent.
	Refund(ctx context.Context, intentID string, amountCents *int64) (string, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

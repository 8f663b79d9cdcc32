package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/account"
	"github.com/stripe/stripe-go/v76/accountlink"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway against Stripe Connect. The API key is
// set globally on the stripe package at startup (main.go).
type StripeGateway struct {
	webhookSecret string
	returnURL     string
	currency      string
	logger        *zap.Logger
}

func NewStripeGateway(webhookSecret, returnURL, currency string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		webhookSecret: webhookSecret,
		returnURL:     returnURL,
		currency:      currency,
		logger:        logger,
	}
}

func (g *StripeGateway) CreateConnectAccount(ctx context.Context, email string) (*ConnectAccount, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	acct, err := account.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create connect account: %w", err)
	}
	url, err := g.AccountLink(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	return &ConnectAccount{AccountID: acct.ID, OnboardingURL: url}, nil
}

func (g *StripeGateway) AccountLink(_ context.Context, accountID string) (string, error) {
	link, err := accountlink.New(&stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(g.returnURL),
		ReturnURL:  stripe.String(g.returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", fmt.Errorf("stripe: failed to create account link for %s: %w", accountID, err)
	}
	return link.URL, nil
}

func (g *StripeGateway) AccountStatus(_ context.Context, accountID string) (*AccountStatus, error) {
	acct, err := account.GetByID(accountID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to fetch account %s: %w", accountID, err)
	}
	return &AccountStatus{Chargeable: acct.ChargesEnabled, Payable: acct.PayoutsEnabled}, nil
}

func (g *StripeGateway) CreatePaymentIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		// Manual capture is the escrow hold: funds are authorized at
		// confirmation and only captured at order completion.
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}
	return &Intent{IntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) Capture(_ context.Context, intentID string) error {
	pi, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return fmt.Errorf("stripe: failed to fetch intent %s: %w", intentID, err)
	}
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		g.logger.Debug("stripe: intent already captured", zap.String("intent", intentID))
		return nil
	}
	if _, err := paymentintent.Capture(intentID, &stripe.PaymentIntentCaptureParams{}); err != nil {
		return fmt.Errorf("stripe: failed to capture intent %s: %w", intentID, err)
	}
	return nil
}

func (g *StripeGateway) TransferToProvider(_ context.Context, amountCents int64, accountID, groupTag string) (string, error) {
	tr, err := transfer.New(&stripe.TransferParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(g.currency),
		Destination:   stripe.String(accountID),
		TransferGroup: stripe.String(groupTag),
	})
	if err != nil {
		return "", fmt.Errorf("stripe: failed to transfer to account %s: %w", accountID, err)
	}
	return tr.ID, nil
}

func (g *StripeGateway) Refund(_ context.Context, intentID string, amountCents *int64) (string, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	if amountCents != nil {
		params.Amount = stripe.Int64(*amountCents)
	}
	rf, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: failed to refund intent %s: %w", intentID, err)
	}
	return rf.ID, nil
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	switch event.Type {
	case "payment_intent.amount_capturable_updated":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: malformed payment intent event: %w", err)
		}
		return &Event{Type: EventPaymentHeld, IntentID: pi.ID}, nil
	case "account.updated":
		// Decode into pointer booleans: Stripe does not guarantee both
		// capability flags in every account.updated payload.
		var acct struct {
			ID             string `json:"id"`
			ChargesEnabled *bool  `json:"charges_enabled"`
			PayoutsEnabled *bool  `json:"payouts_enabled"`
		}
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("stripe: malformed account event: %w", err)
		}
		return &Event{
			Type:           EventAccountUpdated,
			AccountID:      acct.ID,
			ChargesEnabled: acct.ChargesEnabled,
			PayoutsEnabled: acct.PayoutsEnabled,
		}, nil
	default:
		g.logger.Debug("stripe: ignoring webhook event", zap.String("type", string(event.Type)))
		return &Event{Type: EventIgnored}, nil
	}
}

package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryGateway is a deterministic in-memory Gateway for tests and local
// development. IDs are sequential, webhook signatures are HMAC-SHA256 over
// the raw payload, and every money-moving call is recorded for assertions.
type MemoryGateway struct {
	mu sync.Mutex

	secret   []byte
	seq      int
	accounts map[string]AccountStatus
	captured map[string]bool

	// Optional fault injection.
	CaptureErr  error
	TransferErr error
	RefundErr   error

	Captures  []string
	Transfers []memTransfer
	Refunds   []memRefund
}

type memTransfer struct {
	AmountCents int64
	AccountID   string
	GroupTag    string
	TransferID  string
}

type memRefund struct {
	IntentID    string
	AmountCents *int64
	RefundID    string
}

func NewMemoryGateway(secret string) *MemoryGateway {
	return &MemoryGateway{
		secret:   []byte(secret),
		accounts: make(map[string]AccountStatus),
		captured: make(map[string]bool),
	}
}

func (g *MemoryGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_%06d", prefix, g.seq)
}

func (g *MemoryGateway) CreateConnectAccount(_ context.Context, email string) (*ConnectAccount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID("acct")
	g.accounts[id] = AccountStatus{}
	return &ConnectAccount{
		AccountID:     id,
		OnboardingURL: "https://onboarding.test/" + id,
	}, nil
}

func (g *MemoryGateway) AccountLink(_ context.Context, accountID string) (string, error) {
	return "https://onboarding.test/" + accountID, nil
}

func (g *MemoryGateway) AccountStatus(_ context.Context, accountID string) (*AccountStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("memory gateway: unknown account %s", accountID)
	}
	cp := st
	return &cp, nil
}

// SetAccountStatus simulates the provider finishing (or losing) onboarding.
func (g *MemoryGateway) SetAccountStatus(accountID string, chargeable, payable bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts[accountID] = AccountStatus{Chargeable: chargeable, Payable: payable}
}

func (g *MemoryGateway) CreatePaymentIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID("pi")
	return &Intent{IntentID: id, ClientSecret: id + "_secret"}, nil
}

func (g *MemoryGateway) Capture(_ context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CaptureErr != nil {
		return g.CaptureErr
	}
	if g.captured[intentID] {
		return nil
	}
	g.captured[intentID] = true
	g.Captures = append(g.Captures, intentID)
	return nil
}

func (g *MemoryGateway) TransferToProvider(_ context.Context, amountCents int64, accountID, groupTag string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.TransferErr != nil {
		return "", g.TransferErr
	}
	id := g.nextID("tr")
	g.Transfers = append(g.Transfers, memTransfer{
		AmountCents: amountCents,
		AccountID:   accountID,
		GroupTag:    groupTag,
		TransferID:  id,
	})
	return id, nil
}

func (g *MemoryGateway) Refund(_ context.Context, intentID string, amountCents *int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.RefundErr != nil {
		return "", g.RefundErr
	}
	id := g.nextID("re")
	g.Refunds = append(g.Refunds, memRefund{IntentID: intentID, AmountCents: amountCents, RefundID: id})
	return id, nil
}

// Sign computes the signature VerifyWebhook expects for a payload. Tests use
// it to build valid webhook requests.
func (g *MemoryGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *MemoryGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	expected := g.Sign(payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("memory gateway: malformed event payload: %w", err)
	}
	return &event, nil
}

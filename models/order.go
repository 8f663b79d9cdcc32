package models

import (
	"time"
)

// Order states. Transitions outside the table in services/order are rejected
// with a conflict error; the allowed edges are enforced with guarded
// compare-and-set updates at the repository layer.
type OrderStatus string

const (
	OrderPlaced      OrderStatus = "placed"
	OrderPaymentHeld OrderStatus = "payment_held"
	OrderClaimed     OrderStatus = "claimed"
	OrderInProgress  OrderStatus = "in_progress"
	OrderDelivered   OrderStatus = "delivered"
	OrderCompleted   OrderStatus = "completed"
	OrderCancelled   OrderStatus = "cancelled"
	OrderDisputed    OrderStatus = "disputed"
	OrderRefunded    OrderStatus = "refunded"
)

// Order is the escrowed transaction between a writer and a provider.
// PriceCents = PlatformFeeCents + ProviderPayoutCents always; all three are
// fixed at creation time from the service's then-current price and never
// recomputed afterwards.
type Order struct {
	ID         string `bson:"id" json:"id"`
	WriterID   string `bson:"writerId" json:"writerId"`
	ProviderID string `bson:"providerId" json:"providerId"`
	ServiceID  string `bson:"serviceId" json:"serviceId"`
	ScriptRef  string `bson:"scriptRef,omitempty" json:"scriptRef,omitempty"`
	ProjectRef string `bson:"projectRef,omitempty" json:"projectRef,omitempty"`

	Status OrderStatus `bson:"status" json:"status"`

	PriceCents          int64  `bson:"priceCents" json:"priceCents"`
	PlatformFeeCents    int64  `bson:"platformFeeCents" json:"platformFeeCents"`
	ProviderPayoutCents int64  `bson:"providerPayoutCents" json:"providerPayoutCents"`
	Currency            string `bson:"currency" json:"currency"`

	PaymentIntentID string `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	TransferID      string `bson:"transferId,omitempty" json:"transferId,omitempty"`

	SLADeadline *time.Time `bson:"slaDeadline,omitempty" json:"slaDeadline,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OrderMutation carries the fields a guarded status transition may set
// alongside the status itself. Nil fields are left untouched.
type OrderMutation struct {
	SLADeadline *time.Time
	DeliveredAt *time.Time
	TransferID  *string
}

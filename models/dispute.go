package models

import (
	"time"
)

type DisputeStatus string

const (
	DisputeOpen             DisputeStatus = "open"
	DisputeUnderReview      DisputeStatus = "under_review"
	DisputeResolvedRefund   DisputeStatus = "resolved_refund"
	DisputeResolvedNoRefund DisputeStatus = "resolved_no_refund"
	DisputeResolvedPartial  DisputeStatus = "resolved_partial"
)

// Active reports whether the dispute still blocks a second one on its order.
func (s DisputeStatus) Active() bool {
	return s == DisputeOpen || s == DisputeUnderReview
}

type DisputeReason string

const (
	DisputeReasonQuality     DisputeReason = "quality"
	DisputeReasonNonDelivery DisputeReason = "non_delivery"
	DisputeReasonWrongScript DisputeReason = "wrong_script"
	DisputeReasonOther       DisputeReason = "other"
)

// Dispute is an adjudication case on one order. At most one dispute in an
// active status may exist per order at any time.
type Dispute struct {
	ID                string        `bson:"id" json:"id"`
	OrderID           string        `bson:"orderId" json:"orderId"`
	OpenedBy          string        `bson:"openedBy" json:"openedBy"`
	Reason            DisputeReason `bson:"reason" json:"reason"`
	Description       string        `bson:"description,omitempty" json:"description,omitempty"`
	Status            DisputeStatus `bson:"status" json:"status"`
	AdminNotes        string        `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	RefundAmountCents *int64        `bson:"refundAmountCents,omitempty" json:"refundAmountCents,omitempty"`
	ResolvedAt        *time.Time    `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt         time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Dispute event types recorded on the audit trail.
const (
	DisputeEventOpened       = "opened"
	DisputeEventResolved     = "resolved"
	DisputeEventSLAAutoOpen  = "sla_breach_auto_open"
	DisputeEventStatusChange = "status_change"
)

// DisputeEvent is one append-only audit row. Events are never mutated or
// deleted; the trail is the sole source of dispute history.
type DisputeEvent struct {
	ID         string        `bson:"id" json:"id"`
	DisputeID  string        `bson:"disputeId" json:"disputeId"`
	Actor      string        `bson:"actor" json:"actor"` // user id, admin id, or "system"
	Type       string        `bson:"type" json:"type"`
	Note       string        `bson:"note,omitempty" json:"note,omitempty"`
	FromStatus DisputeStatus `bson:"fromStatus,omitempty" json:"fromStatus,omitempty"`
	ToStatus   DisputeStatus `bson:"toStatus,omitempty" json:"toStatus,omitempty"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

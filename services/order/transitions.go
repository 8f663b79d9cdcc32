package order

import (
	"coverly/models"
)

// Events that drive the order state machine. Every mutating operation
// consults the same table below, so invalid transitions are rejected in one
// place with a stable conflict code.
type Event string

const (
	EventPaymentHold  Event = "payment_hold"
	EventClaim        Event = "claim"
	EventStart        Event = "start"
	EventDeliver      Event = "deliver"
	EventComplete     Event = "complete"
	EventCancel       Event = "cancel"
	EventDispute      Event = "dispute"
	EventAutoDispute  Event = "auto_dispute"
	EventAutoComplete Event = "auto_complete"
	// Dispute resolutions re-enter the order machine through these two.
	EventResolveRefund Event = "resolve_refund"
	EventResolveSettle Event = "resolve_settle"
)

type transition struct {
	From         []models.OrderStatus
	To           models.OrderStatus
	ConflictCode string
}

var transitions = map[Event]transition{
	EventPaymentHold: {
		From:         []models.OrderStatus{models.OrderPlaced},
		To:           models.OrderPaymentHeld,
		ConflictCode: "order_not_holdable",
	},
	EventClaim: {
		From:         []models.OrderStatus{models.OrderPaymentHeld},
		To:           models.OrderClaimed,
		ConflictCode: "order_not_claimable",
	},
	EventStart: {
		From:         []models.OrderStatus{models.OrderClaimed},
		To:           models.OrderInProgress,
		ConflictCode: "order_not_startable",
	},
	EventDeliver: {
		From:         []models.OrderStatus{models.OrderClaimed, models.OrderInProgress},
		To:           models.OrderDelivered,
		ConflictCode: "order_not_deliverable",
	},
	EventComplete: {
		From:         []models.OrderStatus{models.OrderDelivered},
		To:           models.OrderCompleted,
		ConflictCode: "order_not_completable",
	},
	EventCancel: {
		From:         []models.OrderStatus{models.OrderPlaced, models.OrderPaymentHeld},
		To:           models.OrderCancelled,
		ConflictCode: "order_not_cancellable",
	},
	EventDispute: {
		From:         []models.OrderStatus{models.OrderDelivered},
		To:           models.OrderDisputed,
		ConflictCode: "order_not_disputable",
	},
	EventAutoDispute: {
		From:         []models.OrderStatus{models.OrderClaimed, models.OrderInProgress},
		To:           models.OrderDisputed,
		ConflictCode: "order_not_disputable",
	},
	EventAutoComplete: {
		From:         []models.OrderStatus{models.OrderDelivered},
		To:           models.OrderCompleted,
		ConflictCode: "order_not_completable",
	},
	EventResolveRefund: {
		From:         []models.OrderStatus{models.OrderDisputed},
		To:           models.OrderRefunded,
		ConflictCode: "order_not_refundable",
	},
	EventResolveSettle: {
		From:         []models.OrderStatus{models.OrderDisputed},
		To:           models.OrderCompleted,
		ConflictCode: "order_not_completable",
	},
}

// Rule returns the transition for an event. Unknown events have no rule and
// no caller; the map is exhaustive over the Event constants.
func Rule(e Event) transition {
	return transitions[e]
}

package disputeRepo

import (
	"errors"
	"time"

	"coverly/models"
)

var ErrNotFound = errors.New("dispute not found")

// ErrActiveDisputeExists is returned when an open/under_review dispute
// already exists for the order.
var ErrActiveDisputeExists = errors.New("active dispute already exists for order")

// DisputeFilter narrows dispute listings.
type DisputeFilter struct {
	OrderID  string
	OrderIDs []string
	OpenedBy string
	Status   models.DisputeStatus
}

// DisputeMutation carries the fields a guarded resolution may set.
type DisputeMutation struct {
	AdminNotes        *string
	RefundAmountCents *int64
	ResolvedAt        *time.Time
}

// DisputeRepository persists disputes and their append-only event trail.
type DisputeRepository interface {
	// CreateIfNoActive inserts the dispute unless the order already has one
	// in an active status, in which case it fails with
	// ErrActiveDisputeExists. The check and insert are atomic.
	CreateIfNoActive(dispute *models.Dispute) error
	GetByID(id string) (*models.Dispute, error)
	HasActiveForOrder(orderID string) (bool, error)
	TransitionStatus(id string, from []models.DisputeStatus, to models.DisputeStatus, mut DisputeMutation) (bool, error)
	List(filter DisputeFilter) ([]models.Dispute, error)

	// Events are append-only; there is no update or delete.
	AppendEvent(event *models.DisputeEvent) error
	ListEvents(disputeID string) ([]models.DisputeEvent, error)
}

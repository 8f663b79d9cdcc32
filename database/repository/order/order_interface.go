package orderRepo

import (
	"errors"
	"time"

	"coverly/models"
)

var ErrNotFound = errors.New("order not found")

// OrderFilter narrows order listings.
type OrderFilter struct {
	WriterID   string
	ProviderID string
	Status     models.OrderStatus
	// UpdatedFrom/UpdatedTo bound UpdatedAt (earnings statements, ledgers).
	UpdatedFrom time.Time
	UpdatedTo   time.Time
}

// OrderRepository persists orders. TransitionStatus is the only way status
// changes: it performs one conditional update so two racing transitions on
// the same order resolve to exactly one winner.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByPaymentIntent(intentID string) (*models.Order, error)
	List(filter OrderFilter) ([]models.Order, error)

	// TransitionStatus atomically moves the order to `to` only if its current
	// status is in `from`, applying mut in the same write. Returns false when
	// the precondition did not hold (and the order was left untouched).
	TransitionStatus(id string, from []models.OrderStatus, to models.OrderStatus, mut models.OrderMutation) (bool, error)

	// ListDeliveredBefore returns delivered orders whose deliveredAt is older
	// than the cutoff (SLA auto-complete candidates).
	ListDeliveredBefore(cutoff time.Time) ([]models.Order, error)
	// ListSLABreached returns claimed/in_progress orders whose slaDeadline
	// has passed (SLA auto-dispute candidates).
	ListSLABreached(now time.Time) ([]models.Order, error)
}

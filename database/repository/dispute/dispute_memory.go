package disputeRepo

import (
	"sort"
	"sync"
	"time"

	"coverly/models"
)

// MemoryDisputeRepo is an in-memory DisputeRepository. The mutex covers the
// active-dispute check and insert together, matching the partial unique
// index the Mongo implementation relies on.
type MemoryDisputeRepo struct {
	mu       sync.Mutex
	disputes map[string]models.Dispute
	events   []models.DisputeEvent
}

func NewMemoryDisputeRepo() *MemoryDisputeRepo {
	return &MemoryDisputeRepo{disputes: make(map[string]models.Dispute)}
}

func (r *MemoryDisputeRepo) CreateIfNoActive(dispute *models.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.disputes {
		if d.OrderID == dispute.OrderID && d.Status.Active() {
			return ErrActiveDisputeExists
		}
	}
	r.disputes[dispute.ID] = *dispute
	return nil
}

func (r *MemoryDisputeRepo) GetByID(id string) (*models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := d
	return &cp, nil
}

func (r *MemoryDisputeRepo) HasActiveForOrder(orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.disputes {
		if d.OrderID == orderID && d.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryDisputeRepo) TransitionStatus(id string, from []models.DisputeStatus, to models.DisputeStatus, mut DisputeMutation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if d.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	d.Status = to
	d.UpdatedAt = time.Now().UTC()
	if mut.AdminNotes != nil {
		d.AdminNotes = *mut.AdminNotes
	}
	if mut.RefundAmountCents != nil {
		d.RefundAmountCents = mut.RefundAmountCents
	}
	if mut.ResolvedAt != nil {
		d.ResolvedAt = mut.ResolvedAt
	}
	r.disputes[id] = d
	return true, nil
}

func (r *MemoryDisputeRepo) List(filter DisputeFilter) ([]models.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Dispute
	for _, d := range r.disputes {
		if filter.OrderID != "" && d.OrderID != filter.OrderID {
			continue
		}
		if len(filter.OrderIDs) > 0 && !containsString(filter.OrderIDs, d.OrderID) {
			continue
		}
		if filter.OpenedBy != "" && d.OpenedBy != filter.OpenedBy {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *MemoryDisputeRepo) AppendEvent(event *models.DisputeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *MemoryDisputeRepo) ListEvents(disputeID string) ([]models.DisputeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DisputeEvent
	for _, e := range r.events {
		if e.DisputeID == disputeID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Reader exposes the ordered queries every status-based selection goes through.
// FindOldestWaiting and FindCurrentInProgress return (nil, nil) when nothing
// matches; FindByID returns ErrNotFound.
type Reader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*QueueEntry, error)
	FindOldestWaiting(ctx context.Context) (*QueueEntry, error)
	FindCurrentInProgress(ctx context.Context) (*QueueEntry, error)
	CountWaiting(ctx context.Context) (int64, error)
	ListWaiting(ctx context.Context) ([]QueueEntry, error)
	List(ctx context.Context, filter ListFilter) ([]QueueEntry, error)
}

// Tx is a Reader inside the queue-wide critical section
type Tx interface {
	Reader
	MaxTicketNumber(ctx context.Context) (int64, error)
	Insert(ctx context.Context, entry *QueueEntry) error
	Update(ctx context.Context, id uuid.UUID, tr Transition) (*QueueEntry, error)
}

// Store is the authoritative holder of queue entries.
//
// Atomically runs fn while holding the queue-wide lock; everything fn writes is
// committed together when it returns nil and discarded otherwise. View runs fn
// against one consistent snapshot of committed state.
type Store interface {
	View(ctx context.Context, fn func(r Reader) error) error
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// TicketSequencer issues ticket numbers from the authoritative store
type TicketSequencer struct{}

// Next returns 1 for an empty store, otherwise the highest ticket ever issued plus one.
// Callers must use the same tx for the following Insert.
func (TicketSequencer) Next(ctx context.Context, tx Tx) (int64, error) {
	max, err := tx.MaxTicketNumber(ctx)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// validateInsert holds the insert preconditions shared by every Store
func validateInsert(entry *QueueEntry, maxTicket int64) error {
	if entry.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	if entry.TicketNumber <= maxTicket {
		return fmt.Errorf("%w: ticket %d is not greater than %d", ErrValidation, entry.TicketNumber, maxTicket)
	}
	if entry.Status != StatusWaiting {
		return fmt.Errorf("%w: new entries must be %s", ErrValidation, StatusWaiting)
	}
	if entry.AssignedServerID != nil || entry.CompletedAt != nil || entry.CancelledAt != nil {
		return fmt.Errorf("%w: new entries cannot carry service data", ErrValidation)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

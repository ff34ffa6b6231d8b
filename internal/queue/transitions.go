package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transition describes a requested status change and the data it carries
type Transition struct {
	To       Status
	ServerID uuid.UUID
	At       time.Time
}

// StartService moves a WAITING entry to IN_PROGRESS on behalf of a staff member
func StartService(serverID uuid.UUID, at time.Time) Transition {
	return Transition{To: StatusInProgress, ServerID: serverID, At: at}
}

// Complete moves an IN_PROGRESS entry to COMPLETED
func Complete(at time.Time) Transition {
	return Transition{To: StatusCompleted, At: at}
}

// Cancel moves a WAITING entry to CANCELLED
func Cancel(at time.Time) Transition {
	return Transition{To: StatusCancelled, At: at}
}

// Apply mutates entry according to tr. It is the only place that writes
// status-dependent fields, so completed_at is set iff the entry is COMPLETED.
func Apply(entry *QueueEntry, tr Transition) error {
	if !entry.Status.CanTransitionTo(tr.To) {
		return fmt.Errorf("%w: %s -> %s for ticket %d", ErrInvalidTransition, entry.Status, tr.To, entry.TicketNumber)
	}

	switch tr.To {
	case StatusInProgress:
		if tr.ServerID == uuid.Nil {
			return fmt.Errorf("%w: server id is required to start service", ErrValidation)
		}
		serverID := tr.ServerID
		entry.AssignedServerID = &serverID
	case StatusCompleted:
		at := tr.At
		entry.CompletedAt = &at
	case StatusCancelled:
		at := tr.At
		entry.CancelledAt = &at
	}

	entry.Status = tr.To
	entry.UpdatedAt = tr.At
	return nil
}

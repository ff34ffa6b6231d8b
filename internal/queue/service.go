package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinicq/internal/broadcast"
	"clinicq/pkg/logger"

	"github.com/google/uuid"
)

// Notifier tells patients about their ticket (to avoid import cycles)
type Notifier interface {
	TicketIssued(ctx context.Context, entry QueueEntry) error
	PatientCalled(ctx context.Context, entry QueueEntry) error
}

// Service interface defines the contract for queue business operations
type Service interface {
	// Mutations
	Register(ctx context.Context, patientID uuid.UUID) (*QueueEntry, error)
	CallNext(ctx context.Context, serverID uuid.UUID) (*QueueEntry, error)
	Complete(ctx context.Context, entryID uuid.UUID) (*QueueEntry, error)
	Cancel(ctx context.Context, entryID uuid.UUID) (*QueueEntry, error)

	// Reads
	Status(ctx context.Context) (*StatusSnapshot, error)
	Get(ctx context.Context, entryID uuid.UUID) (*QueueEntry, error)
	ListWaiting(ctx context.Context) ([]QueueEntry, error)
	List(ctx context.Context, filter ListFilter) ([]QueueEntry, error)
}

// service implements the Service interface
type service struct {
	store     Store
	sequencer TicketSequencer
	projector *Projector
	directory PatientDirectory
	publisher broadcast.Publisher
	notifier  Notifier
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a new queue service. directory, publisher and notifier may be nil.
func NewService(store Store, directory PatientDirectory, publisher broadcast.Publisher, notifier Notifier) Service {
	return &service{
		store:     store,
		projector: NewProjector(store, directory),
		directory: directory,
		publisher: publisher,
		notifier:  notifier,
		log:       logger.GetDefault(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register issues the next ticket for patientID and appends a WAITING entry
func (s *service) Register(ctx context.Context, patientID uuid.UUID) (*QueueEntry, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}

	var entry *QueueEntry
	err := s.store.Atomically(ctx, func(tx Tx) error {
		ticket, err := s.sequencer.Next(ctx, tx)
		if err != nil {
			return err
		}

		// createdAt is taken under the lock so ticket order matches creation order
		now := s.now()
		entry = &QueueEntry{
			ID:           uuid.New(),
			PatientID:    patientID,
			TicketNumber: ticket,
			Status:       StatusWaiting,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Insert(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.LogTicketIssued(ctx, entry.ID.String(), patientID.String(), entry.TicketNumber)
	s.publish(ctx, broadcast.EventNewPatient, entry)
	if s.notifier != nil {
		s.notify(ctx, entry, s.notifier.TicketIssued)
	}

	return entry, nil
}

// CallNext moves the oldest WAITING entry to IN_PROGRESS for serverID
func (s *service) CallNext(ctx context.Context, serverID uuid.UUID) (*QueueEntry, error) {
	if serverID == uuid.Nil {
		return nil, fmt.Errorf("%w: server id is required", ErrValidation)
	}

	var called *QueueEntry
	err := s.store.Atomically(ctx, func(tx Tx) error {
		serving, err := tx.FindCurrentInProgress(ctx)
		if err != nil {
			return err
		}
		if serving != nil {
			return fmt.Errorf("%w: ticket %d", ErrAlreadyServing, serving.TicketNumber)
		}

		oldest, err := tx.FindOldestWaiting(ctx)
		if err != nil {
			return err
		}
		if oldest == nil {
			return ErrEmptyQueue
		}

		called, err = tx.Update(ctx, oldest.ID, StartService(serverID, s.now()))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.LogPatientCalled(ctx, called.ID.String(), serverID.String(), called.TicketNumber)
	s.publish(ctx, broadcast.EventPatientCalled, called)
	if s.notifier != nil {
		s.notify(ctx, called, s.notifier.PatientCalled)
	}

	return called, nil
}

// Complete finishes the consultation of an IN_PROGRESS entry
func (s *service) Complete(ctx context.Context, entryID uuid.UUID) (*QueueEntry, error) {
	completed, err := s.transition(ctx, entryID, Complete(s.now()))
	if err != nil {
		return nil, err
	}

	s.log.LogEntryCompleted(ctx, completed.ID.String(), completed.TicketNumber, completed.CompletedAt.Sub(completed.CreatedAt))
	s.publish(ctx, broadcast.EventAppointmentCompleted, completed)

	return completed, nil
}

// Cancel removes a WAITING entry from the line
func (s *service) Cancel(ctx context.Context, entryID uuid.UUID) (*QueueEntry, error) {
	cancelled, err := s.transition(ctx, entryID, Cancel(s.now()))
	if err != nil {
		return nil, err
	}

	s.log.LogEntryCancelled(ctx, cancelled.ID.String(), cancelled.TicketNumber)
	s.publish(ctx, broadcast.EventEntryCancelled, cancelled)

	return cancelled, nil
}

func (s *service) transition(ctx context.Context, entryID uuid.UUID, tr Transition) (*QueueEntry, error) {
	if entryID == uuid.Nil {
		return nil, fmt.Errorf("%w: entry id is required", ErrValidation)
	}

	var updated *QueueEntry
	err := s.store.Atomically(ctx, func(tx Tx) error {
		var err error
		updated, err = tx.Update(ctx, entryID, tr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Status returns the public queue snapshot
func (s *service) Status(ctx context.Context) (*StatusSnapshot, error) {
	return s.projector.Project(ctx)
}

// Get returns a single entry
func (s *service) Get(ctx context.Context, entryID uuid.UUID) (*QueueEntry, error) {
	var entry *QueueEntry
	err := s.store.View(ctx, func(r Reader) error {
		var err error
		entry, err = r.FindByID(ctx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListWaiting returns WAITING entries in ticket order
func (s *service) ListWaiting(ctx context.Context) ([]QueueEntry, error) {
	var entries []QueueEntry
	err := s.store.View(ctx, func(r Reader) error {
		var err error
		entries, err = r.ListWaiting(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// List returns entries in ticket order, optionally filtered by status
func (s *service) List(ctx context.Context, filter ListFilter) ([]QueueEntry, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}

	var entries []QueueEntry
	err := s.store.View(ctx, func(r Reader) error {
		var err error
		entries, err = r.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// publish runs after commit; a failed broadcast never fails the mutation
func (s *service) publish(ctx context.Context, name string, entry *QueueEntry) {
	if s.publisher == nil {
		return
	}

	event := broadcast.Event{
		Name:               name,
		EntryID:            entry.ID.String(),
		TicketNumber:       entry.TicketNumber,
		PatientDisplayName: s.displayName(ctx, entry.PatientID),
		Timestamp:          s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.LogBroadcastDropped(ctx, name, "publisher", err)
	}

	// Followed by the full snapshot so dashboards can skip the re-fetch
	if err := PublishSnapshot(ctx, s, s.publisher, event.Timestamp); err != nil {
		s.log.LogBroadcastDropped(ctx, broadcast.EventQueueUpdate, "publisher", err)
	}
}

// PublishSnapshot pushes the full status as a queue-update event
func PublishSnapshot(ctx context.Context, svc Service, publisher broadcast.Publisher, at time.Time) error {
	snapshot, err := svc.Status(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, broadcast.Event{
		Name:      broadcast.EventQueueUpdate,
		Timestamp: at,
		Data:      data,
	})
}

func (s *service) displayName(ctx context.Context, patientID uuid.UUID) string {
	if s.directory == nil {
		return ""
	}
	name, err := s.directory.DisplayName(ctx, patientID)
	if err != nil {
		return ""
	}
	return name
}

// notify is best effort: the entry is already committed and broadcast
func (s *service) notify(ctx context.Context, entry *QueueEntry, send func(context.Context, QueueEntry) error) {
	if err := send(ctx, *entry); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to queue patient notification", err, map[string]interface{}{
			"entry_id":      entry.ID.String(),
			"ticket_number": entry.TicketNumber,
		})
	}
}

package queue

import (
	"context"

	"clinicq/pkg/logger"

	"github.com/google/uuid"
)

// PatientDirectory resolves the name shown on display screens
type PatientDirectory interface {
	DisplayName(ctx context.Context, patientID uuid.UUID) (string, error)
}

// Projector derives the public StatusSnapshot from the store
type Projector struct {
	store     Store
	directory PatientDirectory
	log       *logger.Logger
}

// NewProjector creates a projector; directory may be nil
func NewProjector(store Store, directory PatientDirectory) *Projector {
	return &Projector{
		store:     store,
		directory: directory,
		log:       logger.GetDefault(),
	}
}

// Project reads current, next and waiting count from one consistent snapshot
func (p *Projector) Project(ctx context.Context) (*StatusSnapshot, error) {
	var (
		current, next *QueueEntry
		waiting       int64
	)

	err := p.store.View(ctx, func(r Reader) error {
		var err error
		if current, err = r.FindCurrentInProgress(ctx); err != nil {
			return err
		}
		if next, err = r.FindOldestWaiting(ctx); err != nil {
			return err
		}
		waiting, err = r.CountWaiting(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &StatusSnapshot{
		Current:      p.view(ctx, current),
		Next:         p.view(ctx, next),
		WaitingCount: waiting,
	}, nil
}

func (p *Projector) view(ctx context.Context, entry *QueueEntry) *TicketView {
	if entry == nil {
		return nil
	}
	return &TicketView{
		TicketNumber:       entry.TicketNumber,
		PatientDisplayName: p.displayName(ctx, entry.PatientID),
	}
}

// displayName never fails the projection; an unknown name renders as empty
func (p *Projector) displayName(ctx context.Context, patientID uuid.UUID) string {
	if p.directory == nil {
		return ""
	}
	name, err := p.directory.DisplayName(ctx, patientID)
	if err != nil {
		p.log.WarnContext(ctx, "Patient display name unavailable", "patient_id", patientID.String(), "error", err.Error())
		return ""
	}
	return name
}

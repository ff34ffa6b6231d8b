package notifications

import (
	"context"
	"fmt"

	"clinicq/internal/queue"

	"github.com/google/uuid"
)

// ContactLookup resolves where a patient's e-mails go
type ContactLookup interface {
	Contact(ctx context.Context, patientID uuid.UUID) (email, name string, err error)
}

// QueueNotifier implements queue.Notifier by publishing e-mail notifications.
// Patients without an e-mail address are skipped.
type QueueNotifier struct {
	producer   NotificationProducer
	contacts   ContactLookup
	clinicName string
}

var _ queue.Notifier = (*QueueNotifier)(nil)

func NewQueueNotifier(producer NotificationProducer, contacts ContactLookup, clinicName string) *QueueNotifier {
	return &QueueNotifier{
		producer:   producer,
		contacts:   contacts,
		clinicName: clinicName,
	}
}

func (n *QueueNotifier) TicketIssued(ctx context.Context, entry queue.QueueEntry) error {
	return n.publish(ctx, NotificationTypeTicketIssued, entry)
}

func (n *QueueNotifier) PatientCalled(ctx context.Context, entry queue.QueueEntry) error {
	return n.publish(ctx, NotificationTypePatientCalled, entry)
}

func (n *QueueNotifier) publish(ctx context.Context, notType NotificationType, entry queue.QueueEntry) error {
	email, name, err := n.contacts.Contact(ctx, entry.PatientID)
	if err != nil {
		return fmt.Errorf("failed to resolve contact for patient %s: %w", entry.PatientID, err)
	}
	if email == "" {
		return nil
	}

	builder := NewNotificationBuilder().
		WithType(notType).
		WithRecipient(entry.PatientID, email, name).
		WithEntry(entry.ID, entry.TicketNumber).
		WithTemplateData("clinic", n.clinicName)
	if notType == NotificationTypePatientCalled {
		builder = builder.WithExpiration(calledNotificationTTL)
	}

	return n.producer.PublishNotification(ctx, builder.Build())
}

package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicq/internal/queue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingProducer struct {
	published []*EmailNotification
}

func (p *capturingProducer) PublishNotification(_ context.Context, n *EmailNotification) error {
	p.published = append(p.published, n)
	return nil
}

func (p *capturingProducer) Close() error { return nil }

type staticContacts map[uuid.UUID][2]string

func (c staticContacts) Contact(_ context.Context, id uuid.UUID) (string, string, error) {
	v, ok := c[id]
	if !ok {
		return "", "", errors.New("patient not found")
	}
	return v[0], v[1], nil
}

func TestQueueNotifier(t *testing.T) {
	withEmail := uuid.New()
	withoutEmail := uuid.New()
	contacts := staticContacts{
		withEmail:    {"jane@example.com", "Jane Doe"},
		withoutEmail: {"", "Sam Roe"},
	}
	producer := &capturingProducer{}
	notifier := NewQueueNotifier(producer, contacts, "Riverside Clinic")
	ctx := context.Background()

	entry := queue.QueueEntry{ID: uuid.New(), PatientID: withEmail, TicketNumber: 4}

	require.NoError(t, notifier.TicketIssued(ctx, entry))
	require.NoError(t, notifier.PatientCalled(ctx, entry))
	require.Len(t, producer.published, 2)

	issued := producer.published[0]
	assert.Equal(t, NotificationTypeTicketIssued, issued.Type)
	assert.Equal(t, "jane@example.com", issued.RecipientEmail)
	assert.Equal(t, entry.ID, issued.EntryID)
	assert.Equal(t, "Riverside Clinic", issued.TemplateData["clinic"])
	assert.Nil(t, issued.ExpiresAt)

	called := producer.published[1]
	assert.Equal(t, NotificationTypePatientCalled, called.Type)
	require.NotNil(t, called.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(calledNotificationTTL), *called.ExpiresAt, time.Minute)

	// No address, nothing published
	require.NoError(t, notifier.TicketIssued(ctx, queue.QueueEntry{ID: uuid.New(), PatientID: withoutEmail}))
	assert.Len(t, producer.published, 2)

	err := notifier.TicketIssued(ctx, queue.QueueEntry{ID: uuid.New(), PatientID: uuid.New()})
	assert.Error(t, err)
}

package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaProducer_PublishNotification(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	producer := newKafkaNotificationProducer(sp, "queue-notifications")

	patientID := uuid.New()
	notification := NewNotificationBuilder().
		WithType(NotificationTypeTicketIssued).
		WithRecipient(patientID, "jane@example.com", "Jane Doe").
		WithEntry(uuid.New(), 7).
		Build()

	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got EmailNotification
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Type != NotificationTypeTicketIssued || got.TicketNumber != 7 {
			return fmt.Errorf("unexpected payload %+v", got)
		}
		if got.Status != NotificationStatusQueued {
			return fmt.Errorf("status %s, want QUEUED", got.Status)
		}
		return nil
	})

	require.NoError(t, producer.PublishNotification(context.Background(), notification))
	assert.Equal(t, patientID.String(), notification.GetPartitionKey())
	require.NoError(t, producer.Close())
}

func TestKafkaProducer_PublishFailureMarksFailed(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	producer := newKafkaNotificationProducer(sp, "queue-notifications")

	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	notification := NewNotificationBuilder().WithType(NotificationTypePatientCalled).Build()
	err := producer.PublishNotification(context.Background(), notification)

	require.Error(t, err)
	assert.True(t, errors.Is(err, sarama.ErrOutOfBrokers))
	assert.Equal(t, NotificationStatusFailed, notification.Status)
	require.NotNil(t, notification.LastError)
	require.NoError(t, producer.Close())
}

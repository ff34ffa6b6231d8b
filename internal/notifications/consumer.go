package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"clinicq/pkg/logger"

	"github.com/IBM/sarama"
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeout       time.Duration
	Heartbeat            time.Duration
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "clinicq-notification-workers",
		Topics:               []string{"queue-notifications"},
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		MaxProcessingTime:    time.Minute,
		OffsetOldest:         false,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// KafkaNotificationConsumer runs the e-mail workers of one consumer group
type KafkaNotificationConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	sender        EmailSender
	log           *logger.Logger
	wg            sync.WaitGroup
}

func NewKafkaNotificationConsumer(config *ConsumerConfig, sender EmailSender) (*KafkaNotificationConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaNotificationConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		sender:        sender,
		log:           logger.GetDefault(),
	}, nil
}

// StartConsumers launches numWorkers consume loops; they exit when ctx is done
func (knc *KafkaNotificationConsumer) StartConsumers(ctx context.Context, numWorkers int) {
	go knc.handleErrors()

	for i := 0; i < numWorkers; i++ {
		knc.wg.Add(1)
		go func(workerID int) {
			defer knc.wg.Done()
			knc.runWorker(ctx, workerID)
		}(i)
	}

	knc.log.InfoWithContext(ctx, "Notification consumers started", map[string]interface{}{
		"workers": numWorkers,
		"topics":  knc.config.Topics,
	})
}

func (knc *KafkaNotificationConsumer) runWorker(ctx context.Context, workerID int) {
	workerLog := knc.log.WithFields(map[string]interface{}{
		"worker":   workerID,
		"group_id": knc.config.GroupID,
	})
	handler := &ConsumerGroupHandler{
		workerID:   workerID,
		sender:     knc.sender,
		maxRetries: knc.config.MaxRetries,
		backoff:    knc.config.RetryBackoffDuration,
		log:        workerLog,
	}

	for {
		if err := knc.consumerGroup.Consume(ctx, knc.config.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			knc.log.ErrorWithContext(ctx, "Notification consume failed", err, map[string]interface{}{"worker": workerID})
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (knc *KafkaNotificationConsumer) handleErrors() {
	for err := range knc.consumerGroup.Errors() {
		knc.log.WithError(err).Error("Notification consumer group error")
	}
}

// Stop closes the group and waits for the workers
func (knc *KafkaNotificationConsumer) Stop() error {
	err := knc.consumerGroup.Close()
	knc.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type ConsumerGroupHandler struct {
	workerID   int
	sender     EmailSender
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			err := h.processMessage(session.Context(), message)

			// Interrupted by a rebalance or shutdown: leave the offset so the
			// next owner of the partition picks the message up.
			if session.Context().Err() != nil {
				return nil
			}

			// A message that cannot be delivered after retries is logged and
			// committed; redelivering it would block the partition.
			if err != nil {
				h.log.ErrorWithContext(session.Context(), "Notification dropped", err, map[string]interface{}{
					"worker":    h.workerID,
					"partition": message.Partition,
					"offset":    message.Offset,
				})
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *ConsumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var notification EmailNotification
	if err := json.Unmarshal(message.Value, &notification); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.IsExpired() {
		h.log.DebugWithContext(ctx, "Notification expired", map[string]interface{}{
			"notification_id": notification.ID.String(),
			"type":            string(notification.Type),
		})
		return nil
	}

	notification.Status = NotificationStatusSending
	if err := h.executeWithRetry(ctx, &notification); err != nil {
		notification.MarkFailed(err)
		return err
	}

	notification.MarkSent()
	h.log.InfoWithContext(ctx, "Notification sent", map[string]interface{}{
		"notification_id": notification.ID.String(),
		"type":            string(notification.Type),
		"ticket_number":   notification.TicketNumber,
		"retries":         notification.RetryCount,
	})
	return nil
}

func (h *ConsumerGroupHandler) executeWithRetry(ctx context.Context, notification *EmailNotification) error {
	for attempt := 0; ; attempt++ {
		err := h.sender.Send(ctx, notification)
		if err == nil {
			return nil
		}
		if attempt >= h.maxRetries {
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		notification.MarkRetrying()
		delay := h.backoff * time.Duration(1<<attempt)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

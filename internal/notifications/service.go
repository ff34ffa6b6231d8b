package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicq/internal/shared/config"
	"clinicq/pkg/logger"
)

// calledNotificationTTL bounds how late a "your turn" e-mail may still go out
const calledNotificationTTL = 15 * time.Minute

// Service owns the Kafka producer and the e-mail consumer group
type Service struct {
	producer   NotificationProducer
	consumer   *KafkaNotificationConsumer
	numWorkers int
	clinicName string
	log        *logger.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewService wires the notification pipeline from cfg
func NewService(cfg *config.Config) (*Service, error) {
	sender, err := NewSMTPEmailService(&SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		StartTLS:  cfg.Email.SMTPPort == 587,
	})
	if err != nil {
		return nil, err
	}

	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = cfg.Kafka.Brokers
	producerConfig.NotificationTopic = cfg.Kafka.NotificationTopic

	producer, err := NewKafkaNotificationProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = cfg.Kafka.Brokers
	consumerConfig.Topics = []string{cfg.Kafka.NotificationTopic}
	consumerConfig.GroupID = cfg.Kafka.ConsumerGroupID

	consumer, err := NewKafkaNotificationConsumer(consumerConfig, sender)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}

	return &Service{
		producer:   producer,
		consumer:   consumer,
		numWorkers: cfg.Kafka.NumConsumerWorkers,
		clinicName: cfg.Email.FromName,
		log:        logger.GetDefault(),
	}, nil
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("notification service is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.consumer.StartConsumers(runCtx, s.numWorkers)
	s.isRunning = true
	s.log.Info("Notification service started")
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.cancel()

	var errs []error
	if err := s.consumer.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := s.producer.Close(); err != nil {
		errs = append(errs, err)
	}
	s.isRunning = false
	s.log.Info("Notification service stopped")

	if len(errs) > 0 {
		return fmt.Errorf("errors stopping notification service: %v", errs)
	}
	return nil
}

// Notifier returns the queue-facing adapter publishing through this service
func (s *Service) Notifier(contacts ContactLookup) *QueueNotifier {
	return NewQueueNotifier(s.producer, contacts, s.clinicName)
}

package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinicq/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	failures int
	sent     []*EmailNotification
	calls    int
}

func (s *recordingSender) Send(_ context.Context, n *EmailNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp: 421 service not available")
	}
	s.sent = append(s.sent, n)
	return nil
}

func newTestHandler(sender EmailSender) *ConsumerGroupHandler {
	return &ConsumerGroupHandler{
		sender:     sender,
		maxRetries: 2,
		backoff:    time.Millisecond,
		log:        logger.GetDefault(),
	}
}

func messageFor(t *testing.T, n *EmailNotification) *sarama.ConsumerMessage {
	t.Helper()
	value, err := n.ToJSON()
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "queue-notifications", Value: value}
}

func TestProcessMessage_Sends(t *testing.T) {
	sender := &recordingSender{}
	handler := newTestHandler(sender)

	n := NewNotificationBuilder().
		WithType(NotificationTypeTicketIssued).
		WithRecipient(uuid.New(), "jane@example.com", "Jane Doe").
		WithEntry(uuid.New(), 3).
		Build()

	require.NoError(t, handler.processMessage(context.Background(), messageFor(t, n)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(3), sender.sent[0].TicketNumber)
	assert.Equal(t, NotificationStatusSent, sender.sent[0].Status)
}

func TestProcessMessage_RetriesThenSucceeds(t *testing.T) {
	sender := &recordingSender{failures: 2}
	handler := newTestHandler(sender)

	n := NewNotificationBuilder().WithType(NotificationTypePatientCalled).Build()

	require.NoError(t, handler.processMessage(context.Background(), messageFor(t, n)))
	assert.Equal(t, 3, sender.calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 2, sender.sent[0].RetryCount)
}

func TestProcessMessage_GivesUp(t *testing.T) {
	sender := &recordingSender{failures: 10}
	handler := newTestHandler(sender)

	n := NewNotificationBuilder().WithType(NotificationTypePatientCalled).Build()

	err := handler.processMessage(context.Background(), messageFor(t, n))
	require.Error(t, err)
	assert.Equal(t, 3, sender.calls)
}

func TestProcessMessage_SkipsExpired(t *testing.T) {
	sender := &recordingSender{}
	handler := newTestHandler(sender)

	n := NewNotificationBuilder().
		WithType(NotificationTypePatientCalled).
		WithExpiration(-time.Minute).
		Build()

	require.NoError(t, handler.processMessage(context.Background(), messageFor(t, n)))
	assert.Zero(t, sender.calls)
}

func TestProcessMessage_RejectsGarbage(t *testing.T) {
	handler := newTestHandler(&recordingSender{})
	err := handler.processMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")})
	assert.Error(t, err)
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	mu     sync.Mutex
	marked []*sarama.ConsumerMessage
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg)
}

func (s *fakeSession) markedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.marked)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type signallingSender struct {
	attempted chan struct{}
	once      sync.Once
}

func (s *signallingSender) Send(context.Context, *EmailNotification) error {
	s.once.Do(func() { close(s.attempted) })
	return errors.New("smtp: 421 service not available")
}

func TestConsumeClaim_MarksHandledMessages(t *testing.T) {
	sender := &recordingSender{}
	handler := newTestHandler(sender)
	session := &fakeSession{ctx: context.Background()}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 2)}

	claim.messages <- messageFor(t, NewNotificationBuilder().WithType(NotificationTypeTicketIssued).Build())
	claim.messages <- &sarama.ConsumerMessage{Value: []byte("not json")}
	close(claim.messages)

	require.NoError(t, handler.ConsumeClaim(session, claim))
	assert.Equal(t, 2, session.markedCount())
	assert.Len(t, sender.sent, 1)
}

func TestConsumeClaim_LeavesMessageWhenSessionEndsMidRetry(t *testing.T) {
	sender := &signallingSender{attempted: make(chan struct{})}
	handler := &ConsumerGroupHandler{
		sender:     sender,
		maxRetries: 5,
		backoff:    time.Hour,
		log:        logger.GetDefault(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{ctx: ctx}
	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- messageFor(t, NewNotificationBuilder().WithType(NotificationTypePatientCalled).Build())

	done := make(chan error, 1)
	go func() { done <- handler.ConsumeClaim(session, claim) }()

	select {
	case <-sender.attempted:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never attempted")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ConsumeClaim did not return after the session ended")
	}
	assert.Zero(t, session.markedCount())
}

package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusWaiting, StatusInProgress, true},
		{StatusWaiting, StatusCancelled, true},
		{StatusWaiting, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, false},
		{StatusInProgress, StatusWaiting, false},
		{StatusCompleted, StatusWaiting, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusWaiting, false},
		{StatusCancelled, StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusWaiting.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, Status("PAUSED").IsValid())
}

func TestApply(t *testing.T) {
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	server := uuid.New()

	entry := &QueueEntry{ID: uuid.New(), TicketNumber: 4, Status: StatusWaiting}

	require.NoError(t, Apply(entry, StartService(server, at)))
	assert.Equal(t, StatusInProgress, entry.Status)
	require.NotNil(t, entry.AssignedServerID)
	assert.Equal(t, server, *entry.AssignedServerID)
	assert.Nil(t, entry.CompletedAt)

	require.NoError(t, Apply(entry, Complete(at.Add(10*time.Minute))))
	assert.Equal(t, StatusCompleted, entry.Status)
	require.NotNil(t, entry.CompletedAt)
	assert.Equal(t, at.Add(10*time.Minute), *entry.CompletedAt)

	err := Apply(entry, Cancel(at))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, entry.Status)
	assert.Nil(t, entry.CancelledAt)
}

func TestApply_StartServiceNeedsServer(t *testing.T) {
	entry := &QueueEntry{Status: StatusWaiting}

	err := Apply(entry, StartService(uuid.Nil, time.Now()))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StatusWaiting, entry.Status)
}

func TestApply_Cancel(t *testing.T) {
	at := time.Now().UTC()
	entry := &QueueEntry{Status: StatusWaiting}

	require.NoError(t, Apply(entry, Cancel(at)))
	assert.Equal(t, StatusCancelled, entry.Status)
	require.NotNil(t, entry.CancelledAt)
	assert.Nil(t, entry.CompletedAt)
	assert.Nil(t, entry.AssignedServerID)
}

package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertWaiting(t *testing.T, store *MemoryStore, ticket int64) QueueEntry {
	t.Helper()
	entry := QueueEntry{
		ID:           uuid.New(),
		PatientID:    uuid.New(),
		TicketNumber: ticket,
		Status:       StatusWaiting,
		CreatedAt:    time.Now().UTC(),
	}
	err := store.Atomically(context.Background(), func(tx Tx) error {
		return tx.Insert(context.Background(), &entry)
	})
	require.NoError(t, err)
	return entry
}

func TestMemoryStore_TicketSequencer(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var first int64
	require.NoError(t, store.Atomically(ctx, func(tx Tx) error {
		var err error
		first, err = TicketSequencer{}.Next(ctx, tx)
		return err
	}))
	assert.Equal(t, int64(1), first)

	insertWaiting(t, store, 1)
	insertWaiting(t, store, 2)

	var next int64
	require.NoError(t, store.Atomically(ctx, func(tx Tx) error {
		var err error
		next, err = TicketSequencer{}.Next(ctx, tx)
		return err
	}))
	assert.Equal(t, int64(3), next)
}

func TestMemoryStore_InsertValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	insertWaiting(t, store, 5)

	server := uuid.New()
	tests := []struct {
		name  string
		entry QueueEntry
	}{
		{name: "missing patient", entry: QueueEntry{TicketNumber: 6, Status: StatusWaiting}},
		{name: "ticket not increasing", entry: QueueEntry{PatientID: uuid.New(), TicketNumber: 5, Status: StatusWaiting}},
		{name: "not waiting", entry: QueueEntry{PatientID: uuid.New(), TicketNumber: 6, Status: StatusInProgress}},
		{name: "server already set", entry: QueueEntry{PatientID: uuid.New(), TicketNumber: 6, Status: StatusWaiting, AssignedServerID: &server}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.entry
			err := store.Atomically(ctx, func(tx Tx) error {
				return tx.Insert(ctx, &entry)
			})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_RollbackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	existing := insertWaiting(t, store, 1)

	boom := errors.New("boom")
	err := store.Atomically(ctx, func(tx Tx) error {
		entry := &QueueEntry{PatientID: uuid.New(), TicketNumber: 2, Status: StatusWaiting}
		if err := tx.Insert(ctx, entry); err != nil {
			return err
		}
		if _, err := tx.Update(ctx, existing.ID, Cancel(time.Now())); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1, store.Len())
	require.NoError(t, store.View(ctx, func(r Reader) error {
		entry, err := r.FindByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusWaiting, entry.Status)
		return nil
	}))
}

func TestMemoryStore_TxSeesItsOwnWrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	insertWaiting(t, store, 1)

	require.NoError(t, store.Atomically(ctx, func(tx Tx) error {
		entry := &QueueEntry{PatientID: uuid.New(), TicketNumber: 2, Status: StatusWaiting}
		require.NoError(t, tx.Insert(ctx, entry))

		max, err := tx.MaxTicketNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), max)

		count, err := tx.CountWaiting(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		return nil
	}))
}

func TestMemoryStore_SingleInProgress(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	first := insertWaiting(t, store, 1)
	second := insertWaiting(t, store, 2)

	require.NoError(t, store.Atomically(ctx, func(tx Tx) error {
		_, err := tx.Update(ctx, first.ID, StartService(uuid.New(), time.Now()))
		return err
	}))

	err := store.Atomically(ctx, func(tx Tx) error {
		_, err := tx.Update(ctx, second.ID, StartService(uuid.New(), time.Now()))
		return err
	})
	assert.ErrorIs(t, err, ErrAlreadyServing)
}

func TestMemoryStore_ListOrderAndFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Map iteration is unordered; reads still come back by ticket
	for ticket := int64(1); ticket <= 5; ticket++ {
		insertWaiting(t, store, ticket)
	}

	var cancelled QueueEntry
	require.NoError(t, store.View(ctx, func(r Reader) error {
		waiting, err := r.ListWaiting(ctx)
		require.NoError(t, err)
		cancelled = waiting[2]
		return nil
	}))
	require.NoError(t, store.Atomically(ctx, func(tx Tx) error {
		_, err := tx.Update(ctx, cancelled.ID, Cancel(time.Now()))
		return err
	}))

	require.NoError(t, store.View(ctx, func(r Reader) error {
		all, err := r.List(ctx, ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i, entry := range all {
			assert.Equal(t, int64(i+1), entry.TicketNumber)
		}

		waiting, err := r.List(ctx, ListFilter{Status: StatusWaiting, Limit: 2})
		require.NoError(t, err)
		require.Len(t, waiting, 2)
		assert.Equal(t, int64(1), waiting[0].TicketNumber)
		assert.Equal(t, int64(2), waiting[1].TicketNumber)

		oldest, err := r.FindOldestWaiting(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), oldest.TicketNumber)

		count, err := r.CountWaiting(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)

		current, err := r.FindCurrentInProgress(ctx)
		require.NoError(t, err)
		assert.Nil(t, current)
		return nil
	}))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Atomically(ctx, func(tx Tx) error { return nil })
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = store.View(ctx, func(r Reader) error { return nil })
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, normalizeLimit(0))
	assert.Equal(t, 10, normalizeLimit(10))
	assert.Equal(t, MaxListLimit, normalizeLimit(MaxListLimit+1))
}

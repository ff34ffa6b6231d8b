package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps the queue in process memory behind a single mutex.
// It backs QUEUE_STORE=memory deployments and the service tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]QueueEntry
}

// NewMemoryStore creates an empty in-memory queue store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[uuid.UUID]QueueEntry),
	}
}

// View runs fn against a copy of the committed entries
func (s *MemoryStore) View(ctx context.Context, fn func(r Reader) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.mu.RLock()
	rows := s.rowsLocked()
	s.mu.RUnlock()

	return fn(memReader{rows: func() []QueueEntry { return rows }})
}

// Atomically runs fn with the store locked and applies its writes only if fn succeeds
func (s *MemoryStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	tx := &memTx{store: s, dirty: make(map[uuid.UUID]QueueEntry)}
	tx.memReader = memReader{rows: tx.rows}

	if err := fn(tx); err != nil {
		return err
	}

	for id, entry := range tx.dirty {
		s.entries[id] = entry
	}
	return nil
}

// Len returns the number of entries ever stored
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) rowsLocked() []QueueEntry {
	rows := make([]QueueEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		rows = append(rows, entry)
	}
	sortByTicket(rows)
	return rows
}

type memTx struct {
	memReader
	store *MemoryStore
	dirty map[uuid.UUID]QueueEntry
}

// rows merges staged writes over the committed entries
func (t *memTx) rows() []QueueEntry {
	rows := make([]QueueEntry, 0, len(t.store.entries)+len(t.dirty))
	for id, entry := range t.store.entries {
		if staged, ok := t.dirty[id]; ok {
			rows = append(rows, staged)
			continue
		}
		rows = append(rows, entry)
	}
	for id, entry := range t.dirty {
		if _, ok := t.store.entries[id]; !ok {
			rows = append(rows, entry)
		}
	}
	sortByTicket(rows)
	return rows
}

func (t *memTx) MaxTicketNumber(_ context.Context) (int64, error) {
	var max int64
	for _, entry := range t.rows() {
		if entry.TicketNumber > max {
			max = entry.TicketNumber
		}
	}
	return max, nil
}

func (t *memTx) Insert(ctx context.Context, entry *QueueEntry) error {
	max, err := t.MaxTicketNumber(ctx)
	if err != nil {
		return err
	}
	if err := validateInsert(entry, max); err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}
	t.dirty[entry.ID] = *entry
	return nil
}

func (t *memTx) Update(ctx context.Context, id uuid.UUID, tr Transition) (*QueueEntry, error) {
	current, err := t.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tr.To == StatusInProgress {
		serving, err := t.FindCurrentInProgress(ctx)
		if err != nil {
			return nil, err
		}
		if serving != nil && serving.ID != id {
			return nil, fmt.Errorf("%w: ticket %d", ErrAlreadyServing, serving.TicketNumber)
		}
	}

	updated := *current
	if err := Apply(&updated, tr); err != nil {
		return nil, err
	}
	t.dirty[id] = updated
	return &updated, nil
}

// memReader answers Reader queries from a ticket-ordered row set
type memReader struct {
	rows func() []QueueEntry
}

func (r memReader) FindByID(_ context.Context, id uuid.UUID) (*QueueEntry, error) {
	for _, entry := range r.rows() {
		if entry.ID == id {
			found := entry
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (r memReader) FindOldestWaiting(_ context.Context) (*QueueEntry, error) {
	for _, entry := range r.rows() {
		if entry.Status == StatusWaiting {
			found := entry
			return &found, nil
		}
	}
	return nil, nil
}

func (r memReader) FindCurrentInProgress(_ context.Context) (*QueueEntry, error) {
	for _, entry := range r.rows() {
		if entry.Status == StatusInProgress {
			found := entry
			return &found, nil
		}
	}
	return nil, nil
}

func (r memReader) CountWaiting(_ context.Context) (int64, error) {
	var count int64
	for _, entry := range r.rows() {
		if entry.Status == StatusWaiting {
			count++
		}
	}
	return count, nil
}

func (r memReader) ListWaiting(ctx context.Context) ([]QueueEntry, error) {
	return r.List(ctx, ListFilter{Status: StatusWaiting, Limit: MaxListLimit})
}

func (r memReader) List(_ context.Context, filter ListFilter) ([]QueueEntry, error) {
	limit := normalizeLimit(filter.Limit)
	result := make([]QueueEntry, 0)
	for _, entry := range r.rows() {
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		result = append(result, entry)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func sortByTicket(rows []QueueEntry) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].TicketNumber < rows[j].TicketNumber
	})
}

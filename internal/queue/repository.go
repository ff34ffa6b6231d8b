package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// queueLockKey is the pg_advisory_xact_lock key serializing every queue mutation
const queueLockKey int64 = 0x636c696e6971 // "clinq"

// GormStore keeps the queue in PostgreSQL
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Postgres-backed queue store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// View runs fn inside a read-only repeatable-read transaction
func (s *GormStore) View(ctx context.Context, fn func(r Reader) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormReader{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	return storageError(err)
}

// Atomically runs fn inside a transaction holding the queue-wide advisory lock.
// The lock is released on commit or rollback.
func (s *GormStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", queueLockKey).Error; err != nil {
			return storageError(err)
		}
		return fn(&gormTx{gormReader: gormReader{db: tx, forUpdate: true}})
	})
	return storageError(err)
}

// Ping checks that the database is reachable
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageError(err)
	}
	return storageError(sqlDB.PingContext(ctx))
}

type gormReader struct {
	db        *gorm.DB
	forUpdate bool
}

func (r gormReader) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&QueueEntry{})
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r gormReader) FindByID(ctx context.Context, id uuid.UUID) (*QueueEntry, error) {
	var entry QueueEntry
	err := r.query(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, storageError(err)
	}
	return &entry, nil
}

func (r gormReader) FindOldestWaiting(ctx context.Context) (*QueueEntry, error) {
	return r.findFirstByStatus(ctx, StatusWaiting)
}

func (r gormReader) FindCurrentInProgress(ctx context.Context) (*QueueEntry, error) {
	return r.findFirstByStatus(ctx, StatusInProgress)
}

func (r gormReader) findFirstByStatus(ctx context.Context, status Status) (*QueueEntry, error) {
	var entries []QueueEntry
	err := r.query(ctx).
		Where("status = ?", status).
		Order("ticket_number ASC").
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return nil, storageError(err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r gormReader) CountWaiting(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&QueueEntry{}).
		Where("status = ?", StatusWaiting).
		Count(&count).Error
	if err != nil {
		return 0, storageError(err)
	}
	return count, nil
}

func (r gormReader) ListWaiting(ctx context.Context) ([]QueueEntry, error) {
	return r.List(ctx, ListFilter{Status: StatusWaiting, Limit: MaxListLimit})
}

func (r gormReader) List(ctx context.Context, filter ListFilter) ([]QueueEntry, error) {
	q := r.db.WithContext(ctx).Model(&QueueEntry{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	entries := make([]QueueEntry, 0)
	err := q.Order("ticket_number ASC").Limit(normalizeLimit(filter.Limit)).Find(&entries).Error
	if err != nil {
		return nil, storageError(err)
	}
	return entries, nil
}

type gormTx struct {
	gormReader
}

func (t *gormTx) MaxTicketNumber(ctx context.Context) (int64, error) {
	var max int64
	err := t.db.WithContext(ctx).Model(&QueueEntry{}).
		Select("COALESCE(MAX(ticket_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, storageError(err)
	}
	return max, nil
}

func (t *gormTx) Insert(ctx context.Context, entry *QueueEntry) error {
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
	if err := t.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: ticket %d already issued", ErrValidation, entry.TicketNumber)
		}
		return storageError(err)
	}
	return nil
}

// Update locks the row, applies tr and writes it back guarded by the status it was read with
func (t *gormTx) Update(ctx context.Context, id uuid.UUID, tr Transition) (*QueueEntry, error) {
	entry, err := t.FindByID(ctx, id)
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

	previous := entry.Status
	if err := Apply(entry, tr); err != nil {
		return nil, err
	}

	result := t.db.WithContext(ctx).Model(&QueueEntry{}).
		Where("id = ? AND status = ?", id, previous).
		Updates(map[string]interface{}{
			"status":             entry.Status,
			"assigned_server_id": entry.AssignedServerID,
			"completed_at":       entry.CompletedAt,
			"cancelled_at":       entry.CancelledAt,
			"updated_at":         entry.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyServing
		}
		return nil, storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: ticket %d changed concurrently", ErrInvalidTransition, entry.TicketNumber)
	}
	return entry, nil
}

// storageError passes queue errors through and wraps everything else as ErrStorageUnavailable
func storageError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

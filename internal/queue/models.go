package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a queue entry
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid checks if the queue status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	validTransitions := map[Status][]Status{
		StatusWaiting:    {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted},
		StatusCompleted:  {}, // Terminal state
		StatusCancelled:  {}, // Terminal state
	}

	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// QueueEntry is one patient visit in the front-desk queue
type QueueEntry struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	PatientID        uuid.UUID  `json:"patient_id" gorm:"type:uuid;not null;index"`
	TicketNumber     int64      `json:"ticket_number" gorm:"not null;uniqueIndex:idx_queue_entries_ticket_number"`
	Status           Status     `json:"status" gorm:"type:varchar(20);not null;index"`
	AssignedServerID *uuid.UUID `json:"assigned_server_id,omitempty" gorm:"type:uuid"`
	CreatedAt        time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

// TableName overrides the table name used by gorm
func (QueueEntry) TableName() string {
	return "queue_entries"
}

// IsWaiting returns true if the entry has not been called yet
func (e *QueueEntry) IsWaiting() bool {
	return e.Status == StatusWaiting
}

// IsInProgress returns true if the patient is currently being served
func (e *QueueEntry) IsInProgress() bool {
	return e.Status == StatusInProgress
}

// ListFilter narrows List queries. The zero value lists every entry.
type ListFilter struct {
	Status Status
	Limit  int
}

const (
	// DefaultListLimit caps staff list queries when no limit is given
	DefaultListLimit = 200

	// MaxListLimit is the largest page a staff list query may request
	MaxListLimit = 1000
)

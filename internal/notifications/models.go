package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeTicketIssued  NotificationType = "TICKET_ISSUED"
	NotificationTypePatientCalled NotificationType = "PATIENT_CALLED"
)

type NotificationStatus string

const (
	NotificationStatusPending  NotificationStatus = "PENDING"
	NotificationStatusQueued   NotificationStatus = "QUEUED"
	NotificationStatusSending  NotificationStatus = "SENDING"
	NotificationStatusSent     NotificationStatus = "SENT"
	NotificationStatusFailed   NotificationStatus = "FAILED"
	NotificationStatusRetrying NotificationStatus = "RETRYING"
)

// EmailNotification is the message carried on the notification topic
type EmailNotification struct {
	ID   uuid.UUID        `json:"id"`
	Type NotificationType `json:"type"`

	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`

	Subject      string                 `json:"subject"`
	TemplateData map[string]interface{} `json:"template_data"`

	EntryID      uuid.UUID `json:"entry_id"`
	TicketNumber int64     `json:"ticket_number"`

	// Calls are time sensitive; a stale one is dropped by the consumer
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Status     NotificationStatus `json:"status"`
	RetryCount int                `json:"retry_count"`
	MaxRetries int                `json:"max_retries"`
	LastError  *string            `json:"last_error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	SentAt     *time.Time         `json:"sent_at,omitempty"`
}

type NotificationBuilder struct {
	notification *EmailNotification
}

func NewNotificationBuilder() *NotificationBuilder {
	now := time.Now().UTC()
	return &NotificationBuilder{
		notification: &EmailNotification{
			ID:           uuid.New(),
			Status:       NotificationStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
			MaxRetries:   3,
			TemplateData: make(map[string]interface{}),
		},
	}
}

func (nb *NotificationBuilder) WithType(notType NotificationType) *NotificationBuilder {
	nb.notification.Type = notType
	nb.notification.Subject = defaultSubject(notType)
	return nb
}

func (nb *NotificationBuilder) WithRecipient(patientID uuid.UUID, email, name string) *NotificationBuilder {
	nb.notification.RecipientID = patientID
	nb.notification.RecipientEmail = email
	nb.notification.RecipientName = name
	return nb
}

func (nb *NotificationBuilder) WithEntry(entryID uuid.UUID, ticketNumber int64) *NotificationBuilder {
	nb.notification.EntryID = entryID
	nb.notification.TicketNumber = ticketNumber
	nb.notification.TemplateData["ticket_number"] = ticketNumber
	return nb
}

func (nb *NotificationBuilder) WithTemplateData(key string, value interface{}) *NotificationBuilder {
	nb.notification.TemplateData[key] = value
	return nb
}

func (nb *NotificationBuilder) WithExpiration(ttl time.Duration) *NotificationBuilder {
	expiresAt := nb.notification.CreatedAt.Add(ttl)
	nb.notification.ExpiresAt = &expiresAt
	return nb
}

func (nb *NotificationBuilder) Build() *EmailNotification {
	return nb.notification
}

func defaultSubject(notType NotificationType) string {
	switch notType {
	case NotificationTypeTicketIssued:
		return "Your queue ticket"
	case NotificationTypePatientCalled:
		return "It's your turn"
	default:
		return "Clinic queue update"
	}
}

// GetPartitionKey keeps one patient's notifications ordered
func (en *EmailNotification) GetPartitionKey() string {
	return en.RecipientID.String()
}

func (en *EmailNotification) ToJSON() ([]byte, error) {
	return json.Marshal(en)
}

func (en *EmailNotification) IsExpired() bool {
	return en.ExpiresAt != nil && time.Now().After(*en.ExpiresAt)
}

func (en *EmailNotification) MarkSent() {
	now := time.Now().UTC()
	en.Status = NotificationStatusSent
	en.SentAt = &now
	en.UpdatedAt = now
}

func (en *EmailNotification) MarkFailed(err error) {
	en.Status = NotificationStatusFailed
	en.UpdatedAt = time.Now().UTC()

	errorStr := err.Error()
	en.LastError = &errorStr
}

func (en *EmailNotification) MarkRetrying() {
	en.RetryCount++
	en.Status = NotificationStatusRetrying
	en.UpdatedAt = time.Now().UTC()
}

// Package broadcast fans queue change notifications out to connected
// dashboards and display screens. Delivery is best effort: subscribers treat
// every event as a hint to re-fetch the queue status.
package broadcast

import (
	"context"
	"encoding/json"
	"time"
)

// Event names pushed to subscribers
const (
	EventNewPatient           = "new-patient"
	EventPatientCalled        = "patient-called"
	EventAppointmentCompleted = "appointment-completed"
	EventEntryCancelled       = "entry-cancelled"
	EventQueueUpdate          = "queue-update"
)

// Event is an advisory change notification. It never carries authoritative state.
type Event struct {
	Name               string          `json:"event"`
	EntryID            string          `json:"entryId,omitempty"`
	TicketNumber       int64           `json:"ticketNumber,omitempty"`
	PatientDisplayName string          `json:"patientDisplayName,omitempty"`
	Timestamp          time.Time       `json:"timestamp"`
	Data               json.RawMessage `json:"data,omitempty"`
}

// Publisher delivers events to every connected subscriber
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Frame is one encoded event queued for a single client
type Frame struct {
	Name string
	Data []byte
}

func encode(event Event) (Frame, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Name: event.Name, Data: data}, nil
}

package patients

import "clinicq/internal/queue"

// RegistrationResponse is returned when the front desk registers a walk-in
type RegistrationResponse struct {
	Patient *Patient          `json:"patient"`
	Entry   *queue.QueueEntry `json:"entry"`
}

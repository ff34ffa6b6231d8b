package queue

// TicketView is the public projection of one entry on the display screen
type TicketView struct {
	TicketNumber       int64  `json:"ticketNumber"`
	PatientDisplayName string `json:"patientDisplayName"`
}

// StatusSnapshot is the public queue status. It is derived on every request.
type StatusSnapshot struct {
	Current      *TicketView `json:"current"`
	Next         *TicketView `json:"next"`
	WaitingCount int64       `json:"waitingCount"`
}

// EntryListResponse wraps staff list queries
type EntryListResponse struct {
	Entries []QueueEntry `json:"entries"`
	Total   int          `json:"total"`
}

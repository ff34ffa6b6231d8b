package analytics

import "time"

// DailyQueueStats summarises one day of tickets
type DailyQueueStats struct {
	Date      time.Time `json:"date"`
	Issued    int64     `json:"issued"`
	Completed int64     `json:"completed"`
	Cancelled int64     `json:"cancelled"`

	// Mean minutes from ticket issue to completion, completed entries only
	AvgTurnaroundMinutes *float64 `json:"avg_turnaround_minutes"`
}

// QueueOverview is the staff dashboard summary
type QueueOverview struct {
	Today       DailyQueueStats   `json:"today"`
	Waiting     int64             `json:"waiting"`
	InProgress  int64             `json:"in_progress"`
	Daily       []DailyQueueStats `json:"daily"`
	GeneratedAt time.Time         `json:"generated_at"`
}

const (
	DefaultDays = 7
	MaxDays     = 90
)

package analytics

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Days are bucketed in UTC whatever the session time zone
const dailyQueueStatsQuery = `
	SELECT
		DATE(created_at AT TIME ZONE 'UTC') AS date,
		COUNT(*) AS issued,
		SUM(CASE WHEN status = 'COMPLETED' THEN 1 ELSE 0 END) AS completed,
		SUM(CASE WHEN status = 'CANCELLED' THEN 1 ELSE 0 END) AS cancelled,
		AVG(EXTRACT(EPOCH FROM (completed_at - created_at)) / 60)
			FILTER (WHERE status = 'COMPLETED') AS avg_turnaround_minutes
	FROM queue_entries
	WHERE created_at >= ?
	GROUP BY DATE(created_at AT TIME ZONE 'UTC')
	ORDER BY date DESC
`

type Repository interface {
	GetDailyQueueStats(ctx context.Context, since time.Time) ([]DailyQueueStats, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetDailyQueueStats(ctx context.Context, since time.Time) ([]DailyQueueStats, error) {
	stats := make([]DailyQueueStats, 0)

	err := r.db.WithContext(ctx).Raw(dailyQueueStatsQuery, since).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily queue stats: %w", err)
	}

	return stats, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	err := r.db.WithContext(ctx).
		Table("queue_entries").
		Select("status, COUNT(*) AS count").
		Where("status IN ?", []string{"WAITING", "IN_PROGRESS"}).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count queue entries: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

package analytics

import (
	"context"
	"time"

	"clinicq/internal/queue"
	"clinicq/internal/shared/constants"
	"clinicq/pkg/cache"
)

type Service interface {
	GetQueueOverview(ctx context.Context, days int) (*QueueOverview, error)
}

type service struct {
	repo         Repository
	cacheService cache.Service
	now          func() time.Time
}

// NewService creates the analytics service; cacheService may be nil
func NewService(repo Repository, cacheService cache.Service) Service {
	return &service{
		repo:         repo,
		cacheService: cacheService,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) GetQueueOverview(ctx context.Context, days int) (*QueueOverview, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		days = MaxDays
	}

	if s.cacheService == nil {
		return s.buildOverview(ctx, days)
	}

	var overview QueueOverview
	err := s.cacheService.GetOrSet(ctx, constants.BuildQueueAnalyticsKey(days), constants.TTL_ANALYTICS_QUEUE,
		func() (interface{}, error) {
			return s.buildOverview(ctx, days)
		}, &overview)
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

func (s *service) buildOverview(ctx context.Context, days int) (*QueueOverview, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(days - 1))

	daily, err := s.repo.GetDailyQueueStats(ctx, since)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	overview := &QueueOverview{
		Today:       DailyQueueStats{Date: today},
		Waiting:     counts[string(queue.StatusWaiting)],
		InProgress:  counts[string(queue.StatusInProgress)],
		Daily:       daily,
		GeneratedAt: now,
	}
	for _, day := range daily {
		if sameDay(day.Date, today) {
			overview.Today = day
			break
		}
	}
	return overview, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

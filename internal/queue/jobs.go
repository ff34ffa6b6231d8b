package queue

import (
	"context"
	"time"

	"clinicq/internal/broadcast"
	"clinicq/pkg/logger"
)

// JobProcessor handles background jobs for the queue
type JobProcessor struct {
	service   Service
	publisher broadcast.Publisher
	config    *JobConfig
	log       *logger.Logger
	done      chan struct{}
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	HeartbeatInterval time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		HeartbeatInterval: 15 * time.Second, // Resync dashboards that missed an event
	}
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, publisher broadcast.Publisher, config *JobConfig) *JobProcessor {
	if config == nil || config.HeartbeatInterval <= 0 {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		service:   service,
		publisher: publisher,
		config:    config,
		log:       logger.GetDefault(),
		done:      make(chan struct{}),
	}
}

// Start starts all background jobs
func (jp *JobProcessor) Start(ctx context.Context) {
	go jp.startHeartbeat(ctx)
	jp.log.Info("Queue background jobs started", "heartbeat_interval", jp.config.HeartbeatInterval.String())
}

// Stop stops all background jobs
func (jp *JobProcessor) Stop() {
	close(jp.done)
	jp.log.Info("Queue background jobs stopped")
}

// startHeartbeat broadcasts the full snapshot on every tick
func (jp *JobProcessor) startHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(jp.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.heartbeat(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) heartbeat(ctx context.Context) {
	if err := PublishSnapshot(ctx, jp.service, jp.publisher, time.Now().UTC()); err != nil {
		jp.log.LogBroadcastDropped(ctx, broadcast.EventQueueUpdate, "heartbeat", err)
	}
}

// GetJobStatus returns the status of background jobs
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	return map[string]interface{}{
		"heartbeat_interval": jp.config.HeartbeatInterval.String(),
		"status":             "running",
	}
}

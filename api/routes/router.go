package routes

import (
	"context"
	"net/http"
	"time"

	"clinicq/internal/analytics"
	"clinicq/internal/auth"
	"clinicq/internal/broadcast"
	"clinicq/internal/notifications"
	"clinicq/internal/patients"
	"clinicq/internal/queue"
	"clinicq/internal/shared/config"
	"clinicq/internal/shared/database"
	"clinicq/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	hub    *broadcast.Hub

	cacheService     cache.Service
	patientDirectory *patients.Directory
	patientRepo      patients.Repository
	queueService     queue.Service
	jobs             *queue.JobProcessor
}

// NewRouter builds the services shared by the route groups.
// publisher fans queue events out; notificationService may be nil.
func NewRouter(cfg *config.Config, db *database.DB, hub *broadcast.Hub, publisher broadcast.Publisher, notificationService *notifications.Service) *Router {
	r := &Router{
		config: cfg,
		db:     db,
		hub:    hub,
	}

	if db.Redis != nil {
		r.cacheService = cache.NewService(db.Redis)
	}
	r.patientRepo = patients.NewRepository(db.PostgreSQL)
	r.patientDirectory = patients.NewDirectory(r.patientRepo, r.cacheService, cfg.Redis.PatientCacheTTL)

	var store queue.Store
	if cfg.UsesMemoryStore() {
		store = queue.NewMemoryStore()
	} else {
		store = queue.NewGormStore(db.PostgreSQL)
	}

	// A nil *QueueNotifier must not become a non-nil interface
	var notifier queue.Notifier
	if notificationService != nil {
		notifier = notificationService.Notifier(r.patientDirectory)
	}

	r.queueService = queue.NewService(store, r.patientDirectory, publisher, notifier)
	r.jobs = queue.NewJobProcessor(r.queueService, publisher, &queue.JobConfig{
		HeartbeatInterval: cfg.Queue.HeartbeatInterval,
	})

	return r
}

// StartJobs runs the queue heartbeat until ctx is done or StopJobs is called
func (r *Router) StartJobs(ctx context.Context) {
	r.jobs.Start(ctx)
}

func (r *Router) StopJobs() {
	r.jobs.Stop()
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupQueueRoutes(api)
		r.setupBroadcastRoutes(api)
		r.setupPatientRoutes(api)

		// In-memory queues never reach queue_entries
		if !r.config.UsesMemoryStore() {
			r.setupAnalyticsRoutes(api)
		}
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "clinicq",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "clinicq",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "operational",
			"api_version":  r.config.APIVersion,
			"queue_store":  r.config.Queue.Store,
			"live_clients": r.hub.ClientCount(),
			"jobs":         r.jobs.GetJobStatus(),
			"redis":        r.redisStatus(c.Request.Context()),
			"timestamp":    time.Now(),
		})
	})
}

func (r *Router) redisStatus(ctx context.Context) string {
	if r.cacheService == nil {
		return "disabled"
	}
	if err := r.cacheService.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.PostgreSQL)
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)

	auth.NewRouter(authController, r.config).SetupRoutes(rg)
}

func (r *Router) setupQueueRoutes(rg *gin.RouterGroup) {
	controller := queue.NewController(r.queueService, r.config.Queue.PollInterval)
	queue.SetupQueueRoutes(rg, controller, r.config)
}

func (r *Router) setupBroadcastRoutes(rg *gin.RouterGroup) {
	broadcast.SetupBroadcastRoutes(rg,
		broadcast.NewWebSocketHandler(r.hub),
		broadcast.NewSSEHandler(r.hub),
	)
}

func (r *Router) setupPatientRoutes(rg *gin.RouterGroup) {
	service := patients.NewService(r.patientRepo, r.queueService, r.patientDirectory)
	patients.SetupPatientRoutes(rg, patients.NewController(service), r.config)
}

func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	service := analytics.NewService(analytics.NewRepository(r.db.PostgreSQL), r.cacheService)
	analytics.SetupAnalyticsRoutes(rg, analytics.NewController(service), r.config)
}

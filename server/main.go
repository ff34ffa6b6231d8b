package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicq/api/routes"
	"clinicq/internal/broadcast"
	"clinicq/internal/notifications"
	"clinicq/internal/shared/config"
	"clinicq/internal/shared/database"
	"clinicq/internal/shared/utils/response"
	"clinicq/pkg/logger"
	"clinicq/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Rebuild once .env is loaded so LOG_LEVEL applies
	appLogger = logger.New().WithFields(map[string]interface{}{
		"service": "clinicq",
		"version": Version,
	})
	logger.SetDefault(appLogger)

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Live updates: local hub, optionally relayed across instances through Redis
	hub := broadcast.NewHub(cfg.Broadcast.ClientBufferSize)
	var publisher broadcast.Publisher = hub
	if cfg.Broadcast.RedisRelayEnabled && db.Redis != nil {
		relay := broadcast.NewRedisRelay(db.Redis, cfg.Broadcast.RedisChannel, hub)
		publisher = relay
		go func() {
			if err := relay.Run(rootCtx); err != nil {
				appLogger.Error("Broadcast relay stopped", slog.Any("error", err))
			}
		}()
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, &ratelimit.Config{
			Enabled:           cfg.RateLimit.Enabled,
			WindowDuration:    cfg.RateLimit.WindowDuration,
			DefaultRequests:   cfg.RateLimit.DefaultRequests,
			DisplayRequests:   cfg.RateLimit.DisplayRequests,
			AuthRequests:      cfg.RateLimit.AuthRequests,
			ReceptionRequests: cfg.RateLimit.ReceptionRequests,
			ClinicalRequests:  cfg.RateLimit.ClinicalRequests,
			HealthRequests:    cfg.RateLimit.HealthRequests,
			WhitelistedIPs:    cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	var notificationService *notifications.Service
	if cfg.NotificationsConfigured() {
		notificationService, err = notifications.NewService(cfg)
		if err != nil {
			appLogger.Error("Failed to initialize notification service", slog.Any("error", err))
			appLogger.Info("Continuing without patient notifications")
			notificationService = nil
		} else if err := notificationService.Start(rootCtx); err != nil {
			appLogger.Error("Failed to start notification service", slog.Any("error", err))
		} else {
			defer func() {
				if err := notificationService.Stop(); err != nil {
					appLogger.Error("Error stopping notification service", slog.Any("error", err))
				}
			}()
		}
	} else {
		appLogger.Info("Patient notifications disabled")
	}

	appRouter := routes.NewRouter(cfg, db, hub, publisher, notificationService)
	appRouter.StartJobs(rootCtx)
	defer appRouter.StopJobs()

	srv := newHTTPServer(rootCtx, cfg, setupEngine(cfg, appRouter, rateLimiter))

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("queue_status", fmt.Sprintf("http://localhost:%s%s/queue/status", cfg.Port, cfg.GetAPIBasePath())),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.String("queue_store", cfg.Queue.Store),
			slog.Bool("redis", db.Redis != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	// Ends relay, heartbeat and notification workers. Request contexts derive
	// from rootCtx, so open streams see ctx.Done too.
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

// newHTTPServer builds the API server. Request contexts derive from baseCtx.
func newHTTPServer(baseCtx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	// No WriteTimeout: it would cut off WebSocket and SSE streams
	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.ReadTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
		BaseContext:    func(net.Listener) context.Context { return baseCtx },
	}
}

func setupEngine(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-Poll-Interval", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter.SetupRoutes(engine)

	if cfg.IsDevelopment() {
		appLogger.Debug("Routes registered", slog.Int("count", len(engine.Routes())))
	}
	return engine
}

// RequestLoggerMiddleware tags each request with an id and logs it on completion
func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(response.RequestIDKey, requestID)

		c.Next()

		reqLogger := l.WithRequestID(requestID)
		if userID := c.GetString("user_id"); userID != "" {
			reqLogger = reqLogger.WithUserID(userID)
		}
		if len(c.Errors) > 0 {
			reqLogger.LogHTTPError(c, c.Errors.Last(), c.Writer.Status())
		}
		reqLogger.LogHTTPRequest(c, time.Since(start))
	}
}

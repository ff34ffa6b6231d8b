package queue

import (
	"clinicq/internal/shared/config"
	"clinicq/internal/shared/middleware"
	"clinicq/internal/users"

	"github.com/gin-gonic/gin"
)

// SetupQueueRoutes configures all queue-related routes
func SetupQueueRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	queue := rg.Group("/queue")
	{
		// Public display screen status, never cached
		queue.GET("/status", middleware.NoCache(), controller.GetStatus)

		staff := queue.Group("")
		staff.Use(middleware.JWTAuthWithConfig(cfg), middleware.NoCache())
		{
			staff.GET("/entries", middleware.RequireRoles(users.StaffRoles()...), controller.ListEntries)
			staff.GET("/entries/waiting", middleware.RequireRoles(users.StaffRoles()...), controller.ListWaiting)
			staff.GET("/entries/:id", middleware.RequireRoles(users.StaffRoles()...), controller.GetEntry)

			// Front desk
			staff.POST("/entries", middleware.RequireRoles(users.ReceptionRoles()...), controller.RegisterEntry)
			staff.POST("/entries/:id/cancel", middleware.RequireRoles(users.ReceptionRoles()...), controller.CancelEntry)

			// Consultation room
			staff.POST("/call-next", middleware.RequireRoles(users.ClinicalRoles()...), controller.CallNext)
			staff.POST("/entries/:id/complete", middleware.RequireRoles(users.ClinicalRoles()...), controller.CompleteEntry)
		}
	}
}

// Route definitions for reference:
//
// GET    /api/v1/queue/status                  - Public snapshot {current, next, waitingCount}
// POST   /api/v1/queue/entries                 - Issue a ticket { "patient_id": "..." }
// GET    /api/v1/queue/entries?status=WAITING  - List entries in ticket order
// GET    /api/v1/queue/entries/waiting         - Waiting list
// GET    /api/v1/queue/entries/:id             - Single entry
// POST   /api/v1/queue/call-next               - Oldest WAITING -> IN_PROGRESS
// POST   /api/v1/queue/entries/:id/complete    - IN_PROGRESS -> COMPLETED
// POST   /api/v1/queue/entries/:id/cancel      - WAITING -> CANCELLED

package analytics

import (
	"clinicq/internal/shared/config"
	"clinicq/internal/shared/middleware"
	"clinicq/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	analytics := rg.Group("/analytics")
	analytics.Use(middleware.JWTAuthWithConfig(cfg), middleware.NoCache())
	analytics.Use(middleware.RequireRoles(users.ClinicalRoles()...))

	analytics.GET("/queue", controller.GetQueueOverview)
}

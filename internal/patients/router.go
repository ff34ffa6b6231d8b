package patients

import (
	"clinicq/internal/shared/config"
	"clinicq/internal/shared/middleware"
	"clinicq/internal/users"

	"github.com/gin-gonic/gin"
)

// SetupPatientRoutes configures the front-desk patient registry routes
func SetupPatientRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	patients := rg.Group("/patients")
	patients.Use(middleware.JWTAuthWithConfig(cfg), middleware.NoCache())
	{
		patients.POST("", middleware.RequireRoles(users.ReceptionRoles()...), controller.RegisterPatient)
		patients.PATCH("/:id", middleware.RequireRoles(users.ReceptionRoles()...), controller.UpdatePatient)

		patients.GET("/search/:query", middleware.RequireRoles(users.StaffRoles()...), controller.SearchPatients)
		patients.GET("/:id", middleware.RequireRoles(users.StaffRoles()...), controller.GetPatient)
	}
}

package analytics

import (
	"net/http"
	"strconv"

	"clinicq/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetQueueOverview handles GET /api/v1/analytics/queue?days=7
func (ctrl *Controller) GetQueueOverview(c *gin.Context) {
	days := DefaultDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxDays {
			response.RespondJSON(c, "error", http.StatusBadRequest, "days must be between 1 and 90", nil, nil)
			return
		}
		days = parsed
	}

	overview, err := ctrl.service.GetQueueOverview(c.Request.Context(), days)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to load queue analytics", nil, nil)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Queue analytics retrieved successfully", overview, nil)
}

package queue

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"clinicq/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service      Service
	validator    *validator.Validate
	pollInterval time.Duration
}

func NewController(service Service, pollInterval time.Duration) *Controller {
	return &Controller{
		service:      service,
		validator:    validator.New(),
		pollInterval: pollInterval,
	}
}

// GetStatus handles GET /api/v1/queue/status
func (c *Controller) GetStatus(ctx *gin.Context) {
	snapshot, err := c.service.Status(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "Failed to fetch queue status")
		return
	}

	if c.pollInterval > 0 {
		ctx.Header("X-Poll-Interval", strconv.FormatInt(c.pollInterval.Milliseconds(), 10))
	}
	response.RespondJSON(ctx, "success", http.StatusOK, "Queue status retrieved successfully", snapshot, nil)
}

// RegisterEntry handles POST /api/v1/queue/entries
func (c *Controller) RegisterEntry(ctx *gin.Context) {
	var req RegisterEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	entry, err := c.service.Register(ctx.Request.Context(), uuid.MustParse(req.PatientID))
	if err != nil {
		respondError(ctx, err, "Failed to issue ticket")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Ticket issued successfully", entry, nil)
}

// ListEntries handles GET /api/v1/queue/entries?status=&limit=
func (c *Controller) ListEntries(ctx *gin.Context) {
	var query ListEntriesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid status filter", nil, err.Error())
		return
	}

	entries, err := c.service.List(ctx.Request.Context(), ListFilter{
		Status: Status(query.Status),
		Limit:  query.Limit,
	})
	if err != nil {
		respondError(ctx, err, "Failed to fetch queue entries")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Queue entries retrieved successfully",
		EntryListResponse{Entries: entries, Total: len(entries)}, nil)
}

// ListWaiting handles GET /api/v1/queue/entries/waiting
func (c *Controller) ListWaiting(ctx *gin.Context) {
	entries, err := c.service.ListWaiting(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "Failed to fetch waiting entries")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Waiting entries retrieved successfully",
		EntryListResponse{Entries: entries, Total: len(entries)}, nil)
}

// GetEntry handles GET /api/v1/queue/entries/:id
func (c *Controller) GetEntry(ctx *gin.Context) {
	entryID, ok := parseEntryID(ctx)
	if !ok {
		return
	}

	entry, err := c.service.Get(ctx.Request.Context(), entryID)
	if err != nil {
		respondError(ctx, err, "Failed to fetch queue entry")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Queue entry retrieved successfully", entry, nil)
}

// CallNext handles POST /api/v1/queue/call-next
func (c *Controller) CallNext(ctx *gin.Context) {
	userIDStr, exists := ctx.Get("user_id")
	if !exists {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	userID, _ := userIDStr.(string)
	serverID, err := uuid.Parse(userID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return
	}

	entry, err := c.service.CallNext(ctx.Request.Context(), serverID)
	if err != nil {
		respondError(ctx, err, "Failed to call next patient")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Patient called", entry, nil)
}

// CompleteEntry handles POST /api/v1/queue/entries/:id/complete
func (c *Controller) CompleteEntry(ctx *gin.Context) {
	entryID, ok := parseEntryID(ctx)
	if !ok {
		return
	}

	entry, err := c.service.Complete(ctx.Request.Context(), entryID)
	if err != nil {
		respondError(ctx, err, "Failed to complete entry")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Entry completed", entry, nil)
}

// CancelEntry handles POST /api/v1/queue/entries/:id/cancel
func (c *Controller) CancelEntry(ctx *gin.Context) {
	entryID, ok := parseEntryID(ctx)
	if !ok {
		return
	}

	entry, err := c.service.Cancel(ctx.Request.Context(), entryID)
	if err != nil {
		respondError(ctx, err, "Failed to cancel entry")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Entry cancelled", entry, nil)
}

func parseEntryID(ctx *gin.Context) (uuid.UUID, bool) {
	entryID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid entry ID", nil, err.Error())
		return uuid.Nil, false
	}
	return entryID, true
}

// respondError maps queue errors onto HTTP statuses
func respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case errors.Is(err, ErrNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, err.Error(), nil, nil)
	case errors.Is(err, ErrEmptyQueue):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "No waiting patients", nil, nil)
	case errors.Is(err, ErrAlreadyServing):
		response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.Is(err, ErrInvalidTransition):
		response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), nil, nil)
	case errors.Is(err, ErrStorageUnavailable):
		response.RespondJSON(ctx, "error", http.StatusServiceUnavailable, "Queue temporarily unavailable, please retry", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, fallback, nil, nil)
	}
}

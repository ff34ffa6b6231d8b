package patients

import (
	"errors"
	"net/http"

	"clinicq/internal/queue"
	"clinicq/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterPatient handles POST /api/v1/patients
func (c *Controller) RegisterPatient(ctx *gin.Context) {
	var req CreatePatientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.Register(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err, "Failed to register patient")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Patient registered and ticket issued", result, nil)
}

// GetPatient handles GET /api/v1/patients/:id
func (c *Controller) GetPatient(ctx *gin.Context) {
	id, ok := parsePatientID(ctx)
	if !ok {
		return
	}

	patient, err := c.service.GetPatient(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "Failed to fetch patient")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Patient retrieved successfully", patient, nil)
}

// UpdatePatient handles PATCH /api/v1/patients/:id
func (c *Controller) UpdatePatient(ctx *gin.Context) {
	id, ok := parsePatientID(ctx)
	if !ok {
		return
	}

	var req UpdatePatientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	patient, err := c.service.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		respondError(ctx, err, "Failed to update patient")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Patient updated successfully", patient, nil)
}

// SearchPatients handles GET /api/v1/patients/search/:query
func (c *Controller) SearchPatients(ctx *gin.Context) {
	results, err := c.service.Search(ctx.Request.Context(), ctx.Param("query"))
	if err != nil {
		respondError(ctx, err, "Failed to search patients")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Patients retrieved successfully", results, nil)
}

func parsePatientID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid patient ID", nil, nil)
		return uuid.Nil, false
	}
	return id, true
}

func respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Patient not found", nil, nil)
	case errors.Is(err, ErrInvalidQuery):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
	case errors.Is(err, queue.ErrValidation):
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Ticket could not be issued", nil, err.Error())
	case errors.Is(err, queue.ErrStorageUnavailable):
		response.RespondJSON(ctx, "error", http.StatusServiceUnavailable, "Queue storage unavailable", nil, nil)
	default:
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, fallback, nil, nil)
	}
}

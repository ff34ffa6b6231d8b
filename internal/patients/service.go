package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinicq/internal/queue"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidQuery    = errors.New("search query must be at least 2 characters")
)

// Service interface defines the contract for patient registry operations
type Service interface {
	Register(ctx context.Context, req *CreatePatientRequest) (*RegistrationResponse, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdatePatientRequest) (*Patient, error)
	Search(ctx context.Context, query string) ([]Patient, error)
}

type service struct {
	repo      Repository
	queue     queue.Service
	directory *Directory
}

// NewService creates a patient service that issues tickets through queueService.
// directory may be nil; when set its cached display names are dropped on update.
func NewService(repo Repository, queueService queue.Service, directory *Directory) Service {
	return &service{
		repo:      repo,
		queue:     queueService,
		directory: directory,
	}
}

// Register records a walk-in patient and issues their ticket
func (s *service) Register(ctx context.Context, req *CreatePatientRequest) (*RegistrationResponse, error) {
	patient := &Patient{
		Name:    strings.TrimSpace(req.Name),
		Phone:   optional(req.Phone),
		Email:   optional(strings.ToLower(req.Email)),
		Gender:  optional(strings.ToUpper(req.Gender)),
		Address: optional(req.Address),
	}
	if req.Age > 0 {
		age := req.Age
		patient.Age = &age
	}

	if err := s.repo.CreatePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	entry, err := s.queue.Register(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("patient %s saved but ticket not issued: %w", patient.ID, err)
	}

	return &RegistrationResponse{Patient: patient, Entry: entry}, nil
}

func (s *service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req *UpdatePatientRequest) (*Patient, error) {
	patient, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		patient.Phone = optional(*req.Phone)
	}
	if req.Email != nil {
		patient.Email = optional(strings.ToLower(*req.Email))
	}
	if req.Age != nil {
		age := *req.Age
		patient.Age = &age
	}
	if req.Gender != nil {
		patient.Gender = optional(strings.ToUpper(*req.Gender))
	}
	if req.Address != nil {
		patient.Address = optional(*req.Address)
	}

	if err := s.repo.UpdatePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	if s.directory != nil && req.Name != nil {
		s.directory.Invalidate(ctx, patient.ID)
	}

	return patient, nil
}

func (s *service) Search(ctx context.Context, query string) ([]Patient, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, ErrInvalidQuery
	}
	return s.repo.SearchPatients(ctx, query, MaxSearchResults)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// displayName shortens "Jane Alice Doe" to "Jane D."
func displayName(full string) string {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		last := []rune(parts[len(parts)-1])
		return parts[0] + " " + strings.ToUpper(string(last[0])) + "."
	}
}

package patients

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreatePatient(ctx context.Context, patient *Patient) error
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	UpdatePatient(ctx context.Context, patient *Patient) error
	SearchPatients(ctx context.Context, query string, limit int) ([]Patient, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePatient(ctx context.Context, patient *Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *repository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var patient Patient
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &patient, nil
}

func (r *repository) UpdatePatient(ctx context.Context, patient *Patient) error {
	return r.db.WithContext(ctx).Save(patient).Error
}

// SearchPatients matches name, phone or email case-insensitively
func (r *repository) SearchPatients(ctx context.Context, query string, limit int) ([]Patient, error) {
	pattern := "%" + escapeLike(query) + "%"

	patients := make([]Patient, 0)
	err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

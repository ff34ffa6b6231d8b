package patients

import (
	"context"
	"time"

	"clinicq/internal/shared/constants"
	"clinicq/pkg/cache"
	"clinicq/pkg/logger"

	"github.com/google/uuid"
)

// Directory answers the queue's and the notifier's patient lookups.
// Display names are cached because every status read resolves two of them.
type Directory struct {
	repo  Repository
	cache cache.Service
	ttl   time.Duration
}

// NewDirectory creates a directory; cacheService may be nil
func NewDirectory(repo Repository, cacheService cache.Service, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = constants.TTL_PATIENT_DISPLAY_NAME
	}
	return &Directory{
		repo:  repo,
		cache: cacheService,
		ttl:   ttl,
	}
}

// DisplayName implements queue.PatientDirectory
func (d *Directory) DisplayName(ctx context.Context, patientID uuid.UUID) (string, error) {
	if d.cache == nil {
		return d.loadDisplayName(ctx, patientID)
	}

	var name string
	err := d.cache.GetOrSet(ctx, constants.BuildPatientDisplayNameKey(patientID.String()), d.ttl,
		func() (interface{}, error) {
			return d.loadDisplayName(ctx, patientID)
		}, &name)
	if err != nil {
		return "", err
	}
	return name, nil
}

// Invalidate drops a cached display name after a rename
func (d *Directory) Invalidate(ctx context.Context, patientID uuid.UUID) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Delete(ctx, constants.BuildPatientDisplayNameKey(patientID.String())); err != nil {
		logger.GetDefault().WithError(err).WarnContext(ctx, "Failed to invalidate display name", "patient_id", patientID.String())
	}
}

func (d *Directory) loadDisplayName(ctx context.Context, patientID uuid.UUID) (string, error) {
	patient, err := d.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return "", err
	}
	return patient.DisplayName(), nil
}

// Contact implements notifications.ContactLookup. Patients without an e-mail
// address yield an empty email and no error.
func (d *Directory) Contact(ctx context.Context, patientID uuid.UUID) (email, name string, err error) {
	patient, err := d.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return "", "", err
	}
	if patient.Email == nil {
		return "", patient.Name, nil
	}
	return *patient.Email, patient.Name, nil
}

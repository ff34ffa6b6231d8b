package queue

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrEmptyQueue         = errors.New("no patients waiting")
	ErrAlreadyServing     = errors.New("a patient is already being served")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotFound           = errors.New("queue entry not found")
	ErrStorageUnavailable = errors.New("queue storage unavailable")
)

// isDomainError reports whether err is one of the recoverable queue errors
func isDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEmptyQueue) ||
		errors.Is(err, ErrAlreadyServing) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStorageUnavailable)
}

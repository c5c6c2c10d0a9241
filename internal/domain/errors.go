package domain

import "errors"

// Business-rule errors returned by the core services. The API layer maps
// these to transport status codes; anything else is a storage failure.
var (
	ErrInvalidInterval      = errors.New("invalid booking interval")
	ErrEquipmentUnavailable = errors.New("equipment is not available for booking")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAlreadyRated         = errors.New("booking has already been rated")
	ErrAlreadyReviewed      = errors.New("reviewer already has a review on this equipment")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrConflict             = errors.New("concurrent update conflict")
	ErrTimeout              = errors.New("operation timed out")

	// ErrStorageFailure wraps unrecoverable storage errors. Callers should
	// retry the whole operation, never assume partial success.
	ErrStorageFailure = errors.New("storage failure")
)

package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidPrompt         = errors.New("invalid prompt")
	ErrInsufficientCredit    = errors.New("insufficient credit")
	ErrNoActiveRevision      = errors.New("no active revision")
	ErrCorruptRevisionState  = errors.New("corrupt revision state")
	ErrPartialInsert         = errors.New("partial revision insert")
	ErrGenerationRejected    = errors.New("generation rejected")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrUploadFailed          = errors.New("upload failed")
	ErrReservationResolved   = errors.New("reservation already resolved")
)

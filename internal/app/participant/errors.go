package participant

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrParticipantNotFound = errors.New("participant_not_found")
	ErrAlreadyRegistered   = errors.New("already_registered")
	ErrHandleTaken         = errors.New("handle_taken")
)

package practice

import "errors"

var (
	ErrInvalidRequest           = errors.New("invalid_request")
	ErrPracticeNotFound         = errors.New("practice_not_found")
	ErrParticipantNotFound      = errors.New("participant_not_found")
	ErrParticipantHasNoIdentity = errors.New("participant_has_no_identity")
	ErrTooManyConflicts         = errors.New("too_many_conflicts")
)

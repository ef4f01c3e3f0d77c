package roster

import "errors"

var (
	ErrFull                = errors.New("roster_full")
	ErrParticipantNotFound = errors.New("participant_not_found")
	ErrAlreadyOnRoster     = errors.New("already_on_roster")
	ErrInvalidSide         = errors.New("invalid_side")
	ErrInvalidParticipant  = errors.New("invalid_participant")
	ErrCapacityMismatch    = errors.New("capacity_mismatch")
	ErrCorruptRoster       = errors.New("corrupt_roster")
)

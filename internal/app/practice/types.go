package practice

import (
	"time"

	"practice-roster/internal/roster"
)

const (
	msgLocked        = "Practice is locked until one hour before start time"
	msgMain          = "Signed up on main list"
	msgWaitlist      = "Signed up for waitlist"
	msgAlreadyOn     = "Already signed up for this practice"
	msgUnregistered  = "Successfully unregistered from practice"
	msgNotRegistered = "User not registered for this practice"
)

func msgFull(side roster.Side) string {
	return side.Title() + " side main list and waitlist are full"
}

// SignupResult is an expected outcome. Accepted=false means a rejection
// the caller should show to the user, not a failure.
type SignupResult struct {
	Accepted   bool        `json:"success"`
	OnWaitlist bool        `json:"on_waitlist"`
	Side       roster.Side `json:"side,omitempty"`
	Message    string      `json:"message"`
}

type WithdrawResult struct {
	Accepted   bool   `json:"success"`
	Message    string `json:"message"`
	PromotedID string `json:"-"`
}

// TransferResult reports the participants moved by one carryover.
type TransferResult struct {
	PracticeID string   `json:"practice_id"`
	PriorID    string   `json:"prior_id,omitempty"`
	Left       []string `json:"left"`
	Right      []string `json:"right"`
	// Skipped is set when there was nothing to do: no prior practice, or
	// the carryover already ran.
	Skipped bool `json:"skipped"`
}

// Parsed is the shape the roster import feed hands to the engine.
type Parsed struct {
	Start time.Time
	Left  ParsedSide
	Right ParsedSide
}

type ParsedSide struct {
	Main     []string
	Waitlist []string
}

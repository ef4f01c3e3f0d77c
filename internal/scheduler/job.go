package scheduler

import (
	"time"

	"practice-roster/internal/app/practice"
	"practice-roster/internal/store"
)

type Kind string

const (
	// KindCarryover seats last week's waitlist just before unlock.
	KindCarryover Kind = "carryover"
	// KindUnlock announces that signups are open.
	KindUnlock Kind = "unlock"
)

type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	PracticeID string    `json:"practice_id"`
	FireAt     time.Time `json:"fire_at"`
}

type jobKey struct {
	practiceID string
	kind       Kind
}

type plannedJob struct {
	kind   Kind
	fireAt time.Time
}

// plan derives the two fire times of a practice. Nothing about them is
// stored; they are recomputed from the start time whenever needed.
func plan(p store.Practice) [2]plannedJob {
	return [2]plannedJob{
		{kind: KindCarryover, fireAt: practice.CarryoverAt(p)},
		{kind: KindUnlock, fireAt: practice.UnlockAt(p)},
	}
}

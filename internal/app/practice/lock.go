package practice

import (
	"time"

	"practice-roster/internal/store"
)

const (
	// UnlockLead is how long before start signups open.
	UnlockLead = time.Hour
	// CarryoverLead fires the waitlist carryover just before unlock so the
	// prior week's waitlist is seated before anyone else can sign up.
	CarryoverLead = UnlockLead + 30*time.Second
)

func UnlockAt(p store.Practice) time.Time {
	return p.StartTime.Add(-UnlockLead)
}

func CarryoverAt(p store.Practice) time.Time {
	return p.StartTime.Add(-CarryoverLead)
}

// IsLocked reports whether signups for p are still closed at now.
func IsLocked(p store.Practice, now time.Time) bool {
	return now.Before(UnlockAt(p))
}

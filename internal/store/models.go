package store

import (
	"strings"
	"time"

	"practice-roster/internal/roster"
)

const (
	PracticeLength = time.Hour
	Week           = 7 * 24 * time.Hour
)

type Practice struct {
	ID            string        `json:"id"`
	Date          time.Time     `json:"date"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Roster        roster.Roster `json:"roster"`
	CarriedOverAt *time.Time    `json:"carried_over_at,omitempty"`
	Version       int64         `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewPractice returns an unsaved practice with an empty roster. The date is
// truncated to midnight UTC and the end time defaults to one hour after start.
func NewPractice(date, start time.Time) Practice {
	start = start.UTC()
	if date.IsZero() {
		date = start
	}
	return Practice{
		Date:      DayOf(date),
		StartTime: start,
		EndTime:   start.Add(PracticeLength),
		Roster:    roster.New(),
	}
}

func (p Practice) Clone() Practice {
	out := p
	out.Roster = p.Roster.Clone()
	if p.CarriedOverAt != nil {
		t := *p.CarriedOverAt
		out.CarriedOverAt = &t
	}
	return out
}

func (p Practice) CarriedOver() bool {
	return p.CarriedOverAt != nil
}

// PriorStart is the start time of the same slot one week earlier.
func (p Practice) PriorStart() time.Time {
	return p.StartTime.Add(-Week)
}

func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Participant struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email,omitempty"`
	MemberID       string      `json:"member_id,omitempty"`
	ExternalHandle string      `json:"external_handle,omitempty"`
	Side           roster.Side `json:"side"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Profile is the part of a participant owned by the registration form.
// Writing it never touches the contact handle.
type Profile struct {
	Name     string
	Email    string
	MemberID string
	Side     roster.Side
}

func (p Participant) HasHandle() bool {
	return p.ExternalHandle != ""
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeName(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

func sideOrUnspecified(s roster.Side) roster.Side {
	if s == "" {
		return roster.SideUnspecified
	}
	return s
}

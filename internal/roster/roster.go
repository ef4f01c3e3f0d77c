// Package roster holds the per-practice slot allocation: two sides, each
// with a fixed-length main roster and waitlist. Slots never move; removing
// a participant leaves a hole that the next placement fills first.
package roster

import (
	"errors"
	"fmt"
)

const (
	MainCapacity     = 17
	WaitlistCapacity = 6
)

type Lineup struct {
	Main     []Slot `json:"main"`
	Waitlist []Slot `json:"waitlist"`
}

func newLineup() Lineup {
	return Lineup{
		Main:     make([]Slot, MainCapacity),
		Waitlist: make([]Slot, WaitlistCapacity),
	}
}

func (l Lineup) MainCount() int     { return occupiedCount(l.Main) }
func (l Lineup) WaitlistCount() int { return occupiedCount(l.Waitlist) }
func (l Lineup) MainIDs() []string  { return occupiedIDs(l.Main) }

func (l Lineup) WaitlistIDs() []string {
	return occupiedIDs(l.Waitlist)
}

func (l Lineup) clone() Lineup {
	out := Lineup{
		Main:     make([]Slot, len(l.Main)),
		Waitlist: make([]Slot, len(l.Waitlist)),
	}
	copy(out.Main, l.Main)
	copy(out.Waitlist, l.Waitlist)
	return out
}

type Roster struct {
	Left  Lineup `json:"left"`
	Right Lineup `json:"right"`
}

func New() Roster {
	return Roster{Left: newLineup(), Right: newLineup()}
}

type Placement struct {
	Side   Side
	OnMain bool
	Index  int
}

type Removal struct {
	Side       Side
	FromMain   bool
	Index      int
	PromotedID string
}

func (r Removal) Promoted() bool {
	return r.PromotedID != ""
}

type CarryoverResult struct {
	Left  []string
	Right []string
}

func (c CarryoverResult) Moved() int {
	return len(c.Left) + len(c.Right)
}

func (r Roster) Clone() Roster {
	return Roster{Left: r.Left.clone(), Right: r.Right.clone()}
}

func (r Roster) Lineup(side Side) (Lineup, error) {
	switch side {
	case SideLeft:
		return r.Left, nil
	case SideRight:
		return r.Right, nil
	default:
		return Lineup{}, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
}

func (r *Roster) lineup(side Side) (*Lineup, error) {
	switch side {
	case SideLeft:
		return &r.Left, nil
	case SideRight:
		return &r.Right, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
}

// Validate reports ErrCorruptRoster when any slot sequence has lost its
// fixed length or a participant occupies more than one slot.
func (r Roster) Validate() error {
	seen := map[string]struct{}{}
	for _, side := range Sides {
		l, _ := r.Lineup(side)
		if len(l.Main) != MainCapacity {
			return fmt.Errorf("%w: %s main has %d slots", ErrCorruptRoster, side, len(l.Main))
		}
		if len(l.Waitlist) != WaitlistCapacity {
			return fmt.Errorf("%w: %s waitlist has %d slots", ErrCorruptRoster, side, len(l.Waitlist))
		}
		for _, slots := range [][]Slot{l.Main, l.Waitlist} {
			for _, s := range slots {
				if s.Empty() {
					continue
				}
				if _, dup := seen[s.id]; dup {
					return fmt.Errorf("%w: participant %s appears twice", ErrCorruptRoster, s.id)
				}
				seen[s.id] = struct{}{}
			}
		}
	}
	return nil
}

func (r Roster) Contains(participantID string) bool {
	for _, l := range []Lineup{r.Left, r.Right} {
		if indexOf(l.Main, participantID) >= 0 || indexOf(l.Waitlist, participantID) >= 0 {
			return true
		}
	}
	return false
}

// ResolveSide returns pref unchanged unless it is Unspecified, in which case
// the side with fewer occupied main slots wins and ties go Left.
func (r Roster) ResolveSide(pref Side) Side {
	if pref.Valid() {
		return pref
	}
	if r.Right.MainCount() >= r.Left.MainCount() {
		return SideLeft
	}
	return SideRight
}

// Place fills the first empty main slot of side, falling back to the first
// empty waitlist slot.
func (r *Roster) Place(side Side, participantID string) (Placement, error) {
	p, err := r.Seat(side, true, participantID)
	if errors.Is(err, ErrFull) {
		return r.Seat(side, false, participantID)
	}
	return p, err
}

// Seat fills the first empty slot of side's main roster (onMain) or
// waitlist, without falling through to the other sequence.
func (r *Roster) Seat(side Side, onMain bool, participantID string) (Placement, error) {
	if participantID == "" {
		return Placement{}, ErrInvalidParticipant
	}
	l, err := r.lineup(side)
	if err != nil {
		return Placement{}, err
	}
	if r.Contains(participantID) {
		return Placement{}, ErrAlreadyOnRoster
	}
	slots := l.Waitlist
	if onMain {
		slots = l.Main
	}
	i := firstEmpty(slots)
	if i < 0 {
		return Placement{Side: side, OnMain: onMain}, ErrFull
	}
	slots[i] = Occupied(participantID)
	return Placement{Side: side, OnMain: onMain, Index: i}, nil
}

// Remove clears the participant's slot. Search order is Left main, Right
// main, Left waitlist, Right waitlist. Vacating a main slot promotes the
// lowest-index waitlisted participant of the same side into it.
func (r *Roster) Remove(participantID string) (Removal, error) {
	for _, side := range Sides {
		l, _ := r.lineup(side)
		i := indexOf(l.Main, participantID)
		if i < 0 {
			continue
		}
		l.Main[i] = Slot{}
		out := Removal{Side: side, FromMain: true, Index: i}
		if w := firstOccupied(l.Waitlist); w >= 0 {
			out.PromotedID = l.Waitlist[w].id
			l.Main[i] = l.Waitlist[w]
			l.Waitlist[w] = Slot{}
		}
		return out, nil
	}
	for _, side := range Sides {
		l, _ := r.lineup(side)
		if i := indexOf(l.Waitlist, participantID); i >= 0 {
			l.Waitlist[i] = Slot{}
			return Removal{Side: side, Index: i}, nil
		}
	}
	return Removal{}, ErrParticipantNotFound
}

// MergeWaitlist moves every waitlisted participant of prior, in index
// order, into the first empty main slots of side. Participants already on
// this roster are skipped. If the entries do not fit nothing is written and
// ErrCapacityMismatch is returned.
func (r *Roster) MergeWaitlist(side Side, prior Lineup) ([]string, error) {
	l, err := r.lineup(side)
	if err != nil {
		return nil, err
	}
	pending := make([]string, 0, len(prior.Waitlist))
	queued := map[string]struct{}{}
	for _, id := range prior.WaitlistIDs() {
		if _, dup := queued[id]; dup || r.Contains(id) {
			continue
		}
		queued[id] = struct{}{}
		pending = append(pending, id)
	}
	free := len(l.Main) - l.MainCount()
	if len(pending) > free {
		return nil, fmt.Errorf("%w: %s side needs %d main slots, %d free", ErrCapacityMismatch, side, len(pending), free)
	}
	for _, id := range pending {
		l.Main[firstEmpty(l.Main)] = Occupied(id)
	}
	return pending, nil
}

// CarryOver merges both sides of prior's waitlists. Either both sides are
// merged or neither is.
func (r *Roster) CarryOver(prior Roster) (CarryoverResult, error) {
	next := r.Clone()
	left, err := next.MergeWaitlist(SideLeft, prior.Left)
	if err != nil {
		return CarryoverResult{}, err
	}
	right, err := next.MergeWaitlist(SideRight, prior.Right)
	if err != nil {
		return CarryoverResult{}, err
	}
	*r = next
	return CarryoverResult{Left: left, Right: right}, nil
}

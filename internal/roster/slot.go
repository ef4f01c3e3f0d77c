package roster

import (
	"bytes"
	"encoding/json"
)

// Slot holds at most one participant reference. The zero Slot is empty.
type Slot struct {
	id string
}

func Occupied(participantID string) Slot {
	return Slot{id: participantID}
}

func (s Slot) Empty() bool {
	return s.id == ""
}

func (s Slot) ParticipantID() string {
	return s.id
}

func (s Slot) MarshalJSON() ([]byte, error) {
	if s.Empty() {
		return []byte("null"), nil
	}
	return json.Marshal(s.id)
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		s.id = ""
		return nil
	}
	return json.Unmarshal(b, &s.id)
}

func firstEmpty(slots []Slot) int {
	for i, s := range slots {
		if s.Empty() {
			return i
		}
	}
	return -1
}

func firstOccupied(slots []Slot) int {
	for i, s := range slots {
		if !s.Empty() {
			return i
		}
	}
	return -1
}

func indexOf(slots []Slot, participantID string) int {
	for i, s := range slots {
		if !s.Empty() && s.id == participantID {
			return i
		}
	}
	return -1
}

func occupiedCount(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

func occupiedIDs(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if !s.Empty() {
			out = append(out, s.id)
		}
	}
	return out
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"practice-roster/internal/roster"
)

// Memory is a process-local Store. Values are copied on the way in and out
// so callers never share roster slices with the map.
type Memory struct {
	mu           sync.RWMutex
	practices    map[string]Practice
	participants map[string]Participant
	cursors      map[string]int
	now          func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		practices:    map[string]Practice{},
		participants: map[string]Participant{},
		cursors:      map[string]int{},
		now:          time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }

func (m *Memory) CreatePractice(_ context.Context, p *Practice) error {
	if err := p.Roster.Validate(); err != nil {
		return wrap("create practice", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = NewID()
	}
	if _, ok := m.practices[p.ID]; ok {
		return ErrAlreadyExists
	}
	p.Version = 1
	p.CreatedAt = m.now().UTC()
	m.practices[p.ID] = p.Clone()
	return nil
}

func (m *Memory) GetPractice(_ context.Context, id string) (Practice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.practices[id]
	if !ok {
		return Practice{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) GetPracticeByStart(_ context.Context, start time.Time) (Practice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.sortedPractices() {
		if p.StartTime.Equal(start) {
			return p.Clone(), nil
		}
	}
	return Practice{}, ErrNotFound
}

func (m *Memory) GetPracticeByDate(_ context.Context, date time.Time) (Practice, error) {
	day := DayOf(date)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.sortedPractices() {
		if DayOf(p.Date).Equal(day) {
			return p.Clone(), nil
		}
	}
	return Practice{}, ErrNotFound
}

func (m *Memory) ListFuturePractices(_ context.Context, after time.Time) ([]Practice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Practice{}
	for _, p := range m.sortedPractices() {
		if p.StartTime.After(after) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdatePractice(_ context.Context, p *Practice) error {
	if err := p.Roster.Validate(); err != nil {
		return wrap("update practice", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.practices[p.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != p.Version {
		return ErrVersionConflict
	}
	next := p.Clone()
	next.Version = cur.Version + 1
	next.CreatedAt = cur.CreatedAt
	m.practices[p.ID] = next
	p.Version = next.Version
	return nil
}

// sortedPractices orders by start time, then ID. Callers hold m.mu.
func (m *Memory) sortedPractices() []Practice {
	out := make([]Practice, 0, len(m.practices))
	for _, p := range m.practices {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (m *Memory) CreateParticipant(_ context.Context, p *Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = NewID()
	}
	if _, ok := m.participants[p.ID]; ok {
		return ErrAlreadyExists
	}
	if err := m.checkUniqueLocked(*p); err != nil {
		return err
	}
	if p.Side == "" {
		p.Side = roster.SideUnspecified
	}
	p.CreatedAt = m.now().UTC()
	m.participants[p.ID] = *p
	return nil
}

func (m *Memory) UpdateParticipant(_ context.Context, p Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.participants[p.ID]
	if !ok {
		return ErrNotFound
	}
	if err := m.checkUniqueLocked(p); err != nil {
		return err
	}
	p.CreatedAt = cur.CreatedAt
	m.participants[p.ID] = p
	return nil
}

func (m *Memory) UpdateParticipantProfile(_ context.Context, id string, profile Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.participants[id]
	if !ok {
		return ErrNotFound
	}
	cur.Name = profile.Name
	cur.Email = profile.Email
	cur.MemberID = profile.MemberID
	cur.Side = sideOrUnspecified(profile.Side)
	if err := m.checkUniqueLocked(cur); err != nil {
		return err
	}
	m.participants[id] = cur
	return nil
}

func (m *Memory) checkUniqueLocked(p Participant) error {
	email := normalizeEmail(p.Email)
	for id, other := range m.participants {
		if id == p.ID {
			continue
		}
		if email != "" && normalizeEmail(other.Email) == email {
			return ErrAlreadyExists
		}
		if p.ExternalHandle != "" && other.ExternalHandle == p.ExternalHandle {
			return ErrAlreadyExists
		}
	}
	return nil
}

func (m *Memory) GetParticipant(_ context.Context, id string) (Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[id]
	if !ok {
		return Participant{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) GetParticipantByEmail(_ context.Context, email string) (Participant, error) {
	return m.findParticipant(func(p Participant) bool {
		return email != "" && normalizeEmail(p.Email) == normalizeEmail(email)
	})
}

func (m *Memory) GetParticipantByHandle(_ context.Context, handle string) (Participant, error) {
	return m.findParticipant(func(p Participant) bool {
		return handle != "" && p.ExternalHandle == handle
	})
}

func (m *Memory) GetParticipantByName(_ context.Context, name string) (Participant, error) {
	want := normalizeName(name)
	return m.findParticipant(func(p Participant) bool {
		return want != "" && normalizeName(p.Name) == want
	})
}

// findParticipant returns the oldest match so lookups are deterministic.
func (m *Memory) findParticipant(match func(Participant) bool) (Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		found Participant
		ok    bool
	)
	for _, p := range m.participants {
		if !match(p) {
			continue
		}
		if !ok || p.ID < found.ID {
			found, ok = p, true
		}
	}
	if !ok {
		return Participant{}, ErrNotFound
	}
	return found, nil
}

func (m *Memory) GetImportCursor(_ context.Context, source string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursors[source], nil
}

func (m *Memory) SetImportCursor(_ context.Context, source string, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[source] = rows
	return nil
}

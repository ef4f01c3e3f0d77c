package practice

import (
	"context"
	"errors"
	"strings"

	"practice-roster/internal/roster"
	"practice-roster/internal/store"

	"github.com/rs/zerolog/log"
)

// CreateFromImport builds a practice from an imported roster sheet unless
// one already exists on that date. Names are matched to participants,
// creating placeholders for unknown ones. created is false when the
// existing practice was returned.
func (s *Service) CreateFromImport(ctx context.Context, in Parsed) (p store.Practice, created bool, err error) {
	if in.Start.IsZero() {
		return store.Practice{}, false, ErrInvalidRequest
	}
	existing, err := s.store.GetPracticeByDate(ctx, in.Start)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Practice{}, false, err
	}

	p = store.NewPractice(in.Start, in.Start)
	seats := []struct {
		side   roster.Side
		onMain bool
		names  []string
	}{
		{roster.SideLeft, true, in.Left.Main},
		{roster.SideLeft, false, in.Left.Waitlist},
		{roster.SideRight, true, in.Right.Main},
		{roster.SideRight, false, in.Right.Waitlist},
	}
	for _, seat := range seats {
		for _, name := range seat.names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			participant, err := s.placeholder(ctx, name)
			if err != nil {
				return store.Practice{}, false, err
			}
			if _, err := p.Roster.Seat(seat.side, seat.onMain, participant.ID); err != nil {
				log.Warn().Err(err).
					Str("name", name).
					Str("side", string(seat.side)).
					Bool("main", seat.onMain).
					Msg("import: participant not seated")
			}
		}
	}

	if err := s.store.CreatePractice(ctx, &p); err != nil {
		return store.Practice{}, false, err
	}
	log.Info().
		Str("practice_id", p.ID).
		Time("start_time", p.StartTime).
		Int("left_main", p.Roster.Left.MainCount()).
		Int("right_main", p.Roster.Right.MainCount()).
		Msg("practice imported")
	s.practiceCreated(p)
	return p, true, nil
}

func (s *Service) placeholder(ctx context.Context, name string) (store.Participant, error) {
	found, err := s.store.GetParticipantByName(ctx, name)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Participant{}, err
	}
	created := store.Participant{Name: name, Side: roster.SideUnspecified}
	if err := s.store.CreateParticipant(ctx, &created); err != nil {
		return store.Participant{}, err
	}
	return created, nil
}

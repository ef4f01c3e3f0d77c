package participant

import (
	"context"
	"errors"
	"strings"

	"practice-roster/internal/roster"
	"practice-roster/internal/store"

	"github.com/rs/zerolog/log"
)

type Service struct {
	store store.ParticipantStore
}

func NewService(st store.ParticipantStore) *Service {
	return &Service{store: st}
}

func (s *Service) Get(ctx context.Context, id string) (store.Participant, error) {
	if id == "" {
		return store.Participant{}, ErrInvalidRequest
	}
	p, err := s.store.GetParticipant(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Participant{}, ErrParticipantNotFound
	}
	return p, err
}

// RegisterContactHandle attaches handle to the participant registered
// under email. A participant keeps the first handle it is given.
func (s *Service) RegisterContactHandle(ctx context.Context, email, handle string) (store.Participant, error) {
	email = strings.TrimSpace(email)
	handle = strings.TrimSpace(handle)
	if email == "" || handle == "" {
		return store.Participant{}, ErrInvalidRequest
	}
	p, err := s.store.GetParticipantByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return store.Participant{}, ErrParticipantNotFound
	}
	if err != nil {
		return store.Participant{}, err
	}
	if p.HasHandle() {
		return store.Participant{}, ErrAlreadyRegistered
	}
	p.ExternalHandle = handle
	if err := s.store.UpdateParticipant(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return store.Participant{}, ErrHandleTaken
		}
		return store.Participant{}, err
	}
	log.Info().
		Str("participant_id", p.ID).
		Msg("contact handle registered")
	return p, nil
}

// RegisterFromForm creates or refreshes the participant described by a
// registration form row. A placeholder created by a roster import with the
// same name and no email is adopted rather than duplicated.
func (s *Service) RegisterFromForm(ctx context.Context, e FormEntry) (p store.Participant, created bool, err error) {
	email := strings.TrimSpace(e.Email)
	if email == "" {
		email = strings.TrimSpace(e.PreferredEmail)
	}
	name := strings.Join(strings.Fields(e.FullName), " ")
	if email == "" || name == "" {
		return store.Participant{}, false, ErrInvalidRequest
	}
	side, err := roster.ParseSide(e.Side)
	if err != nil {
		log.Warn().Str("side", e.Side).Str("email", email).Msg("form: unknown side, using unspecified")
		side = roster.SideUnspecified
	}

	memberID := strings.TrimSpace(e.MemberID)

	// Only form-owned fields are written so a handle attached concurrently
	// through RegisterContactHandle survives.
	existing, err := s.store.GetParticipantByEmail(ctx, email)
	switch {
	case err == nil:
		profile := store.Profile{Name: name, Email: existing.Email, MemberID: memberID, Side: side}
		if err := s.store.UpdateParticipantProfile(ctx, existing.ID, profile); err != nil {
			return store.Participant{}, false, err
		}
		existing.Name, existing.MemberID, existing.Side = name, memberID, side
		return existing, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return store.Participant{}, false, err
	}

	placeholder, err := s.store.GetParticipantByName(ctx, name)
	switch {
	case err == nil && placeholder.Email == "":
		profile := store.Profile{Name: name, Email: email, MemberID: memberID, Side: side}
		if err := s.store.UpdateParticipantProfile(ctx, placeholder.ID, profile); err != nil {
			return store.Participant{}, false, err
		}
		placeholder.Name, placeholder.Email, placeholder.MemberID, placeholder.Side = name, email, memberID, side
		log.Info().Str("participant_id", placeholder.ID).Msg("form: placeholder adopted")
		return placeholder, false, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return store.Participant{}, false, err
	}

	p = store.Participant{
		Name:     name,
		Email:    email,
		MemberID: memberID,
		Side:     side,
	}
	if err := s.store.CreateParticipant(ctx, &p); err != nil {
		return store.Participant{}, false, err
	}
	log.Info().Str("participant_id", p.ID).Msg("participant registered")
	return p, true, nil
}

// Package practice is the session lifecycle engine: it gates signups on the
// lock window, places and removes participants, promotes from the waitlist
// and carries waitlists over between consecutive weeks.
package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"practice-roster/internal/notify"
	"practice-roster/internal/roster"
	"practice-roster/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	defaultMaxAttempts   = 3
	defaultNotifyTimeout = 10 * time.Second
)

type Store interface {
	store.PracticeStore
	store.ParticipantStore
}

// Observer is told about every practice the service creates.
type Observer interface {
	PracticeCreated(p store.Practice)
}

type Service struct {
	store         Store
	notifier      notify.Notifier
	now           func() time.Time
	maxAttempts   int
	notifyTimeout time.Duration

	observerMu sync.RWMutex
	observer   Observer

	locks *practiceLocks

	detached sync.WaitGroup
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxAttempts bounds the read-modify-write retries on a version conflict.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func NewService(st Store, n notify.Notifier, opts ...Option) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	s := &Service{
		store:         st,
		notifier:      n,
		now:           time.Now,
		maxAttempts:   defaultMaxAttempts,
		notifyTimeout: defaultNotifyTimeout,
		locks:         newPracticeLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SetPracticeObserver(o Observer) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.observer = o
}

func (s *Service) practiceCreated(p store.Practice) {
	s.observerMu.RLock()
	o := s.observer
	s.observerMu.RUnlock()
	if o != nil {
		o.PracticeCreated(p)
	}
}

// Wait blocks until detached notifications have finished.
func (s *Service) Wait() {
	s.detached.Wait()
}

// Create stores a new practice with empty rosters and arms its timers.
func (s *Service) Create(ctx context.Context, date, start time.Time) (store.Practice, error) {
	if start.IsZero() {
		return store.Practice{}, ErrInvalidRequest
	}
	p := store.NewPractice(date, start)
	if err := s.store.CreatePractice(ctx, &p); err != nil {
		return store.Practice{}, err
	}
	log.Info().
		Str("practice_id", p.ID).
		Time("start_time", p.StartTime).
		Msg("practice created")
	s.practiceCreated(p)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (store.Practice, error) {
	if id == "" {
		return store.Practice{}, ErrInvalidRequest
	}
	return s.loadPractice(ctx, id)
}

func (s *Service) loadPractice(ctx context.Context, id string) (store.Practice, error) {
	p, err := s.store.GetPractice(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.Practice{}, ErrPracticeNotFound
	}
	return p, err
}

func (s *Service) participantByHandle(ctx context.Context, handle string) (store.Participant, error) {
	p, err := s.store.GetParticipantByHandle(ctx, handle)
	if errors.Is(err, store.ErrNotFound) {
		return store.Participant{}, ErrParticipantNotFound
	}
	if err != nil {
		return store.Participant{}, err
	}
	if p.ID == "" {
		return store.Participant{}, ErrParticipantHasNoIdentity
	}
	return p, nil
}

// mutate loads the practice, applies fn and writes the result back under
// the version read. Writers in this process take turns per practice; the
// version check still guards against other processes, and a conflict with
// one reruns the cycle after a jittered pause, up to maxAttempts. fn
// returning false skips the write.
func (s *Service) mutate(ctx context.Context, id string, fn func(p *store.Practice) (bool, error)) (store.Practice, error) {
	unlock, err := s.locks.acquire(ctx, id)
	if err != nil {
		return store.Practice{}, err
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		p, err := s.loadPractice(ctx, id)
		if err != nil {
			return store.Practice{}, err
		}
		write, err := fn(&p)
		if err != nil || !write {
			return p, err
		}
		err = s.store.UpdatePractice(ctx, &p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return store.Practice{}, err
		}
		metricWriteConflictsTotal.Add(1)
		log.Debug().
			Str("practice_id", id).
			Int("attempt", attempt).
			Msg("practice write conflict")
		if attempt >= s.maxAttempts {
			return store.Practice{}, &store.StorageError{
				Op:  "update practice",
				Err: fmt.Errorf("%w after %d attempts: %w", ErrTooManyConflicts, attempt, err),
			}
		}
		if err := sleepCtx(ctx, retryDelay(attempt)); err != nil {
			return store.Practice{}, err
		}
	}
}

// Signup places the participant identified by handle on the practice.
// Locked, full and duplicate signups come back as Accepted=false results.
func (s *Service) Signup(ctx context.Context, practiceID, handle string, requested roster.Side) (SignupResult, error) {
	if practiceID == "" || handle == "" {
		return SignupResult{}, ErrInvalidRequest
	}
	participant, err := s.participantByHandle(ctx, handle)
	if err != nil {
		return SignupResult{}, err
	}
	pref := requested
	if !pref.Valid() {
		pref = participant.Side
	}

	var res SignupResult
	_, err = s.mutate(ctx, practiceID, func(p *store.Practice) (bool, error) {
		if IsLocked(*p, s.now()) {
			res = SignupResult{Message: msgLocked}
			return false, nil
		}
		side := p.Roster.ResolveSide(pref)
		placed, err := p.Roster.Place(side, participant.ID)
		switch {
		case errors.Is(err, roster.ErrFull):
			res = SignupResult{Side: side, Message: msgFull(side)}
			return false, nil
		case errors.Is(err, roster.ErrAlreadyOnRoster):
			res = SignupResult{Message: msgAlreadyOn}
			return false, nil
		case err != nil:
			return false, err
		}
		res = SignupResult{Accepted: true, OnWaitlist: !placed.OnMain, Side: side, Message: msgMain}
		if !placed.OnMain {
			res.Message = msgWaitlist
		}
		return true, nil
	})
	if err != nil {
		return SignupResult{}, err
	}

	if res.Accepted {
		metricSignupsTotal.Add(1)
	} else {
		metricSignupRejectedTotal.Add(1)
	}
	log.Info().
		Str("practice_id", practiceID).
		Str("participant_id", participant.ID).
		Bool("accepted", res.Accepted).
		Bool("on_waitlist", res.OnWaitlist).
		Str("side", string(res.Side)).
		Msg("practice signup")
	return res, nil
}

// Withdraw removes the participant identified by handle. If that frees a
// main slot the first waitlisted participant of the side is promoted and
// told so in the background.
func (s *Service) Withdraw(ctx context.Context, practiceID, handle string) (WithdrawResult, error) {
	if practiceID == "" || handle == "" {
		return WithdrawResult{}, ErrInvalidRequest
	}
	participant, err := s.participantByHandle(ctx, handle)
	if err != nil {
		return WithdrawResult{}, err
	}

	var res WithdrawResult
	saved, err := s.mutate(ctx, practiceID, func(p *store.Practice) (bool, error) {
		removed, err := p.Roster.Remove(participant.ID)
		if errors.Is(err, roster.ErrParticipantNotFound) {
			res = WithdrawResult{Message: msgNotRegistered}
			return false, nil
		}
		if err != nil {
			return false, err
		}
		res = WithdrawResult{Accepted: true, Message: msgUnregistered, PromotedID: removed.PromotedID}
		return true, nil
	})
	if err != nil {
		return WithdrawResult{}, err
	}

	log.Info().
		Str("practice_id", practiceID).
		Str("participant_id", participant.ID).
		Bool("accepted", res.Accepted).
		Str("promoted_id", res.PromotedID).
		Msg("practice withdraw")
	if !res.Accepted {
		return res, nil
	}
	metricWithdrawalsTotal.Add(1)
	if res.PromotedID != "" {
		metricPromotionsTotal.Add(1)
		s.notifyPromotion(ctx, saved, res.PromotedID)
	}
	return res, nil
}

// notifyPromotion runs detached from the request: it outlives ctx and its
// failures are only logged.
func (s *Service) notifyPromotion(ctx context.Context, p store.Practice, participantID string) {
	ctx = context.WithoutCancel(ctx)
	s.detached.Add(1)
	go func() {
		defer s.detached.Done()
		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()

		promoted, err := s.store.GetParticipant(ctx, participantID)
		if err != nil {
			log.Warn().Err(err).
				Str("practice_id", p.ID).
				Str("participant_id", participantID).
				Msg("promotion notice: participant lookup failed")
			return
		}
		msg := notify.Promotion{Practice: practiceMessage(p), DiscordID: promoted.ExternalHandle}
		if err := s.notifier.WaitlistPromotion(ctx, msg); err != nil {
			log.Warn().Err(err).
				Str("practice_id", p.ID).
				Str("participant_id", participantID).
				Msg("promotion notice failed")
		}
	}()
}

// NotifyUnlock announces that signups for the practice are open. The
// roster is not touched.
func (s *Service) NotifyUnlock(ctx context.Context, practiceID string) error {
	p, err := s.loadPractice(ctx, practiceID)
	if err != nil {
		return err
	}
	return s.notifier.PracticeOpening(ctx, practiceMessage(p))
}

func practiceMessage(p store.Practice) notify.Practice {
	return notify.Practice{PracticeID: p.ID, StartTime: p.StartTime, EndTime: p.EndTime}
}

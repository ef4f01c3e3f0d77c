package practice

import (
	"context"
	"errors"

	"practice-roster/internal/roster"
	"practice-roster/internal/store"

	"github.com/rs/zerolog/log"
)

// CarryOverWaitlist seats last week's still-waitlisted participants on this
// practice's main rosters. Without a practice exactly one week earlier it
// is a no-op.
func (s *Service) CarryOverWaitlist(ctx context.Context, practiceID string) (TransferResult, error) {
	current, err := s.loadPractice(ctx, practiceID)
	if err != nil {
		return TransferResult{}, err
	}
	prior, err := store.GetPreviousPractice(ctx, s.store, current)
	if errors.Is(err, store.ErrNotFound) {
		log.Info().Str("practice_id", practiceID).Msg("carryover skipped: no prior practice")
		return TransferResult{PracticeID: practiceID, Skipped: true}, nil
	}
	if err != nil {
		return TransferResult{}, err
	}
	return s.Transfer(ctx, practiceID, prior)
}

// Transfer merges prior's waitlists into the main rosters of the practice
// with currentID, side by side. Both sides fit or nothing is written. A
// practice that was already carried over is left alone.
func (s *Service) Transfer(ctx context.Context, currentID string, prior store.Practice) (TransferResult, error) {
	res := TransferResult{PracticeID: currentID, PriorID: prior.ID}
	_, err := s.mutate(ctx, currentID, func(p *store.Practice) (bool, error) {
		if p.CarriedOver() {
			res.Skipped = true
			return false, nil
		}
		moved, err := p.Roster.CarryOver(prior.Roster)
		if err != nil {
			return false, err
		}
		now := s.now().UTC()
		p.CarriedOverAt = &now
		res.Left, res.Right, res.Skipped = moved.Left, moved.Right, false
		return true, nil
	})
	if err != nil {
		if errors.Is(err, roster.ErrCapacityMismatch) || errors.Is(err, roster.ErrCorruptRoster) {
			log.Error().Err(err).
				Bool("invariant", true).
				Str("practice_id", currentID).
				Str("prior_id", prior.ID).
				Msg("carryover aborted")
		}
		return TransferResult{}, err
	}

	if res.Skipped {
		log.Info().Str("practice_id", currentID).Msg("carryover already applied")
		return res, nil
	}
	metricCarryoverMovedTotal.Add(int64(len(res.Left) + len(res.Right)))
	log.Info().
		Str("practice_id", currentID).
		Str("prior_id", prior.ID).
		Strs("left", res.Left).
		Strs("right", res.Right).
		Msg("waitlist carried over")
	return res, nil
}

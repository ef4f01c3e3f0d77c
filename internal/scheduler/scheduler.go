// Package scheduler arms the per-practice one-shot timers: the waitlist
// carryover 30 seconds before unlock, and the unlock announcement. Timers
// live only in memory and are rebuilt from storage by Recover.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"practice-roster/internal/app/practice"
	"practice-roster/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultJobTimeout = 30 * time.Second

type Runner interface {
	CarryOverWaitlist(ctx context.Context, practiceID string) (practice.TransferResult, error)
	NotifyUnlock(ctx context.Context, practiceID string) error
}

type PracticeLister interface {
	ListFuturePractices(ctx context.Context, now time.Time) ([]store.Practice, error)
}

type entry struct {
	job   Job
	timer *time.Timer
}

type Scheduler struct {
	runner     Runner
	lister     PracticeLister
	now        func() time.Time
	jobTimeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	jobs    map[jobKey]*entry
	stopped bool
	running sync.WaitGroup
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

func New(runner Runner, lister PracticeLister, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:     runner,
		lister:     lister,
		now:        time.Now,
		jobTimeout: defaultJobTimeout,
		baseCtx:    ctx,
		cancel:     cancel,
		jobs:       map[jobKey]*entry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PracticeCreated arms the timers of a practice created at runtime.
func (s *Scheduler) PracticeCreated(p store.Practice) {
	s.Schedule(p)
}

// Schedule arms whichever of p's timers are still in the future and
// returns how many were armed. A timer already armed for the same fire
// time is left alone, so recovery and creation may both call this.
func (s *Scheduler) Schedule(p store.Practice) int {
	now := s.now()
	armed := 0
	for _, pj := range plan(p) {
		logger := log.With().
			Str("practice_id", p.ID).
			Str("job_kind", string(pj.kind)).
			Time("fire_at", pj.fireAt).
			Logger()
		if !pj.fireAt.After(now) {
			metricJobsSkippedTotal.Add(1)
			logger.Info().Msg("job skipped: fire time has passed")
			continue
		}
		job, ok := s.arm(p.ID, pj, pj.fireAt.Sub(now))
		if !ok {
			continue
		}
		armed++
		logger.Info().Str("job_id", job.ID).Msg("job armed")
	}
	return armed
}

func (s *Scheduler) arm(practiceID string, pj plannedJob, delay time.Duration) (Job, bool) {
	key := jobKey{practiceID: practiceID, kind: pj.kind}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return Job{}, false
	}
	if cur, ok := s.jobs[key]; ok {
		if cur.job.FireAt.Equal(pj.fireAt) {
			return cur.job, false
		}
		cur.timer.Stop()
		delete(s.jobs, key)
	}
	job := Job{
		ID:         uuid.NewString(),
		Kind:       pj.kind,
		PracticeID: practiceID,
		FireAt:     pj.fireAt,
	}
	e := &entry{job: job}
	e.timer = time.AfterFunc(delay, func() { s.fire(key, job.ID) })
	s.jobs[key] = e
	metricJobsArmedTotal.Add(1)
	metricJobsPending.Set(int64(len(s.jobs)))
	return job, true
}

// fire runs the job once. The entry is removed first so a timer that was
// replaced or stopped concurrently never runs twice.
func (s *Scheduler) fire(key jobKey, jobID string) {
	s.mu.Lock()
	cur, ok := s.jobs[key]
	if !ok || cur.job.ID != jobID || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.jobs, key)
	metricJobsPending.Set(int64(len(s.jobs)))
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	job := cur.job
	logger := log.With().
		Str("job_id", job.ID).
		Str("job_kind", string(job.Kind)).
		Str("practice_id", job.PracticeID).
		Logger()
	defer func() {
		if r := recover(); r != nil {
			metricJobsFailedTotal.Add(1)
			logger.Error().Interface("panic", r).Msg("job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.jobTimeout)
	defer cancel()
	metricJobsFiredTotal.Add(1)
	if err := s.run(ctx, job); err != nil {
		metricJobsFailedTotal.Add(1)
		logger.Error().Err(err).Msg("job failed")
		return
	}
	logger.Info().Msg("job done")
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	switch job.Kind {
	case KindCarryover:
		_, err := s.runner.CarryOverWaitlist(ctx, job.PracticeID)
		return err
	case KindUnlock:
		return s.runner.NotifyUnlock(ctx, job.PracticeID)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// Recover arms timers for every practice that has not started yet. It is
// the only way timers survive a restart.
func (s *Scheduler) Recover(ctx context.Context) (int, error) {
	now := s.now()
	practices, err := s.lister.ListFuturePractices(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list future practices: %w", err)
	}
	armed := 0
	for _, p := range practices {
		armed += s.Schedule(p)
	}
	log.Info().
		Int("practices", len(practices)).
		Int("armed", armed).
		Msg("scheduler recovered")
	return armed, nil
}

// Pending lists armed jobs ordered by fire time.
func (s *Scheduler) Pending() []Job {
	s.mu.Lock()
	out := make([]Job, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, e.job)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

// Stop disarms every pending timer, cancels running jobs and waits for
// them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for key, e := range s.jobs {
		e.timer.Stop()
		delete(s.jobs, key)
	}
	metricJobsPending.Set(0)
	s.mu.Unlock()
	s.cancel()
	s.running.Wait()
}

// Run blocks until ctx is done, then stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	<-ctx.Done()
	s.Stop()
	return nil
}

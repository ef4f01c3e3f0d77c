package importer

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"practice-roster/internal/app/participant"
	"practice-roster/internal/app/practice"
	"practice-roster/internal/config"
	"practice-roster/internal/store"

	"github.com/rs/zerolog/log"
)

var (
	metricFormRowsTotal       = expvar.NewInt("import_form_rows_total")
	metricPracticesCreated    = expvar.NewInt("import_practices_created_total")
	metricImportFailuresTotal = expvar.NewInt("import_failures_total")
)

type PracticeImporter interface {
	CreateFromImport(ctx context.Context, in practice.Parsed) (store.Practice, bool, error)
}

type FormRegistrar interface {
	RegisterFromForm(ctx context.Context, e participant.FormEntry) (store.Participant, bool, error)
}

// Syncer polls the configured feeds. Form rows are consumed once, tracked
// by a stored cursor; roster sheets are re-read every cycle and only
// produce a practice the first time their date is seen.
type Syncer struct {
	cfg          config.ImportConfig
	practices    PracticeImporter
	participants FormRegistrar
	cursors      store.CursorStore
}

func NewSyncer(cfg config.ImportConfig, practices PracticeImporter, participants FormRegistrar, cursors store.CursorStore) *Syncer {
	return &Syncer{cfg: cfg, practices: practices, participants: participants, cursors: cursors}
}

// SyncOnce runs the form feed and then the roster feed, so that roster
// names can match freshly registered participants.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	var errs []error
	if s.cfg.FormPath != "" {
		if _, err := s.SyncForm(ctx); err != nil {
			errs = append(errs, fmt.Errorf("form feed: %w", err))
		}
	}
	if s.cfg.RosterDir != "" {
		if _, err := s.SyncRosters(ctx); err != nil {
			errs = append(errs, fmt.Errorf("roster feed: %w", err))
		}
	}
	return errors.Join(errs...)
}

// SyncForm imports form rows past the stored cursor and returns how many
// entries were registered. The header row is never imported. Rows with bad
// data are logged and passed over; any other failure stops the sync and
// leaves the cursor on the failed row so the next cycle retries it.
func (s *Syncer) SyncForm(ctx context.Context) (int, error) {
	source := s.cfg.FormSource
	skip, err := s.cursors.GetImportCursor(ctx, source)
	if err != nil {
		return 0, err
	}
	if skip < 1 {
		skip = 1
	}
	entries, consumed, err := ReadFormEntries(ReadCSVFile(s.cfg.FormPath), skip)
	if err != nil {
		return 0, err
	}
	registered := 0
	var stopErr error
	for _, e := range entries {
		_, _, err := s.participants.RegisterFromForm(ctx, e.FormEntry)
		if err == nil {
			registered++
			continue
		}
		metricImportFailuresTotal.Add(1)
		if permanentFormError(err) {
			log.Warn().Err(err).Int("row", e.Row).Str("email", e.Email).Msg("form row not imported")
			continue
		}
		consumed = e.Row - 1
		stopErr = fmt.Errorf("form row %d: %w", e.Row, err)
		break
	}
	metricFormRowsTotal.Add(int64(registered))
	if consumed > skip {
		if err := s.cursors.SetImportCursor(ctx, source, consumed); err != nil {
			return registered, errors.Join(stopErr, err)
		}
		log.Info().
			Str("source", source).
			Int("from_row", skip).
			Int("to_row", consumed).
			Int("registered", registered).
			Msg("form rows imported")
	}
	return registered, stopErr
}

// permanentFormError reports failures that retrying the same row cannot fix.
func permanentFormError(err error) bool {
	return errors.Is(err, participant.ErrInvalidRequest) || errors.Is(err, store.ErrAlreadyExists)
}

// SyncRosters reads every *.csv sheet in the roster directory, in name
// order, and returns how many practices were created.
func (s *Syncer) SyncRosters(ctx context.Context) (int, error) {
	paths, err := filepath.Glob(filepath.Join(s.cfg.RosterDir, "*.csv"))
	if err != nil {
		return 0, err
	}
	sort.Strings(paths)
	created := 0
	var errs []error
	for _, path := range paths {
		parsed, err := ParsePracticeRows(ReadCSVFile(path))
		if err != nil {
			metricImportFailuresTotal.Add(1)
			log.Error().Err(err).Str("file", filepath.Base(path)).Msg("roster sheet not parsed")
			continue
		}
		p, isNew, err := s.practices.CreateFromImport(ctx, parsed)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		if isNew {
			created++
			metricPracticesCreated.Add(1)
			log.Info().Str("file", filepath.Base(path)).Str("practice_id", p.ID).Msg("roster sheet imported")
		}
	}
	return created, errors.Join(errs...)
}

// Run syncs on every interval until ctx is done. Failed cycles are logged
// and retried on the next tick.
func (s *Syncer) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Syncer) cycle(ctx context.Context) {
	if err := s.SyncOnce(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("import cycle failed")
	}
}

func (s *Syncer) Enabled() bool {
	return s.cfg.Enabled()
}

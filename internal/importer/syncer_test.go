package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"practice-roster/internal/app/participant"
	"practice-roster/internal/app/practice"
	"practice-roster/internal/config"
	"practice-roster/internal/notify"
	"practice-roster/internal/store"
)

type syncFixture struct {
	dir    string
	cfg    config.ImportConfig
	st     *store.Memory
	syncer *Syncer
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	dir := t.TempDir()
	rosters := filepath.Join(dir, "rosters")
	if err := os.Mkdir(rosters, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.ImportConfig{
		RosterDir:       rosters,
		FormPath:        filepath.Join(dir, "form.csv"),
		FormSource:      "registration-form",
		IntervalSeconds: 60,
	}
	st := store.NewMemory()
	now := func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	practices := practice.NewService(st, notify.Nop{}, practice.WithClock(now))
	participants := participant.NewService(st)
	return &syncFixture{
		dir:    dir,
		cfg:    cfg,
		st:     st,
		syncer: NewSyncer(cfg, practices, participants, st),
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSyncOnceImportsFormThenRosters(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	writeFile(t, f.cfg.FormPath, formCSV)
	writeFile(t, filepath.Join(f.cfg.RosterDir, "2026-03-07.csv"), sheetCSV)
	writeFile(t, filepath.Join(f.cfg.RosterDir, "broken.csv"), "not a date\n")

	if err := f.syncer.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	ann, err := f.st.GetParticipantByEmail(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("ann not registered: %v", err)
	}
	cursor, _ := f.st.GetImportCursor(ctx, f.cfg.FormSource)
	if cursor != 4 {
		t.Fatalf("cursor = %d, want 4", cursor)
	}

	p, err := f.st.GetPracticeByDate(ctx, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("practice not imported: %v", err)
	}
	if ids := p.Roster.Left.MainIDs(); len(ids) != 2 || ids[0] != ann.ID {
		t.Fatalf("left main = %v, want ann first", ids)
	}
	if p.Roster.Right.MainCount() != 2 || p.Roster.Left.WaitlistCount() != 1 {
		t.Fatalf("roster = %+v", p.Roster)
	}
	placeholder, err := f.st.GetParticipantByName(ctx, "Cat")
	if err != nil || placeholder.Email != "" {
		t.Fatalf("placeholder = %+v err=%v", placeholder, err)
	}
}

func TestSyncOnceIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	writeFile(t, f.cfg.FormPath, formCSV)
	writeFile(t, filepath.Join(f.cfg.RosterDir, "2026-03-07.csv"), sheetCSV)

	if err := f.syncer.SyncOnce(ctx); err != nil {
		t.Fatalf("first SyncOnce: %v", err)
	}
	first, _ := f.st.GetPracticeByDate(ctx, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))

	registered, err := f.syncer.SyncForm(ctx)
	if err != nil || registered != 0 {
		t.Fatalf("SyncForm = %d, %v; want 0", registered, err)
	}
	created, err := f.syncer.SyncRosters(ctx)
	if err != nil || created != 0 {
		t.Fatalf("SyncRosters = %d, %v; want 0", created, err)
	}
	again, _ := f.st.GetPracticeByDate(ctx, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	if again.ID != first.ID || again.Version != first.Version {
		t.Fatalf("practice changed: %+v -> %+v", first, again)
	}
}

func TestSyncFormPicksUpAppendedRows(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	writeFile(t, f.cfg.FormPath, formCSV)
	if _, err := f.syncer.SyncForm(ctx); err != nil {
		t.Fatalf("SyncForm: %v", err)
	}

	writeFile(t, f.cfg.FormPath, formCSV+"2026-01-04,cy@example.com,Cy Young,M3,,x,y,\n")
	registered, err := f.syncer.SyncForm(ctx)
	if err != nil {
		t.Fatalf("SyncForm: %v", err)
	}
	if registered != 1 {
		t.Fatalf("registered = %d, want 1", registered)
	}
	if _, err := f.st.GetParticipantByEmail(ctx, "cy@example.com"); err != nil {
		t.Fatalf("cy not registered: %v", err)
	}
	if cursor, _ := f.st.GetImportCursor(ctx, f.cfg.FormSource); cursor != 5 {
		t.Fatalf("cursor = %d, want 5", cursor)
	}
}

func TestSyncFormMissingFile(t *testing.T) {
	f := newSyncFixture(t)
	if _, err := f.syncer.SyncForm(context.Background()); err == nil {
		t.Fatal("expected error for missing form export")
	}
	if cursor, _ := f.st.GetImportCursor(context.Background(), f.cfg.FormSource); cursor != 0 {
		t.Fatalf("cursor moved to %d", cursor)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newSyncFixture(t)
	writeFile(t, f.cfg.FormPath, formCSV)
	f.syncer.cfg.IntervalSeconds = 1
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.syncer.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, err := f.st.GetParticipantByEmail(context.Background(), "ann@example.com"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Run did not sync on the first tick")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type flakyRegistrar struct {
	next     FormRegistrar
	failOnce map[string]bool
}

func (f *flakyRegistrar) RegisterFromForm(ctx context.Context, e participant.FormEntry) (store.Participant, bool, error) {
	if f.failOnce[e.Email] {
		delete(f.failOnce, e.Email)
		return store.Participant{}, false, errors.New("connection reset")
	}
	return f.next.RegisterFromForm(ctx, e)
}

func TestSyncFormHoldsCursorOnTransientFailure(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	writeFile(t, f.cfg.FormPath, formCSV)
	flaky := &flakyRegistrar{
		next:     participant.NewService(f.st),
		failOnce: map[string]bool{"bob@example.com": true},
	}
	syncer := NewSyncer(f.cfg, nil, flaky, f.st)

	registered, err := syncer.SyncForm(ctx)
	if err == nil {
		t.Fatal("expected the storage failure to be reported")
	}
	if registered != 1 {
		t.Fatalf("registered = %d, want 1", registered)
	}
	if cursor, _ := f.st.GetImportCursor(ctx, f.cfg.FormSource); cursor != 3 {
		t.Fatalf("cursor = %d, want 3 (before the failed row)", cursor)
	}

	registered, err = syncer.SyncForm(ctx)
	if err != nil || registered != 1 {
		t.Fatalf("retry SyncForm = %d, %v", registered, err)
	}
	if _, err := f.st.GetParticipantByEmail(ctx, "bob@example.com"); err != nil {
		t.Fatalf("bob not registered after retry: %v", err)
	}
	if cursor, _ := f.st.GetImportCursor(ctx, f.cfg.FormSource); cursor != 4 {
		t.Fatalf("cursor = %d, want 4", cursor)
	}
}

func TestSyncFormSkipsInvalidRows(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	writeFile(t, f.cfg.FormPath, formCSV+"2026-01-05,,No Email,M9,,x,y,Left\n")

	if _, err := f.syncer.SyncForm(ctx); err != nil {
		t.Fatalf("SyncForm: %v", err)
	}
	if cursor, _ := f.st.GetImportCursor(ctx, f.cfg.FormSource); cursor != 5 {
		t.Fatalf("cursor = %d, want 5", cursor)
	}
}

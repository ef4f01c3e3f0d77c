package practice

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"practice-roster/internal/notify"
	"practice-roster/internal/roster"
	"practice-roster/internal/store"
)

var baseNow = time.Date(2030, 3, 4, 12, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeNotifier struct {
	mu         sync.Mutex
	openings   []notify.Practice
	promotions []notify.Promotion
	err        error
}

func (n *fakeNotifier) PracticeOpening(_ context.Context, p notify.Practice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.openings = append(n.openings, p)
	return n.err
}

func (n *fakeNotifier) WaitlistPromotion(_ context.Context, m notify.Promotion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.promotions = append(n.promotions, m)
	return n.err
}

func (n *fakeNotifier) Promotions() []notify.Promotion {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Promotion(nil), n.promotions...)
}

func (n *fakeNotifier) Openings() []notify.Practice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Practice(nil), n.openings...)
}

type recordingObserver struct {
	mu      sync.Mutex
	created []string
}

func (o *recordingObserver) PracticeCreated(p store.Practice) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, p.ID)
}

type harness struct {
	svc      *Service
	st       *store.Memory
	clock    *clock
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{st: store.NewMemory(), clock: &clock{now: baseNow}, notifier: &fakeNotifier{}}
	h.svc = NewService(h.st, h.notifier, WithClock(h.clock.Now))
	return h
}

// unlockedPractice creates a practice starting 30 minutes from now, which is
// inside the signup window.
func (h *harness) unlockedPractice(t *testing.T) store.Practice {
	t.Helper()
	return h.practiceAt(t, h.clock.Now().Add(30*time.Minute))
}

func (h *harness) practiceAt(t *testing.T, start time.Time) store.Practice {
	t.Helper()
	p, err := h.svc.Create(context.Background(), start, start)
	if err != nil {
		t.Fatalf("create practice: %v", err)
	}
	return p
}

func (h *harness) participant(t *testing.T, handle string, side roster.Side) store.Participant {
	t.Helper()
	p := store.Participant{Name: "Player " + handle, ExternalHandle: handle, Side: side}
	if err := h.st.CreateParticipant(context.Background(), &p); err != nil {
		t.Fatalf("create participant: %v", err)
	}
	return p
}

func (h *harness) participants(t *testing.T, n int, prefix string) []store.Participant {
	t.Helper()
	out := make([]store.Participant, n)
	for i := range out {
		out[i] = h.participant(t, fmt.Sprintf("%s%02d", prefix, i), roster.SideUnspecified)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

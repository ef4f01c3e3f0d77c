package practice

import (
	"context"
	"errors"
	"testing"

	"practice-roster/internal/roster"
	"practice-roster/internal/store"
)

func seedPractice(t *testing.T, h *harness, p store.Practice, mutate func(r *roster.Roster)) store.Practice {
	t.Helper()
	cur, err := h.st.GetPractice(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	mutate(&cur.Roster)
	if err := h.st.UpdatePractice(context.Background(), &cur); err != nil {
		t.Fatalf("seed update: %v", err)
	}
	return cur
}

func TestCarryOverWaitlistScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	start := baseNow.Add(store.Week)
	prior := h.practiceAt(t, start.Add(-store.Week))
	current := h.practiceAt(t, start)

	seedPractice(t, h, prior, func(r *roster.Roster) {
		r.Left.Waitlist[0] = roster.Occupied("C")
		r.Left.Waitlist[1] = roster.Occupied("D")
		r.Right.Waitlist[2] = roster.Occupied("R")
	})
	seedPractice(t, h, current, func(r *roster.Roster) {
		r.Left.Main[0] = roster.Occupied("M")
		r.Left.Waitlist[0] = roster.Occupied("A")
		r.Left.Waitlist[1] = roster.Occupied("B")
	})

	res, err := h.svc.CarryOverWaitlist(ctx, current.ID)
	if err != nil {
		t.Fatalf("carryover: %v", err)
	}
	if res.Skipped || res.PriorID != prior.ID {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Left) != 2 || res.Left[0] != "C" || res.Left[1] != "D" {
		t.Fatalf("left moved = %v", res.Left)
	}

	got, _ := h.st.GetPractice(ctx, current.ID)
	left := got.Roster.Left
	if left.Main[0].ParticipantID() != "M" || left.Main[1].ParticipantID() != "C" || left.Main[2].ParticipantID() != "D" {
		t.Fatalf("left main = %v", left.MainIDs())
	}
	if left.Waitlist[0].ParticipantID() != "A" || left.Waitlist[1].ParticipantID() != "B" {
		t.Fatalf("own waitlist must be untouched, got %v", left.WaitlistIDs())
	}
	if got.Roster.Right.Main[0].ParticipantID() != "R" || got.Roster.Right.MainCount() != 1 {
		t.Fatalf("right main = %v", got.Roster.Right.MainIDs())
	}
	if got.CarriedOverAt == nil || !got.CarriedOverAt.Equal(baseNow) {
		t.Fatalf("carried over at = %v", got.CarriedOverAt)
	}
}

func TestCarryOverIsSideIsolated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	start := baseNow.Add(store.Week)
	prior := h.practiceAt(t, start.Add(-store.Week))
	current := h.practiceAt(t, start)
	seedPractice(t, h, prior, func(r *roster.Roster) {
		r.Left.Waitlist[0] = roster.Occupied("L1")
	})
	before := seedPractice(t, h, current, func(r *roster.Roster) {
		r.Right.Main[4] = roster.Occupied("R4")
		r.Right.Waitlist[1] = roster.Occupied("RW")
	})

	if _, err := h.svc.CarryOverWaitlist(ctx, current.ID); err != nil {
		t.Fatalf("carryover: %v", err)
	}
	got, _ := h.st.GetPractice(ctx, current.ID)
	for i := range got.Roster.Right.Main {
		if got.Roster.Right.Main[i] != before.Roster.Right.Main[i] {
			t.Fatalf("right main slot %d changed", i)
		}
	}
	for i := range got.Roster.Right.Waitlist {
		if got.Roster.Right.Waitlist[i] != before.Roster.Right.Waitlist[i] {
			t.Fatalf("right waitlist slot %d changed", i)
		}
	}
}

func TestCarryOverWithoutPriorIsNoop(t *testing.T) {
	h := newHarness(t)
	current := h.practiceAt(t, baseNow.Add(store.Week))
	res, err := h.svc.CarryOverWaitlist(context.Background(), current.ID)
	if err != nil {
		t.Fatalf("carryover: %v", err)
	}
	if !res.Skipped {
		t.Fatalf("expected skip, got %+v", res)
	}
	got, _ := h.st.GetPractice(context.Background(), current.ID)
	if got.Version != current.Version || got.CarriedOver() {
		t.Fatal("no-op carryover must not write")
	}
}

func TestCarryOverRunsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	start := baseNow.Add(store.Week)
	prior := h.practiceAt(t, start.Add(-store.Week))
	current := h.practiceAt(t, start)
	seedPractice(t, h, prior, func(r *roster.Roster) {
		r.Left.Waitlist[0] = roster.Occupied("C")
	})

	if _, err := h.svc.CarryOverWaitlist(ctx, current.ID); err != nil {
		t.Fatalf("first carryover: %v", err)
	}
	// C withdraws; a second firing must not seat C again.
	seedPractice(t, h, current, func(r *roster.Roster) {
		if _, err := r.Remove("C"); err != nil {
			t.Fatalf("remove: %v", err)
		}
	})
	res, err := h.svc.CarryOverWaitlist(ctx, current.ID)
	if err != nil {
		t.Fatalf("second carryover: %v", err)
	}
	if !res.Skipped {
		t.Fatalf("expected skip on repeat, got %+v", res)
	}
	got, _ := h.st.GetPractice(ctx, current.ID)
	if got.Roster.Contains("C") {
		t.Fatal("repeat carryover re-seated a withdrawn participant")
	}
}

func TestCarryOverCapacityMismatchWritesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	start := baseNow.Add(store.Week)
	prior := h.practiceAt(t, start.Add(-store.Week))
	current := h.practiceAt(t, start)
	seedPractice(t, h, prior, func(r *roster.Roster) {
		r.Left.Waitlist[0] = roster.Occupied("C")
		r.Right.Waitlist[0] = roster.Occupied("X")
		r.Right.Waitlist[1] = roster.Occupied("Y")
	})
	before := seedPractice(t, h, current, func(r *roster.Roster) {
		for i := 0; i < roster.MainCapacity-1; i++ {
			r.Right.Main[i] = roster.Occupied(string(rune('a' + i)))
		}
	})

	_, err := h.svc.CarryOverWaitlist(ctx, current.ID)
	if !errors.Is(err, roster.ErrCapacityMismatch) {
		t.Fatalf("expected ErrCapacityMismatch, got %v", err)
	}
	got, _ := h.st.GetPractice(ctx, current.ID)
	if got.Version != before.Version || got.Roster.Contains("C") || got.CarriedOver() {
		t.Fatal("failed carryover must not write either side")
	}
}

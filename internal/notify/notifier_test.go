package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

func okResponse() *http.Response {
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: make(http.Header)}
}

func TestWebhookPracticeOpeningPayload(t *testing.T) {
	var (
		gotURL string
		got    map[string]any
	)
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		defer r.Body.Close()
		gotURL = r.URL.String()
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(), nil
	})

	start := time.Date(2030, 3, 4, 18, 0, 0, 0, time.UTC)
	w := NewWebhook("http://sink.local/", client)
	err := w.PracticeOpening(context.Background(), Practice{PracticeID: "p1", StartTime: start, EndTime: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotURL != "http://sink.local/practice" {
		t.Fatalf("unexpected url %q", gotURL)
	}
	if got["practice_id"] != "p1" || got["start_time"] != "2030-03-04T18:00:00Z" || got["end_time"] != "2030-03-04T19:00:00Z" {
		t.Fatalf("unexpected payload: %#v", got)
	}
}

func TestWebhookPromotionPayload(t *testing.T) {
	var (
		gotURL string
		got    map[string]any
	)
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		defer r.Body.Close()
		gotURL = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(), nil
	})

	w := NewWebhook("http://sink.local", client)
	err := w.WaitlistPromotion(context.Background(), Promotion{
		Practice:  Practice{PracticeID: "p1"},
		DiscordID: "ada#1",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotURL != "/waitlisted-msg" {
		t.Fatalf("unexpected path %q", gotURL)
	}
	practice, ok := got["practice"].(map[string]any)
	if !ok || practice["practice_id"] != "p1" {
		t.Fatalf("unexpected practice: %#v", got["practice"])
	}
	if got["discord_id"] != "ada#1" {
		t.Fatalf("unexpected discord_id: %v", got["discord_id"])
	}
}

func TestWebhookPromotionWithoutHandleIsSkipped(t *testing.T) {
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request to %s", r.URL)
		return nil, nil
	})
	w := NewWebhook("http://sink.local", client)
	if err := w.WaitlistPromotion(context.Background(), Promotion{Practice: Practice{PracticeID: "p1"}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWebhookNon2xxIsError(t *testing.T) {
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(bytes.NewReader([]byte("down"))), Header: make(http.Header)}, nil
	})
	w := NewWebhook("http://sink.local", client)
	if err := w.PracticeOpening(context.Background(), Practice{PracticeID: "p1"}); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestWebhookTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		return nil, boom
	})
	w := NewWebhook("http://sink.local", client)
	if err := w.PracticeOpening(context.Background(), Practice{PracticeID: "p1"}); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestNewWithoutBaseURLIsNop(t *testing.T) {
	n := New("  ", time.Second)
	if _, ok := n.(Nop); !ok {
		t.Fatalf("expected Nop, got %T", n)
	}
	if err := n.PracticeOpening(context.Background(), Practice{}); err != nil {
		t.Fatalf("nop returned error: %v", err)
	}
}

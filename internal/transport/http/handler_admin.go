package httptransport

import (
	"context"
	"net/http"

	"practice-roster/internal/scheduler"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type JobLister interface {
	Pending() []scheduler.Job
}

type AdminHandlers struct {
	db   Pinger
	jobs JobLister
}

func NewAdminHandlers(db Pinger, jobs JobLister) *AdminHandlers {
	return &AdminHandlers{db: db, jobs: jobs}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.db.Ping(r.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

// Jobs lists armed timers, earliest first.
func (h *AdminHandlers) Jobs() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		items := h.jobs.Pending()
		if items == nil {
			items = []scheduler.Job{}
		}
		WriteJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	}
}

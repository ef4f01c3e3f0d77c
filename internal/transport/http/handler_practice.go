package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"practice-roster/internal/app/participant"
	"practice-roster/internal/app/practice"
	"practice-roster/internal/importer"
	"practice-roster/internal/roster"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type PracticeHandlers struct {
	svc          *practice.Service
	participants *participant.Service
}

func NewPracticeHandlers(svc *practice.Service, participants *participant.Service) *PracticeHandlers {
	return &PracticeHandlers{svc: svc, participants: participants}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", v)
}

// Create handles POST /practice. date may be omitted, in which case the
// start time's day is used.
func (h *PracticeHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Date      string `json:"date"`
			StartTime string `json:"start_time"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		start, err := parseTime(body.StartTime)
		if err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_start_time")
			return
		}
		var date time.Time
		if body.Date != "" {
			if date, err = parseTime(body.Date); err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_date")
				return
			}
		}
		p, err := h.svc.Create(r.Context(), date, start)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, p)
	}
}

func (h *PracticeHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.svc.Get(r.Context(), chi.URLParam(r, "practice_id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
	}
}

// RosterCSV renders the practice as a roster sheet, the same layout the
// roster import feed reads.
func (h *PracticeHandlers) RosterCSV() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.svc.Get(r.Context(), chi.URLParam(r, "practice_id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		names := make(map[string]string)
		for _, id := range rosterIDs(p.Roster) {
			found, err := h.participants.Get(r.Context(), id)
			if err != nil {
				names[id] = id
				continue
			}
			names[id] = found.Name
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.StartTime.Format("2006-01-02")+".csv"))
		if err := importer.WriteRosterSheet(w, p, func(id string) string { return names[id] }); err != nil {
			log.Error().Err(err).Str("practice_id", p.ID).Msg("roster export failed")
		}
	}
}

func rosterIDs(r roster.Roster) []string {
	var ids []string
	for _, l := range []roster.Lineup{r.Left, r.Right} {
		ids = append(ids, l.MainIDs()...)
		ids = append(ids, l.WaitlistIDs()...)
	}
	return ids
}

// Signup handles POST /practice/signup. Rejections such as a locked or
// full practice are 200 responses with success=false.
func (h *PracticeHandlers) Signup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSignupRequestsTotal.Add(1)
		var body struct {
			PracticeID string `json:"practice_id"`
			DiscordID  string `json:"discord_id"`
			Side       string `json:"side"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		side, err := roster.ParseSide(body.Side)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		res, err := h.svc.Signup(r.Context(), body.PracticeID, body.DiscordID, side)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

func (h *PracticeHandlers) Withdraw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricWithdrawRequestsTotal.Add(1)
		var body struct {
			PracticeID string `json:"practice_id"`
			DiscordID  string `json:"discord_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		res, err := h.svc.Withdraw(r.Context(), body.PracticeID, body.DiscordID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}


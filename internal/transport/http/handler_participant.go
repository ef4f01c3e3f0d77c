package httptransport

import (
	"encoding/json"
	"net/http"

	"practice-roster/internal/app/participant"
)

type ParticipantHandlers struct {
	svc *participant.Service
}

func NewParticipantHandlers(svc *participant.Service) *ParticipantHandlers {
	return &ParticipantHandlers{svc: svc}
}

// Register handles POST /register, linking a chat handle to the
// participant registered under email.
func (h *ParticipantHandlers) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricRegisterRequestsTotal.Add(1)
		var body struct {
			Email     string `json:"email"`
			DiscordID string `json:"discord_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		p, err := h.svc.RegisterContactHandle(r.Context(), body.Email, body.DiscordID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"success": true, "participant_id": p.ID})
	}
}

package httptransport

import (
	"errors"
	"net/http"

	"practice-roster/internal/app/participant"
	"practice-roster/internal/app/practice"
	"practice-roster/internal/roster"
	"practice-roster/internal/store"

	"github.com/rs/zerolog/log"
)

// writeServiceError maps engine and registration errors to a status and
// error code. Anything unrecognised is a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, practice.ErrInvalidRequest), errors.Is(err, participant.ErrInvalidRequest):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, roster.ErrInvalidSide):
		WriteHTTPError(w, http.StatusBadRequest, "invalid_side")
	case errors.Is(err, practice.ErrPracticeNotFound):
		WriteHTTPError(w, http.StatusNotFound, "practice_not_found")
	case errors.Is(err, practice.ErrParticipantNotFound), errors.Is(err, participant.ErrParticipantNotFound):
		WriteHTTPError(w, http.StatusNotFound, "participant_not_found")
	case errors.Is(err, practice.ErrParticipantHasNoIdentity):
		WriteHTTPError(w, http.StatusUnprocessableEntity, "participant_has_no_identity")
	case errors.Is(err, participant.ErrAlreadyRegistered):
		WriteHTTPError(w, http.StatusConflict, "already_registered")
	case errors.Is(err, participant.ErrHandleTaken):
		WriteHTTPError(w, http.StatusConflict, "handle_taken")
	case errors.Is(err, store.ErrAlreadyExists):
		WriteHTTPError(w, http.StatusConflict, "already_exists")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

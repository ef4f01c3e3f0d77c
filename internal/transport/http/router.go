package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"practice-roster/internal/app/participant"
	"practice-roster/internal/app/practice"
	"practice-roster/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	DB           Pinger
	Practices    *practice.Service
	Participants *participant.Service
	Jobs         JobLister
}

func NewRouter(deps Deps, cfg config.ServerConfig) *chi.Mux {
	practiceHandlers := NewPracticeHandlers(deps.Practices, deps.Participants)
	participantHandlers := NewParticipantHandlers(deps.Participants)
	adminHandlers := NewAdminHandlers(deps.DB, deps.Jobs)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())

	r.Group(func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/register", participantHandlers.Register())
		r.Post("/practice/signup", practiceHandlers.Signup())
		r.Delete("/practice/unregister", practiceHandlers.Withdraw())
		r.Get("/practice/{practice_id}", practiceHandlers.Get())
		r.Get("/practice/{practice_id}/roster.csv", practiceHandlers.RosterCSV())

		r.With(AdminAuthMiddleware(cfg.AdminAPIKey)).Post("/practice", practiceHandlers.Create())
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
		r.Get("/jobs", adminHandlers.Jobs())
		r.Route("/debug", func(r chi.Router) {
			r.Use(BodyCaptureMiddleware(4096))
			r.Get("/vars", expvar.Handler().ServeHTTP)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteHTTPError(w, http.StatusNotFound, "not_found")
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}

// Package httpapi exposes the meeting-point engine over HTTP: POST
// /v1/meet, POST /v1/heatmap, GET /v1/stations, and a Prometheus
// /metrics endpoint.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"meetway.dev/meetway/meet"
	"meetway.dev/meetway/metrics"
	"meetway.dev/meetway/schedule"
)

// Server binds httpapi's handlers to a live schedule index and search
// constants. Index is read-only after Build, so a Server is safe for
// concurrent use across requests (spec.md §5).
type Server struct {
	Index     *schedule.Index
	Constants meet.Constants
	Origins   []string
}

// Router builds the chi router: logging/recovery/timeout middleware
// (teacher idiom), CORS, Prometheus instrumentation, then the routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := s.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/meet", metrics.Middleware("/v1/meet", http.HandlerFunc(s.handleMeet)))
		r.Method(http.MethodPost, "/heatmap", metrics.Middleware("/v1/heatmap", http.HandlerFunc(s.handleHeatmap)))
		r.Method(http.MethodGet, "/stations", metrics.Middleware("/v1/stations", http.HandlerFunc(s.handleStationSearch)))
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"examboard-api/internal/broker"
	"examboard-api/internal/config"
	"examboard-api/internal/ingest"
	"examboard-api/internal/roster"
	"examboard-api/internal/stream"
	"examboard-api/internal/telemetry"
)

func Router(cfg *config.Config, b *broker.Broker, rosterH *roster.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(Recoverer, RequestID, SecureHeaders, Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "ngrok-skip-browser-warning"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })

	r.Group(func(g chi.Router) {
		g.Use(BasicAuth(cfg.MetricsUser, cfg.MetricsPass))
		g.Method("GET", "/metrics", promhttp.Handler())
	})

	r.Get("/api/stream", stream.SSE(b))
	r.Get("/api/ws", WS(cfg.AllowedOrigins, b))

	r.Group(func(g chi.Router) {
		g.Use(BodyLimit(4<<20), Rate(120, time.Minute))
		g.Post("/api/process-html", ingest.Handler(b))
	})
	r.Options("/api/process-html", preflight)

	r.Group(func(g chi.Router) {
		g.Use(BodyLimit(64<<10), Rate(60, time.Minute))
		g.Post("/api/telemetry", telemetry.Handle)
	})

	r.Route("/api/sheets", func(g chi.Router) {
		g.Get("/", rosterH.List)
		g.Get("/{id}", rosterH.Sheet)
		g.Get("/{id}/seating", rosterH.Seating)
	})

	return r
}

// preflight answers bare OPTIONS probes from the scraper script; actual
// CORS preflights carry Access-Control-Request-Method and are handled by
// the cors middleware before reaching the router.
func preflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, ngrok-skip-browser-warning")
	w.WriteHeader(http.StatusNoContent)
}

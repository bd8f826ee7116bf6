package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"memorycore/internal/orchestrator"
)

// Router builds the process's HTTP surface: the §6 turn endpoint plus
// health/readiness probes, wrapped in the ambient middleware stack.
// Grounded on the teacher's interfaces/http/rest.Router (chi + cors +
// zap-backed logging), generalized past its node/graph/edge REST
// resources to this core's single turn endpoint.
type Router struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewRouter builds a Router around a ready Orchestrator.
func NewRouter(orch *orchestrator.Orchestrator, logger *zap.Logger) *Router {
	return &Router{orch: orch, logger: logger}
}

// Setup assembles the chi mux. Request ID, recovery, and access logging
// apply to every route; the timeout and circuit breaker only wrap the
// turn endpoint, since health checks must answer even when the backend
// the circuit breaker watches is unhealthy.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Recovery(rt.logger))
	r.Use(RequestLogging(rt.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthCheck)
	r.Get("/readyz", rt.readinessCheck)

	turnHandler := NewTurnHandler(rt.orch)
	r.Route("/v1", func(v1 chi.Router) {
		v1.With(
			Timeout(rt.logger, 30*time.Second),
			CircuitBreaker(rt.logger, DefaultCircuitBreakerConfig("turns")),
		).Post("/turns", turnHandler.ServeHTTP)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessCheck reports ready unconditionally; the turn endpoint's own
// circuit breaker is what signals backend trouble to callers.
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	Success(w, http.StatusOK, map[string]string{"status": "ready"})
}

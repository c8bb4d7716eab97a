package api

import (
	"context"
	"net/http"
	"time"
	"trip-planner-service/internal/api/handlers"
)

// RouterConfig holds the dependencies and knobs of the HTTP adapter.
type RouterConfig struct {
	Planner         handlers.ItineraryPlanner
	Solver          handlers.RouteSolver
	DefaultDepartAt string
	RequestTimeout  time.Duration
	// Named readiness checks reported by /health, e.g. a database ping.
	HealthChecks map[string]func(ctx context.Context) error
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	departAt := cfg.DefaultDepartAt
	if departAt == "" {
		departAt = "09:00"
	}

	itineraries := &handlers.ItineraryHandler{Planner: cfg.Planner, DefaultDepartAt: departAt}
	routes := &handlers.RouteHandler{Solver: cfg.Solver}
	health := &handlers.HealthHandler{Checks: cfg.HealthChecks}

	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("/itineraries", itineraries.Collection)
	mux.HandleFunc("/itineraries/{key}", itineraries.Get)
	mux.HandleFunc("/routes/solve", routes.Solve)

	return requestIDMiddleware(loggingMiddleware(timeoutMiddleware(cfg.RequestTimeout, mux)))
}

package api

import (
	"net/http"
	"time"

	"firefight/internal/game"
	"firefight/internal/render"
	"firefight/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the authority methods used by the HTTP API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// Snapshot returns the latest lock-free immutable snapshot
	Snapshot() *game.CombatSnapshot
	// Items returns the runtime item catalog
	Items() *game.ItemCatalog
	// SpawnTarget adds a training target
	SpawnTarget(opts game.TargetOptions) (game.EntityID, error)
	// RemoveTarget deletes a training target
	RemoveTarget(id game.EntityID) error
	// EventLog returns the combat audit trail
	EventLog() *game.EventLog
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: engine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the authority (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, only local origins are allowed.
	CORSOrigins []string

	// Renderer draws /api/debug/view.png. If nil, a default renderer is used.
	Renderer *render.Renderer

	// WebSocket serves /ws. If nil, the route is not mounted.
	WebSocket http.Handler

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine   EngineInterface
	renderer *render.Renderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function opens no listeners and does not start the engine.
// The only goroutine it may start is the rate limiter's cleanup loop when no
// RateLimiter is injected, so tests should pass one and Stop it.
//
// Example:
//
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.NewRenderer(render.DefaultOptions())
	}
	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: renderer,
	}

	r.Route("/api", func(r chi.Router) {
		// Combat state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/weapons", h.handleGetWeapons)
		r.Get("/events", h.handleGetEvents)

		// Training targets
		r.Post("/targets", h.handleSpawnTarget)
		r.Delete("/targets/{id}", h.handleRemoveTarget)

		// Debug view
		r.Get("/debug/view.png", h.handleDebugView)
	})

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket)
	}

	return r
}

// metricsMiddleware records request latency keyed by route pattern, never by
// raw path, so label cardinality stays bounded.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		telemetry.RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

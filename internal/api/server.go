package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"firefight/internal/game"

	"github.com/go-chi/chi/v5"
)

// AuthorityEngine is everything the server needs from the authority.
type AuthorityEngine interface {
	EngineInterface
	PeerEngine
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	PeerQueueSize int      // Outbound frames buffered per websocket
	CORSOrigins   []string // nil = local origins only
	RateLimit     *RateLimitConfig
}

// Server is the HTTP API server with the replica websocket endpoint.
type Server struct {
	engine      AuthorityEngine
	router      *chi.Mux
	hub         *PeerHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server.
//
// IMPORTANT: No listener is opened until Start() is called.
// For testing HTTP endpoints without a listener, use Router() with httptest.
func NewServer(engine AuthorityEngine, opts ServerOptions) *Server {
	rl := DefaultRateLimitConfig
	if opts.RateLimit != nil {
		rl = *opts.RateLimit
	}
	s := &Server{
		engine:      engine,
		hub:         NewPeerHub(engine, opts.PeerQueueSize),
		rateLimiter: NewIPRateLimiter(rl),
	}
	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		RateLimiter: s.rateLimiter,
		CORSOrigins: opts.CORSOrigins,
		WebSocket:   s.hub,
	})
	return s
}

// Start serves HTTP on addr until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🔫 Replicas connect to ws://localhost%s/ws", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(engine, api.ServerOptions{})
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the websocket peer hub.
func (s *Server) Hub() *PeerHub { return s.hub }

// Shutdown stops accepting requests, disconnects every peer and stops the
// rate limiter. The engine is left running; its owner stops it.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.hub.Close()
	s.rateLimiter.Stop()
	return err
}

var _ AuthorityEngine = (*game.Engine)(nil)

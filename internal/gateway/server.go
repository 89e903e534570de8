// Package gateway exposes the router over HTTP: the unified chat
// endpoint, per-capability sub-routes, health, and a WebSocket
// observer feed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/domain"
	"github.com/lendfront/unirouter/internal/health"
	"github.com/lendfront/unirouter/internal/logging"
	"github.com/lendfront/unirouter/internal/router"
	"github.com/lendfront/unirouter/internal/session"
)

// Server is the unirouter HTTP server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	router   *router.Router
	monitor  *health.Monitor
	sessions session.Store
	hub      *Hub

	startedAt  time.Time
	httpServer *http.Server
}

// New creates the gateway server.
func New(cfg config.Config, rt *router.Router, monitor *health.Monitor, sessions session.Store, log *logging.Logger) *Server {
	gwLog := log.Sub("gateway")
	return &Server{
		cfg:      cfg,
		log:      gwLog,
		router:   rt,
		monitor:  monitor,
		sessions: sessions,
		hub:      NewHub(monitor, cfg.Server.AllowedOrigins, gwLog),
	}
}

// Handler builds the full route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Server.AllowedOrigins)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins serving HTTP. It blocks until the context is cancelled
// or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // provider calls can run long under retries
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Msg("gateway server ready")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.hub.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// capabilityPrefixes maps each remote backend to its route prefix. The
// scope-guard deflector is local and has no routes of its own.
var capabilityPrefixes = []struct {
	prefix string
	label  domain.Backend
}{
	{"lf-assist", domain.BackendKnowledge},
	{"doc-assist", domain.BackendDocument},
	{"db-assist", domain.BackendDatabase},
	{"viz-assist", domain.BackendVisualization},
}

// registerRoutes sets up the route table.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/clear/{session_id}", s.handleClear)
	mux.HandleFunc("GET /ws", s.hub.handleWS)

	for _, route := range capabilityPrefixes {
		if route.label == domain.BackendDocument {
			mux.HandleFunc("POST /"+route.prefix+"/ask", s.handleDirectDocument)
		} else {
			mux.HandleFunc("POST /"+route.prefix+"/chat", s.handleDirectChat(route.label))
		}
		mux.HandleFunc("POST /"+route.prefix+"/clear/{session_id}", s.handleClear)
		mux.HandleFunc("GET /"+route.prefix+"/sessions", s.handleSessions)
		mux.HandleFunc("GET /"+route.prefix+"/history/{session_id}", s.handleHistory)
	}

	mux.HandleFunc("/", handleNotFound)
}

// Package gateway exposes the engine over HTTP: window submission and call
// finalization as synchronous JSON endpoints, plus a WebSocket feed that
// streams processed windows to live dashboards.
package gateway

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/engine"
	"github.com/callsight/callsight/internal/logging"
	"github.com/callsight/callsight/internal/version"
)

// Processor is the engine surface the gateway exposes.
type Processor interface {
	ProcessWindow(ctx context.Context, req engine.WindowRequest) (*engine.WindowResult, error)
	FinalizeCall(ctx context.Context, callID, clientEmail string) (*domain.AnalyticsRecord, error)
}

// Server is the Callsight HTTP + WebSocket server.
type Server struct {
	cfg     config.Config
	engine  Processor
	log     *logging.Logger
	feed    *Feed
	version string

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a gateway server.
func New(cfg config.Config, eng Processor, log *logging.Logger) *Server {
	allowedOrigins := cfg.Gateway.AllowedOrigins
	return &Server{
		cfg:     cfg,
		engine:  eng,
		log:     log.Sub("gateway"),
		feed:    NewFeed(log.Sub("feed")),
		version: version.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(allowedOrigins),
		},
	}
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin
// headers. If no origins are configured, only same-origin (no Origin header)
// or non-browser clients are allowed.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Same-origin or non-browser clients
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
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

// routes builds the HTTP handler with the full middleware chain. Split out
// from Start so tests can drive it with httptest.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleFeed)
	mux.Handle("POST /v1/windows", s.requireAuth(http.HandlerFunc(s.handleProcessWindow)))
	mux.Handle("POST /v1/calls/finalize", s.requireAuth(http.HandlerFunc(s.handleFinalizeCall)))

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)

	return withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)
}

// Start begins listening for HTTP and WebSocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // window processing blocks on the reasoning service
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
		Str("bind", s.cfg.Gateway.Bind).
		Bool("auth", s.cfg.Gateway.Auth.Token != "").
		Msg("gateway server ready")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.feed.CloseAll()
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

// requireAuth enforces the bearer token when one is configured.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			s.log.Warn().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("unauthorized request")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	token := s.cfg.Gateway.Auth.Token
	if token == "" {
		return true
	}
	if presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && safeEqual(presented, token) {
		return true
	}
	// WebSocket clients cannot set headers from browsers; accept the token
	// as a query parameter there.
	return safeEqual(r.URL.Query().Get("token"), token)
}

// safeEqual performs a constant-time string comparison to prevent timing attacks.
// It avoids early-return on length mismatch to prevent leaking secret length via timing.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	// ConstantTimeCompare returns 0 for different lengths, but we check
	// length separately with ConstantTimeEq to avoid leaking length info.
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}

// handleFeed upgrades the connection and registers it with the feed.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("new feed connection")
	s.feed.Add(conn)
}

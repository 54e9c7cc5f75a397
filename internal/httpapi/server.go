// Package httpapi exposes the provisioning conversation over a small JSON
// REST API, one session per X-Session-Id header.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/provisio/internal/orchestrator"
	"github.com/HendryAvila/provisio/internal/telemetry"
)

// SessionHeader carries the session key. Requests without it use the
// default session.
const SessionHeader = "X-Session-Id"

const (
	defaultTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 64 << 10
)

// Server holds the dependencies of the HTTP API.
type Server struct {
	orc           *orchestrator.Orchestrator
	mcpHandler    http.Handler // optional MCP streamable HTTP endpoint at /mcp
	limiter       *SessionLimiter
	sweepInterval time.Duration
	startTime     time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimit limits each session to rps requests per second with the
// given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) { s.limiter = NewSessionLimiter(rps, burst) }
}

// WithMCPHandler mounts an MCP handler at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(s *Server) { s.mcpHandler = h }
}

// WithSweepInterval sets how often idle sessions are evicted while the
// server runs. Only used when the session store has an idle TTL.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Server) { s.sweepInterval = d }
}

// New builds a Server around orc.
func New(orc *orchestrator.Orchestrator, opts ...Option) *Server {
	s := &Server{
		orc:       orc,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the chi router with all middleware and routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.Middleware())
	r.Use(accessLog)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(defaultTimeout))
		r.Use(s.limiter.Middleware)

		r.Get("/mcp/allowed-tools", s.handleAllowedTools)
		r.Post("/mcp/ai", s.handleAI)
		r.Get("/mcp/state", s.handleState)
	})

	if s.mcpHandler != nil {
		r.Handle("/mcp", s.mcpHandler)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Idle sessions are swept in the background when the session
// store has a TTL.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("http api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		log.Info().Msg("http api stopped")
		return nil
	})
	g.Go(func() error {
		s.orc.Sessions().RunSweeper(gctx, s.sweepEvery())
		return nil
	})
	return g.Wait()
}

// sweepEvery defaults to a quarter of the idle TTL, at least one second.
func (s *Server) sweepEvery() time.Duration {
	if s.sweepInterval > 0 {
		return s.sweepInterval
	}
	d := s.orc.Sessions().IdleTTL() / 4
	if d < time.Second {
		d = time.Second
	}
	return d
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Func(telemetry.LogTraceFields(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

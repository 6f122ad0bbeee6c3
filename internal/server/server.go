package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/incapscan/internal/metrics"
	"github.com/nao1215/incapscan/internal/model"
)

// Defaults for the HTTP server.
const (
	DefaultMaxUploadSize     = 20 * 1024 * 1024
	DefaultAnalysisTimeout   = 2 * time.Minute
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
)

// Analyzer runs the forensic analysis of a staged document.
type Analyzer interface {
	Analyze(ctx context.Context, path string) *model.ForensicReport
}

// AuditRecorder stores a digest-only record of each analysis.
type AuditRecorder interface {
	SaveAnalysis(ctx context.Context, report *model.ForensicReport) (int64, error)
}

// Server is the HTTP boundary of the analyzer.
type Server struct {
	analyzer        Analyzer
	recorder        AuditRecorder
	metrics         *metrics.Metrics
	gatherer        prometheus.Gatherer
	logger          *slog.Logger
	maxUploadSize   int64
	analysisTimeout time.Duration
	shutdownTimeout time.Duration
	router          chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records HTTP metrics in m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithAuditRecorder enables the audit ledger.
func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithMaxUploadSize limits the uploaded document size in bytes.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadSize = n
		}
	}
}

// WithAnalysisTimeout bounds one analysis.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.analysisTimeout = d
		}
	}
}

// WithShutdownTimeout bounds the graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New creates a Server for analyzer.
func New(analyzer Analyzer, opts ...Option) *Server {
	s := &Server{
		analyzer:        analyzer,
		maxUploadSize:   DefaultMaxUploadSize,
		analysisTimeout: DefaultAnalysisTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleHealth)
	r.Post("/api/v1/analyze", s.handleAnalyze)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	return r
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

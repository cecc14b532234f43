package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campus_router/pkg/config"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

// NewServer creates an HTTP server with all routes and middleware.
func NewServer(cfg config.ServerConfig, handlers *Handlers, log *zap.Logger) *http.Server {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	// Concurrency limiter.
	sem := make(chan struct{}, cfg.MaxConcurrent)
	mw := func(h http.HandlerFunc) http.HandlerFunc {
		return withMiddleware(h, sem, cfg, log)
	}

	// Routes.
	mux.HandleFunc("POST /api/v1/route", mw(handlers.HandleRoute))
	mux.HandleFunc("GET /api/v1/nearest", mw(handlers.HandleNearest))
	mux.HandleFunc("GET /api/v1/buildings", mw(handlers.HandleBuildings))
	mux.HandleFunc("GET /api/v1/health", mw(handlers.HandleHealth))
	mux.HandleFunc("GET /api/v1/stats", mw(handlers.HandleStats))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until shutdown signal.
func ListenAndServe(srv *http.Server, shutdownTimeout time.Duration, log *zap.Logger) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.Stringer("signal", sig))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// withMiddleware wraps a handler with request ids, logging, recovery,
// security headers, and concurrency limiting.
func withMiddleware(handler http.HandlerFunc, sem chan struct{}, cfg config.ServerConfig, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Request id, reusing the caller's when it sends a valid one.
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		reqLog := log.With(zap.String("request_id", id))

		// Security headers.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")

		// CORS.
		if cfg.CORSOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
		}

		// Concurrency limiter.
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			w.Header().Set("Retry-After", "1")
			http.Error(w, `{"error":"service_unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Recovery.
		defer func() {
			if rec := recover(); rec != nil {
				reqLog.Error("panic", zap.Any("panic", rec))
				http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
			}
		}()

		// Request timeout.
		timeout := cfg.RequestTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		start := time.Now()
		handler(sr, r.WithContext(ctx))
		reqLog.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sr.status),
			zap.Duration("latency", time.Since(start)))
	}
}

// Package server exposes the single-diode model over a small JSON HTTP API:
// curve summaries and I-V sweeps for devices from the configured library or
// for caller-supplied equation parameters.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/solarmetrics/pvmodel/pkg/config"
)

// Server is the HTTP API controller.
type Server struct {
	httpServer http.Server
	library    *config.Library
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// New creates a new API server listening on addr, serving devices from the
// given library.
func New(addr string, library *config.Library, logger *zap.SugaredLogger) (*Server, error) {
	if library == nil {
		return nil, fmt.Errorf("no device library provided")
	}

	s := &Server{
		library: library,
		logger:  logger,
	}
	s.handlers = NewHandlers(s)

	s.httpServer.Addr = addr
	s.httpServer.Handler = s.setupRouter()
	s.httpServer.ReadHeaderTimeout = 10 * time.Second

	return s, nil
}

// Start runs the server until ctx is cancelled, then shuts it down
// gracefully. The WaitGroup is released once the listener has exited.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) {
	s.logger.Infof("starting API server on %v", s.httpServer.Addr)
	wg.Add(1)

	go func() {
		defer wg.Done()
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Errorf("API server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down the API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Errorf("API server shutdown: %v", err)
		}
	}()
}

// setupRouter configures the HTTP router with all endpoints.
func (s *Server) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestLogMiddleware)

	router.HandleFunc("/healthz", s.handlers.GetHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/devices", s.handlers.GetDevices).Methods(http.MethodGet)
	router.HandleFunc("/api/curve", s.handlers.PostCurve).Methods(http.MethodPost)
	router.HandleFunc("/api/iv", s.handlers.PostIV).Methods(http.MethodPost)

	return router
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogMiddleware tags each request with an ID and logs its outcome.
func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Infow("request",
			"id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

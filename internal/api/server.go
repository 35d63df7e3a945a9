// Package api exposes the query and trigger surface over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
)

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	cfg      config.APIConfig
	logger   *logrus.Logger
}

// NewServer creates a new API server instance
func NewServer(cfg config.APIConfig, handlers *Handlers, logger *logrus.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
		cfg:      cfg,
		logger:   logger,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/opportunities", s.handlers.ListOpportunities).Methods("GET")
	api.HandleFunc("/parlays", s.handlers.ListParlays).Methods("GET")
	api.HandleFunc("/parlays/{id}", s.handlers.GetParlay).Methods("GET")
	api.HandleFunc("/performance", s.handlers.GetPerformance).Methods("GET")
	api.HandleFunc("/sports", s.handlers.ListSports).Methods("GET")

	api.HandleFunc("/runs/update", s.handlers.TriggerUpdate).Methods("POST")
	api.HandleFunc("/runs/settlement", s.handlers.TriggerSettlement).Methods("POST")

	if s.cfg.StreamEnabled {
		s.router.HandleFunc("/ws/parlays", s.handlers.StreamParlays)
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// Start begins serving in the background until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown drains in-flight requests within the configured grace period
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(s.cfg.ShutdownSeconds)*time.Second)
	defer cancel()

	s.logger.Info("API server shutting down")
	return s.server.Shutdown(ctx)
}

type contextKey string

const requestIDKey contextKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.WithFields(logrus.Fields{
			"request_id": r.Context().Value(requestIDKey),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     wrapper.status,
			"duration":   time.Since(start).String(),
		}).Info("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

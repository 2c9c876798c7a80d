package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/mattjoyce/niftyapes-action/internal/action"
	"github.com/mattjoyce/niftyapes-action/internal/interaction"
	"github.com/mattjoyce/niftyapes-action/internal/log"
	"github.com/mattjoyce/niftyapes-action/internal/signature"
)

// Server represents the action HTTP server.
type Server struct {
	config    Config
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time

	endpoints []*endpoint
	cors      *cors.Cors
}

type endpoint struct {
	action     *action.Action
	controller *action.Controller
	metadata   *metadataDocument
}

// New creates a server for every action in registry, all authenticated by
// verifier. It fails if an action's metadata cannot be encoded.
func New(config Config, registry *action.Registry, verifier *signature.Verifier, logger *slog.Logger) (*Server, error) {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	origins := config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		config:    config,
		logger:    logger,
		startedAt: time.Now(),
		cors: cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "If-None-Match"},
			ExposedHeaders: []string{"ETag"},
		}),
	}

	for _, a := range registry.All() {
		doc, err := newMetadataDocument(a.Metadata())
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", a.Name(), err)
		}
		s.endpoints = append(s.endpoints, &endpoint{
			action:     a,
			controller: action.NewController(a, verifier, logger),
			metadata:   doc,
		})
	}

	return s, nil
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("action server starting", "listen", s.config.Listen, "actions", len(s.endpoints))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("action server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("action server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("action server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/actions", s.handleActions)

	for _, ep := range s.endpoints {
		r.Route(ep.action.BasePath(), func(r chi.Router) {
			r.Post("/interactions", s.handleInteraction(ep))
			r.With(s.cors.Handler).Get("/metadata", ep.metadata.ServeHTTP)
			r.With(s.cors.Handler).Options("/metadata", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})
	}

	return r
}

// loggingMiddleware logs HTTP requests (excludes bodies and signatures).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleInteraction(ep *endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := log.WithRequest(s.logger, middleware.GetReqID(ctx))

		// Missing credentials are a 400 whatever the body size.
		env := ep.controller.Verifier().ReadEnvelope(r.Header)
		var body []byte
		if env.Complete() {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
			if err != nil {
				s.respondError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			if int64(len(body)) > s.config.MaxBodySize {
				s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
				return
			}
		}

		out := ep.controller.Process(ctx, body, env)

		logger.Debug("interaction processed",
			"action", ep.action.Name(),
			"command", out.Command,
			"status", out.Status,
			"state", out.State().String(),
		)

		if out.Response == nil {
			s.respondError(w, out.Status, rejectionMessage(out.Err))
			return
		}
		s.respondJSON(w, out.Status, out.Response)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Actions:       len(s.endpoints),
	})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	out := make([]ActionSummary, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		out = append(out, ActionSummary{Name: ep.action.Name(), BasePath: ep.action.BasePath()})
	}
	s.respondJSON(w, http.StatusOK, out)
}

// rejectionMessage maps a transport-level rejection to a generic message.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, signature.ErrMissingCredential):
		return "missing signature"
	case errors.Is(err, signature.ErrInvalidSignature):
		return "invalid signature"
	case errors.Is(err, interaction.ErrMalformedRequest):
		return "malformed request"
	default:
		return "bad request"
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}

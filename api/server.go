// Package api provides the HTTP API for the trip planner.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"trip-planner/config"
	"trip-planner/db"
	"trip-planner/decision/geocode"
	"trip-planner/decision/planner"
	planerrors "trip-planner/pkg/errors"
	"trip-planner/pkg/platform"
)

// Version is reported by /health and /info.
const Version = "1.0.0"

// Planner produces a plan for a request.
type Planner interface {
	Plan(ctx context.Context, req planner.TripRequest) (*planner.PlanResult, error)
}

// Info describes the running configuration on /info.
type Info struct {
	Currency         string `json:"currency"`
	OnlineGeocoding  bool   `json:"online_geocoding"`
	NarrativeEnabled bool   `json:"narrative_enabled"`
	NarrativeModel   string `json:"narrative_model,omitempty"`
	RateCardSource   string `json:"rate_card_source"`
	RateCardVersion  string `json:"rate_card_version,omitempty"`
}

// Deps are the server's collaborators. Store is optional.
type Deps struct {
	Planner  Planner
	Geocoder geocode.Geocoder
	Store    db.Store
	Info     Info
	Logger   zerolog.Logger
}

// Server is the HTTP API server
type Server struct {
	httpServer *http.Server
	router     chi.Router
	deps       Deps
	config     config.ServerConfig
	metrics    *metrics
	logger     zerolog.Logger
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		deps:    deps,
		config:  cfg,
		metrics: newMetrics(),
		logger:  deps.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/info", s.handleInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(platform.APIKeyMiddleware(s.config.APIKey))
		r.Post("/plan", s.handlePlan)
		r.Get("/geocode", s.handleGeocode)
	})
	return r
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info().Int("port", s.config.Port).Msg("trip planner API server starting")
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts server with graceful shutdown handling
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.logger.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "rate card store not ready")
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, struct {
		Version string `json:"version"`
		Info
	}{Version: Version, Info: s.deps.Info})
}

// =============================================================================
// PLAN ENDPOINT
// =============================================================================

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestSize())

	var req PlanRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.metrics.observeError(planerrors.ErrCodeInvalidRequest)
		s.planError(w, r, planerrors.NewInvalidRequestError("body", fmt.Sprintf("invalid request: %v", err)))
		return
	}

	tripReq, err := req.toTripRequest()
	if err != nil {
		s.metrics.observeError(planerrors.Code(err))
		s.planError(w, r, err)
		return
	}

	start := time.Now()
	res, err := s.deps.Planner.Plan(r.Context(), tripReq)
	if err != nil {
		s.metrics.observeError(planerrors.Code(err))
		s.planError(w, r, err)
		return
	}
	s.metrics.observePlan(res, time.Since(start).Seconds())

	s.jsonResponse(w, http.StatusOK, NewPlanResponse(res))
}

// =============================================================================
// GEOCODE ENDPOINT
// =============================================================================

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.planError(w, r, planerrors.NewInvalidRequestError("q", "query parameter q is required"))
		return
	}

	pt, err := s.deps.Geocoder.Resolve(r.Context(), q)
	if errors.Is(err, geocode.ErrNotFound) {
		s.jsonResponse(w, http.StatusNotFound, ErrorResponse{
			Error:   fmt.Sprintf("location not found: %s", q),
			Code:    planerrors.ErrCodeGeocodeFailed,
			Subject: q,
		})
		return
	}
	if err != nil {
		s.planError(w, r, planerrors.NewGeocodeFailedError(q, err))
		return
	}

	s.jsonResponse(w, http.StatusOK, GeocodeResponse{
		Nome:  pt.Label,
		Chave: pt.Key,
		Lat:   pt.Lat,
		Lon:   pt.Lon,
		Fonte: pt.Source,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) maxRequestSize() int64 {
	if s.config.MaxRequestSize > 0 {
		return s.config.MaxRequestSize
	}
	return 1 << 20
}

// statusFor maps a plan error code to an HTTP status.
func statusFor(code string) int {
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case code == planerrors.ErrCodeGeocodeFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) planError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// A finished request context means the client went away or the
		// timeout middleware owns the 504; either way nothing is written here.
		if r.Context().Err() != nil {
			s.logger.Debug().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("plan abandoned")
			return
		}
		s.jsonError(w, http.StatusGatewayTimeout, "request timed out")
		return
	}
	var pe *planerrors.PlanError
	if !errors.As(err, &pe) {
		s.logger.Error().Err(err).Msg("plan failed")
		s.jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	status := statusFor(pe.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("plan failed")
	}
	s.jsonResponse(w, status, ErrorResponse{
		Error:   pe.Message,
		Code:    pe.Code,
		Subject: pe.Subject,
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: message})
}

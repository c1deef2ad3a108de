// Package api provides the HTTP server of the minutes application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/minutesapp/minutes-server/internal/http/response"
	"github.com/minutesapp/minutes-server/internal/metrics"
	"github.com/minutesapp/minutes-server/internal/ratelimit"
	"github.com/minutesapp/minutes-server/internal/service"
	"github.com/minutesapp/minutes-server/internal/store"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Identity       *service.IdentityService
	Transcriptions *service.TranscriptionService
	MoMs           *service.MoMService
	Search         *service.SearchService
	Export         *service.ExportService
}

// Options holds the HTTP-facing settings.
type Options struct {
	AllowedOrigins []string
	CookieSecure   bool
	LoginRateLimit float64 // sustained login attempts per second per client
	LoginBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        store.Store
	services     *Services
	metrics      *metrics.Metrics
	router       *chi.Mux
	api          huma.API
	loginLimiter *ratelimit.KeyedRateLimiter
	opts         Options
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, m *metrics.Metrics, opts Options, logger *slog.Logger) *Server {
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 0.2
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}

	router := chi.NewRouter()

	s := &Server{
		store:        st,
		services:     services,
		metrics:      m,
		router:       router,
		loginLimiter: ratelimit.New(opts.LoginRateLimit, opts.LoginBurst),
		opts:         opts,
		logger:       logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Minutes API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"session": {
			Type: "apiKey",
			In:   "cookie",
			Name: SessionCookieName,
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler(logger)

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerDashboardRoutes()
	s.registerMoMRoutes()
	s.registerSearchRoutes()
	s.registerRawRoutes()

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "Not found", logger)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", logger)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.requestLogger)
	s.router.Use(clientIPMiddleware)

	if len(s.opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
			ExposedHeaders:   []string{"Location", RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s.router.Use(authMiddleware(s.services.Identity))
}

// registerRawRoutes mounts the handlers that write their own bodies.
func (s *Server) registerRawRoutes() {
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireLoginHandler)
		r.Post("/save_transcription", s.handleSaveTranscription)
		r.Get("/transcription/{id}/mom/export", s.handleExportMoM)
	})
}

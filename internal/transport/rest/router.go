package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"devscreen/internal/cache"
	"devscreen/internal/config"
	"devscreen/internal/metrics"
	"devscreen/internal/service"
	"devscreen/internal/transport/rest/handler"
	"devscreen/internal/transport/rest/middleware"
	"devscreen/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config           *config.Config
	AuthService      *service.AuthService
	ScreeningService *service.ScreeningService
	RateLimiter      cache.RateLimitCache
	Metrics          *metrics.Metrics
	Gatherer         prometheus.Gatherer
	WSHub            *ws.Hub
	Logger           *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	screeningHandler := handler.NewScreeningHandler(c.ScreeningService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Config.CORSAllowedOrigins, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	rateMW := middleware.NewRateLimitMiddleware(c.RateLimiter, c.Config.RateLimit, c.Metrics, c.Logger)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.Config))
	r.Use(middleware.RequestLogger(c.Logger))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	gatherer := c.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	login := v1.NewRoute().Subrouter()
	login.Use(rateMW.Limit)
	login.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/screenings", wsHandler.ScreeningsWS).Methods("GET")

	// Clinician routes
	clinicianRoutes := v1.NewRoute().Subrouter()
	clinicianRoutes.Use(authMW.RequireClinician, rateMW.Limit)

	clinicianRoutes.HandleFunc("/screenings", screeningHandler.Create).Methods("POST", "OPTIONS")
	clinicianRoutes.HandleFunc("/screenings", screeningHandler.List).Methods("GET", "OPTIONS")
	clinicianRoutes.HandleFunc("/screenings/{screeningId}", screeningHandler.Get).Methods("GET", "OPTIONS")
	clinicianRoutes.HandleFunc("/classify", screeningHandler.Classify).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.CORSAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.CORSAllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

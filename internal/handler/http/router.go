package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maturehumanity/levela/internal/auth"
	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/internal/service"
	"github.com/maturehumanity/levela/pkg/health"
	"github.com/maturehumanity/levela/pkg/middleware"
)

// RouterConfig bundles the dependencies needed to build the API router.
type RouterConfig struct {
	UserService        *service.UserService
	EndorsementService *service.EndorsementService
	EvidenceService    *service.EvidenceService
	ReportService      *service.ReportService
	FeedService        *service.FeedService
	JWTManager         *auth.JWTManager
	Health             *health.Handler
	Logger             *slog.Logger
	CORS               middleware.CORSConfig
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("levela"))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := cfg.JWTManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	authHandler := NewAuthHandler(cfg.UserService, cfg.Logger)
	userHandler := NewUserHandler(cfg.UserService, cfg.Logger)
	endorsementHandler := NewEndorsementHandler(cfg.EndorsementService, cfg.Logger)
	evidenceHandler := NewEvidenceHandler(cfg.EvidenceService, cfg.Logger)
	reportHandler := NewReportHandler(cfg.ReportService, cfg.Logger)
	feedHandler := NewFeedHandler(cfg.FeedService, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokenValidator))

				r.Post("/logout", authHandler.Logout)
				r.Post("/change-password", authHandler.ChangePassword)
			})
		})

		// Public reference data and activity feed. Pillars are static, the
		// feed is refreshed every 30 seconds server-side.
		r.With(middleware.CacheControl(3600)).Get("/pillars", endorsementHandler.ListPillars)
		r.With(middleware.CacheControl(30)).Get("/feed", feedHandler.Recent)

		// User profiles, scores, and public listings
		r.Route("/users", func(r chi.Router) {
			r.Get("/search", userHandler.Search)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokenValidator))

				r.Get("/me", userHandler.GetMe)
				r.Put("/me", userHandler.UpdateMe)
			})

			// Public profile routes. Optional auth lets owners see their
			// private evidence in listings.
			r.Group(func(r chi.Router) {
				r.Use(middleware.OptionalAuth(tokenValidator))

				r.Get("/{userID}", userHandler.GetUser)
				r.Get("/{userID}/score", endorsementHandler.GetScore)
				r.Get("/{userID}/score/{pillar}", endorsementHandler.GetPillarScore)
				r.Get("/{userID}/endorsements", endorsementHandler.ListReceived)
				r.Get("/{userID}/evidence", evidenceHandler.ListByUser)
			})
		})

		// Endorsements (auth required)
		r.Route("/endorsements", func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", endorsementHandler.Create)
			r.Get("/given", endorsementHandler.ListGiven)
			r.Get("/can-endorse", endorsementHandler.CanEndorse)
		})

		// Evidence
		r.Route("/evidence", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.OptionalAuth(tokenValidator))

				r.Get("/{evidenceID}", evidenceHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokenValidator))

				r.Post("/", evidenceHandler.Create)
				r.Put("/{evidenceID}", evidenceHandler.Update)
				r.Delete("/{evidenceID}", evidenceHandler.Delete)
			})
		})

		// Moderation reports (auth required)
		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", reportHandler.Create)
			r.Get("/{reportID}", reportHandler.Get)
		})

		// Admin endpoints
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/reports", reportHandler.List)
			r.Put("/reports/{reportID}", reportHandler.Resolve)
			r.Put("/endorsements/{endorsementID}/visibility", reportHandler.SetEndorsementVisibility)
		})
	})

	return r
}

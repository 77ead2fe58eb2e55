package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roadwatch/internal/auth"
	"roadwatch/internal/config"
	"roadwatch/internal/detection"
	"roadwatch/internal/geocoding"
	"roadwatch/internal/handlers"
	"roadwatch/internal/hub"
	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/metrics"
	"roadwatch/internal/middleware"
	"roadwatch/internal/models"
	"roadwatch/internal/repository"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Auth      *auth.Service
	Pipeline  *detection.Pipeline
	Hub       *hub.Hub
	Media     *media.LocalStore
	Geocoder  *geocoding.Client
	Incidents repository.IncidentRepository
}

// Setup registers all routes and wires the authentication middleware
// around the API surface.
func Setup(d Deps) http.Handler {
	r := chi.NewRouter()

	// Public endpoints
	r.Get("/health", handlers.HealthHandler())
	r.Handle("/metrics", d.Metrics.Handler())
	r.Post("/auth/login", handlers.LoginHandler(d.Auth, d.Logger))
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(d.Media.Dir()))))

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.Auth))

		r.Post("/api/incidents/predict", handlers.PredictHandler(d.Pipeline, d.Config.MaxUploadSize, d.Logger))

		r.Post("/api/incidents", handlers.CreateIncidentHandler(d.Incidents, d.Hub, d.Geocoder, d.Logger))
		r.Get("/api/incidents", handlers.ListIncidentsHandler(d.Incidents, d.Logger))
		r.Get("/api/incidents/{id}", handlers.GetIncidentHandler(d.Incidents, d.Logger))
		r.Put("/api/incidents/{id}", handlers.UpdateIncidentHandler(d.Incidents, d.Logger))
		r.With(middleware.RequireRole(models.RoleAdmin)).
			Delete("/api/incidents/{id}", handlers.DeleteIncidentHandler(d.Incidents, d.Logger))

		r.Get("/api/analytics/hourly", handlers.HourlyAnalyticsHandler(d.Incidents, d.Logger))
		r.Get("/api/analytics/hotspots", handlers.HotspotsHandler(d.Incidents, d.Logger))
		r.Get("/api/analytics/severity", handlers.SeverityAnalyticsHandler(d.Incidents, d.Logger))
		r.With(middleware.RequireRole(models.RoleAdmin)).
			Get("/api/analytics/export/csv", handlers.ExportCSVHandler(d.Incidents, d.Logger))

		r.Post("/api/media/upload", handlers.UploadMediaHandler(d.Media, d.Config.MaxUploadSize, d.Logger))
		r.Delete("/api/media/*", handlers.DeleteMediaHandler(d.Media, d.Logger))

		r.Get("/ws", handlers.WebSocketHandler(d.Hub, d.Metrics, d.Logger))
	})

	return r
}

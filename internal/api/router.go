package api

import (
	"net/http"

	"github.com/flightline/casa-compliance/internal/api/handler"
	"github.com/flightline/casa-compliance/internal/api/middleware"
	"github.com/flightline/casa-compliance/internal/rules"
	"github.com/flightline/casa-compliance/internal/service"
	"github.com/flightline/casa-compliance/internal/storage"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new HTTP router with all routes configured.
// metricsHandler is mounted unauthenticated at /metrics; pass nil to
// disable the endpoint.
func NewRouter(
	store storage.Storage,
	cache *rules.Cache,
	complianceService *service.ComplianceService,
	bootstrapKey string,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(store, bootstrapKey))

		// API Keys
		keyHandler := handler.NewAPIKeyHandler(store)
		r.Post("/keys", keyHandler.Create)
		r.Get("/keys", keyHandler.List)
		r.Delete("/keys/{id}", keyHandler.Delete)

		// Compliance Rules
		ruleHandler := handler.NewRuleHandler(store, cache)
		r.Post("/rules", ruleHandler.Create)
		r.Get("/rules", ruleHandler.List)
		r.Get("/rules/{code}", ruleHandler.Get)
		r.Put("/rules/{code}", ruleHandler.Update)
		r.Delete("/rules/{code}", ruleHandler.Delete)

		// Operators
		operatorHandler := handler.NewOperatorHandler(store)
		r.Post("/operators", operatorHandler.Create)
		r.Get("/operators", operatorHandler.List)
		r.Get("/operators/{id}", operatorHandler.Get)
		r.Put("/operators/{id}", operatorHandler.Update)
		r.Delete("/operators/{id}", operatorHandler.Delete)

		// Pilots
		pilotHandler := handler.NewPilotHandler(store)
		r.Post("/pilots", pilotHandler.Create)
		r.Get("/pilots", pilotHandler.List)
		r.Get("/pilots/{id}", pilotHandler.Get)
		r.Put("/pilots/{id}", pilotHandler.Update)
		r.Delete("/pilots/{id}", pilotHandler.Delete)

		// Aircraft and nested defects
		aircraftHandler := handler.NewAircraftHandler(store)
		defectHandler := handler.NewDefectHandler(store)
		r.Post("/aircraft", aircraftHandler.Create)
		r.Get("/aircraft", aircraftHandler.List)
		r.Route("/aircraft/{aircraft_id}", func(r chi.Router) {
			r.Get("/", aircraftHandler.Get)
			r.Put("/", aircraftHandler.Update)
			r.Delete("/", aircraftHandler.Delete)

			r.Post("/defects", defectHandler.Create)
			r.Get("/defects", defectHandler.List)
		})
		r.Get("/defects/{id}", defectHandler.Get)
		r.Put("/defects/{id}", defectHandler.Update)
		r.Delete("/defects/{id}", defectHandler.Delete)

		// Compliance evaluation and reporting
		complianceHandler := handler.NewComplianceHandler(complianceService)
		r.Get("/compliance/{record_type}/{record_id}/summary", complianceHandler.Summary)
		r.Get("/compliance/{record_type}/{record_id}/checks", complianceHandler.History)
		r.Get("/compliance/dashboard", complianceHandler.Dashboard)
		r.Post("/compliance/recheck", complianceHandler.Recheck)
	})

	return r
}

package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AliAon/FixFixnanz-sub000/internal/config"
	"github.com/AliAon/FixFixnanz-sub000/internal/crmapi"
	"github.com/AliAon/FixFixnanz-sub000/internal/http/handler"
	"github.com/AliAon/FixFixnanz-sub000/internal/http/middleware"
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	apiClient           *crmapi.Client
	rateLimiter         *middleware.RateLimiter
	dashboardHandler    *handler.DashboardHandler
	pipelineHandler     *handler.PipelineHandler
	stageHandler        *handler.StageHandler
	contactHandler      *handler.ContactHandler
	importHandler       *handler.ImportHandler
	transferHandler     *handler.TransferHandler
	notificationHandler *handler.NotificationHandler
	appointmentHandler  *handler.AppointmentHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	apiClient *crmapi.Client,
	rateLimiter *middleware.RateLimiter,
	dashboardHandler *handler.DashboardHandler,
	pipelineHandler *handler.PipelineHandler,
	stageHandler *handler.StageHandler,
	contactHandler *handler.ContactHandler,
	importHandler *handler.ImportHandler,
	transferHandler *handler.TransferHandler,
	notificationHandler *handler.NotificationHandler,
	appointmentHandler *handler.AppointmentHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		apiClient:           apiClient,
		rateLimiter:         rateLimiter,
		dashboardHandler:    dashboardHandler,
		pipelineHandler:     pipelineHandler,
		stageHandler:        stageHandler,
		contactHandler:      contactHandler,
		importHandler:       importHandler,
		transferHandler:     transferHandler,
		notificationHandler: notificationHandler,
		appointmentHandler:  appointmentHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Upstream readiness probe
	r.Get("/health/upstream", func(w http.ResponseWriter, r *http.Request) {
		status := rt.apiClient.HealthCheck(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     status.Status,
			"service":    "fixfinanz-api",
			"latency_ms": status.Latency.Milliseconds(),
			"error":      status.Error,
		})
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Dashboard view state and selection
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/state", rt.dashboardHandler.GetState)
			r.Post("/pipeline", rt.dashboardHandler.SelectPipeline)
			r.Post("/stage", rt.dashboardHandler.SelectStage)
			r.Post("/selection", rt.dashboardHandler.ToggleSelection)
			r.Post("/selection/all", rt.dashboardHandler.ToggleAllSelection)
			r.Post("/counts/refresh", rt.dashboardHandler.RefreshCounts)
		})

		// Pipelines
		r.Route("/pipelines", func(r chi.Router) {
			r.Get("/", rt.pipelineHandler.List)
			r.Post("/", rt.pipelineHandler.Create)
			r.Put("/{id}", rt.pipelineHandler.Update)
			r.Delete("/{id}", rt.pipelineHandler.Delete)
		})

		// Stages
		r.Route("/stages", func(r chi.Router) {
			r.Get("/", rt.stageHandler.List)
			r.Post("/", rt.stageHandler.Create)
			r.Put("/{id}", rt.stageHandler.Update)
			r.Delete("/{id}", rt.stageHandler.Delete)
		})

		// Contacts
		r.Post("/contacts", rt.contactHandler.Create)

		// Bulk operations
		r.Post("/imports", rt.importHandler.Upload)
		r.Post("/transfers", rt.transferHandler.Transfer)

		// Notifications
		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.notificationHandler.List)
			r.Delete("/", rt.notificationHandler.Clear)
		})

		// Appointments
		r.Get("/appointments", rt.appointmentHandler.List)
	})

	return r
}

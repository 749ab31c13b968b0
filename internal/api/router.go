package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ndlovu-dev/inkwell/internal/app"
	iauth "github.com/ndlovu-dev/inkwell/internal/auth"
	"github.com/ndlovu-dev/inkwell/internal/handlers"
	"github.com/ndlovu-dev/inkwell/internal/middleware"
	"github.com/ndlovu-dev/inkwell/internal/realtime"
	"github.com/ndlovu-dev/inkwell/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, authn *iauth.Authenticator, hub *realtime.Hub, notes *services.NoteService, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if authn == nil {
		return nil, fmt.Errorf("authenticator must be provided")
	}
	if hub == nil {
		return nil, fmt.Errorf("realtime hub must be provided")
	}
	if notes == nil {
		return nil, fmt.Errorf("note service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db, hub))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// Websocket entry point; authenticates inside the handler so browser
	// clients can pass the token as a query parameter.
	realtimeHandler := handlers.NewRealtimeHandler(hub, authn)
	r.GET("/ws", realtimeHandler.Stream)

	requireAuth := middleware.Auth(authn)

	api := r.Group("/api")
	api.Use(requireAuth)

	noteHandler := handlers.NewNoteHandler(notes, hub)
	noteRoutes := api.Group("/notes")
	{
		noteRoutes.POST("", noteHandler.Create)
		noteRoutes.GET("", noteHandler.List)
		noteRoutes.PATCH("/:id", noteHandler.Edit)
		noteRoutes.DELETE("/:id", noteHandler.Delete)
		noteRoutes.POST("/:id/share", noteHandler.Share)
		noteRoutes.GET("/:id/presence", noteHandler.Presence)
	}

	return r, nil
}

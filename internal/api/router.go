package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/share-marketplace/docs"
	"github.com/99minutos/share-marketplace/internal/api/handler"
	"github.com/99minutos/share-marketplace/internal/api/middleware"
	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

// Deps holds everything the HTTP layer needs. Health lists the backing
// services checked by the readiness route, in report order.
type Deps struct {
	AuthService     ports.AuthService
	BusinessService ports.BusinessService
	OrderService    ports.OrderService
	Health          []handler.Dependency
	Log             zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// HTTP instrumentation lives in its own registry so that building several
	// routers in one process does not register the collectors twice.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace",
		Registerer: httpMetrics,
	}))

	// --- Operational routes (no auth required) ---
	health := handler.NewHealthHandler(deps.Health...)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, httpMetrics},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Marketplace routes: every request carries Basic credentials ---
	api := e.Group("", middleware.Auth(deps.AuthService))
	asOwner := middleware.RequireRole(domain.RoleOwner)
	asBuyer := middleware.RequireRole(domain.RoleBuyer)

	businesses := handler.NewBusinessHandler(deps.BusinessService)
	api.POST("/businesses", businesses.Create, asOwner)
	api.GET("/businesses", businesses.List, asBuyer)
	api.GET("/businesses/:id/order_history", businesses.OrderHistory, asBuyer)

	orders := handler.NewOrderHandler(deps.OrderService)
	api.POST("/businesses/:business_id/orders", orders.Create, asBuyer)
	api.GET("/businesses/:business_id/orders", orders.List, asOwner)
	api.PATCH("/orders/:id", orders.Update, asBuyer)
	api.PATCH("/orders/:id/accept", orders.Accept, asOwner)
	api.PATCH("/orders/:id/reject", orders.Reject, asOwner)

	return e
}

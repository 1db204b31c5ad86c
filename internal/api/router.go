package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sirpyerre/item-catalog/docs"
	"github.com/sirpyerre/item-catalog/internal/api/handler"
	"github.com/sirpyerre/item-catalog/internal/api/middleware"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
	"github.com/sirpyerre/item-catalog/internal/infrastructure/http/handlers"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	AuthService  ports.AuthService
	ItemService  ports.ItemService
	Tokens       ports.TokenVerifier
	Policy       middleware.AccessPolicy
	Logger       zerolog.Logger
	Version      string
	Dependencies map[string]handlers.Pinger

	// Registry receives HTTP metrics and backs /metrics. Nil means the
	// Prometheus default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(metricsMiddleware(d.Registry))
	e.Use(middleware.NewAccessGate(d.Policy, d.Tokens).Middleware())

	// --- Observability (no auth required) ---
	e.GET("/metrics", metricsHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Health probes ---
	healthHandler := handlers.NewHealthHandler(d.Version)
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Dependencies)
	api.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	api.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", authHandler.Me)

	// --- Item routes (writes gated by the access policy) ---
	itemHandler := handler.NewItemHandler(d.ItemService)
	api.GET("/items", itemHandler.List)
	api.POST("/items", itemHandler.Create)
	api.GET("/items/:id", itemHandler.Get)
	api.PUT("/items/:id", itemHandler.Update)
	api.PATCH("/items/:id", itemHandler.Update)
	api.DELETE("/items/:id", itemHandler.Delete)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("remote_ip", v.RemoteIP).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "catalog",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

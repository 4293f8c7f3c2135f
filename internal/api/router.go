package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/storefront/store-api/internal/api/handler"
	"github.com/storefront/store-api/internal/api/middleware"
	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

// Dependencies are the services and probes the router serves.
type Dependencies struct {
	AuthService     ports.AuthService
	ProductService  ports.ProductService
	PurchaseService ports.PurchaseService
	Readiness       map[string]handler.Pinger
	JWTSecret       string
	RequestTimeout  time.Duration
	Logger          zerolog.Logger
	// Registry defaults to the prometheus default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "store",
		Registerer: registerer,
	}))
	if deps.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(deps.RequestTimeout))
	}

	// --- Probes, metrics and docs (no auth required) ---
	health := handler.NewHealthHandler(deps.Readiness)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	v1.POST("/register", authHandler.Register)
	v1.POST("/login", authHandler.Login)

	authed := v1.Group("", middleware.Auth(deps.JWTSecret))
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Products ---
	products := handler.NewProductHandler(deps.ProductService)
	authed.GET("/products", products.List)
	authed.GET("/products/:id", products.Get)
	authed.POST("/products", products.Create, adminOnly)
	authed.PUT("/products/:id", products.Update, adminOnly)
	authed.DELETE("/products/:id", products.Delete, adminOnly)

	// --- Purchases ---
	// Eligibility to purchase is decided by the service after the identity check.
	purchases := handler.NewPurchaseHandler(deps.PurchaseService)
	authed.POST("/purchases", purchases.Create)
	authed.GET("/purchases", purchases.List)
	authed.GET("/purchases/:id", purchases.Get)
	authed.GET("/clients/:id/purchases", purchases.ListByClient)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

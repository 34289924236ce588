package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/mrms/resource-management/docs"
	"github.com/mrms/resource-management/internal/api/handler"
	"github.com/mrms/resource-management/internal/api/middleware"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
	infrahttp "github.com/mrms/resource-management/internal/infrastructure/http"
)

// RouterConfig carries everything the HTTP layer needs. Mongo and Redis are
// only used by the readiness probe and may be nil.
type RouterConfig struct {
	AuthService     ports.AuthService
	PurchaseService ports.PurchaseService
	Dispatcher      handler.EventDispatcher
	Revocation      middleware.RevocationChecker
	JWTSecret       string
	Logger          zerolog.Logger

	// Registerer receives the HTTP request metrics. Defaults to the
	// global Prometheus registry.
	Registerer prometheus.Registerer

	Mongo *mongo.Database
	Redis *redis.Client
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Logger)

	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "mrms",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational endpoints ---
	infrahttp.RegisterProbes(e, cfg.Mongo, cfg.Redis)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authHandler := handler.NewAuthHandler(cfg.AuthService)
	purchaseHandler := handler.NewPurchaseHandler(cfg.PurchaseService)
	eventHandler := handler.NewEventHandler(cfg.Dispatcher)
	requireAuth := middleware.Auth(cfg.JWTSecret, cfg.Revocation, cfg.Logger)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/me", authHandler.Me, requireAuth)
	e.POST("/auth/logout", authHandler.Logout, requireAuth)

	// --- Purchases ---
	v1 := e.Group("/v1", requireAuth)

	anyRole := middleware.RBAC(domain.RoleAdmin, domain.RoleBaseCommander, domain.RoleLogisticsOfficer)
	purchases := v1.Group("/purchases")
	purchases.POST("", purchaseHandler.Create, anyRole)
	purchases.GET("", purchaseHandler.List, anyRole)

	// Feeds authenticate as Admin; registered before /:orderNumber so
	// "events" is never taken for an order number.
	feeds := middleware.RBAC(domain.RoleAdmin)
	purchases.POST("/events", eventHandler.Receive, feeds)
	purchases.POST("/events/batch", eventHandler.ReceiveBatch, feeds)

	purchases.GET("/:orderNumber", purchaseHandler.Get, anyRole)
	purchases.POST("/:orderNumber/deliver", purchaseHandler.Deliver,
		middleware.RBAC(domain.RoleAdmin, domain.RoleLogisticsOfficer))
	purchases.POST("/:orderNumber/cancel", purchaseHandler.Cancel,
		middleware.RBAC(domain.RoleAdmin, domain.RoleBaseCommander))

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
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
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

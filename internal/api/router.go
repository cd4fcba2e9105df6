package api

import (
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/refonic/inventory/docs" // registers the OpenAPI document
	"github.com/refonic/inventory/internal/api/handler"
	"github.com/refonic/inventory/internal/api/middleware"
	"github.com/refonic/inventory/internal/core/service"
	"github.com/refonic/inventory/internal/infrastructure/config"
	"github.com/refonic/inventory/internal/infrastructure/db/sqlstore"
	redisstore "github.com/refonic/inventory/internal/infrastructure/db/redis"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	DB *sqlstore.DB
	// Redis is nil when REDIS_ADDR is unset; login rate limiting is then off.
	Redis  *redis.Client
	Config *config.Config
	Logger zerolog.Logger
	// Registerer and Gatherer default to the Prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	registerer, gatherer := d.Registerer, d.Gatherer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "inventory",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	cfg := d.Config
	authRepo := sqlstore.NewUserRepository(d.DB)
	authService := service.NewAuthService(authRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, d.Logger)
	authHandler := handler.NewAuthHandler(authService)

	productRepo := sqlstore.NewProductRepository(d.DB)
	productService := service.NewProductService(productRepo, d.Logger)
	productHandler := handler.NewProductHandler(productService)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	var loginMiddleware []echo.MiddlewareFunc
	if d.Redis != nil {
		limiter := redisstore.NewFixedWindowLimiter(d.Redis, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
		loginMiddleware = append(loginMiddleware, middleware.LoginRateLimit(limiter, d.Logger))
	}
	auth.POST("/login", authHandler.Login, loginMiddleware...)
	auth.POST("/change-password", authHandler.ChangePassword)

	// --- Product routes ---
	products := e.Group("/api/products")
	if cfg.Auth.Required {
		products.Use(middleware.Auth(authService))
	}
	products.GET("", productHandler.List)
	products.POST("", productHandler.Create)
	products.GET("/scan/:barcode", productHandler.Scan)
	products.GET("/:id", productHandler.Get)
	products.PUT("/:id", productHandler.Update)
	products.DELETE("/:id", productHandler.Delete)
	products.POST("/:id/sell", productHandler.Sell)
	products.GET("/:id/receipt", productHandler.Receipt)

	// --- Health checks (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.DB, d.DB.Dialect().Name(), d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dashboard ---
	if cfg.StaticDir != "" {
		e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
			Root:    cfg.StaticDir,
			Index:   "index.html",
			HTML5:   true,
			Skipper: isAPIPath,
		}))
	}

	return e
}

// isAPIPath keeps the dashboard fallback away from the JSON surfaces.
func isAPIPath(c echo.Context) bool {
	p := c.Request().URL.Path
	for _, prefix := range []string{"/api", "/health", "/metrics", "/swagger"} {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

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
			event := log.Info()
			switch {
			case v.Status >= 500:
				event = log.Error().Err(v.Error)
			case v.Error != nil:
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

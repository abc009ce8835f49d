package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/supplylens/internal/auth"
	"github.com/geocoder89/supplylens/internal/config"
	"github.com/geocoder89/supplylens/internal/envelope"
	"github.com/geocoder89/supplylens/internal/http/handlers"
	"github.com/geocoder89/supplylens/internal/http/middlewares"
	"github.com/geocoder89/supplylens/internal/observability"
	"github.com/geocoder89/supplylens/internal/security"
)

// Deps is everything the router wires into handlers. Prom, Gatherer,
// Limiter and Ping are optional.
type Deps struct {
	Users     handlers.UserStore
	Alerts    handlers.AlertStore
	Watchlist handlers.WatchlistStore

	Tokens *auth.Manager
	Hasher *security.Hasher

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Limiter  middlewares.Limiter
	Ping     func(ctx context.Context) error
}

const (
	authWindow = 15 * time.Minute
	apiWindow  = time.Minute
)

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) (*gin.Engine, error) {
	if !cfg.IsDev() && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers.RegisterValidators()

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// rate limits key on ClientIP, so forwarded headers count only from known proxies
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("invalid TRUSTED_PROXIES, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware
	r.Use(middlewares.RequestID())
	r.Use(middlewares.Recovery())
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(cfg.AppName))
	}
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders(!cfg.IsDev()))
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope.Failure("NOT_FOUND", "Resource not found", nil))
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, envelope.Failure("METHOD_NOT_ALLOWED", "Method not allowed", nil))
	})

	// health
	ping := deps.Ping
	if ping != nil {
		dbPing := ping
		ping = func(ctx context.Context) error {
			cctx, cancel := config.WithTimeout(ctx, time.Second)
			defer cancel()
			return dbPing(cctx)
		}
	}

	h := handlers.NewHealthHandler(ping, cfg)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(deps.Tokens, deps.Users, deps.Prom)

	authH, err := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Hasher, deps.Prom)
	if err != nil {
		return nil, err
	}
	alertsH := handlers.NewAlertsHandler(deps.Alerts)
	watchH := handlers.NewWatchlistHandler(deps.Watchlist)

	v1 := r.Group("/api/v1")
	v1.Use(middlewares.RateLimit(deps.Limiter, "api", cfg.RateLimitPerMinute, apiWindow, deps.Prom))
	v1.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	v1.Use(middlewares.RequireJSON())

	v1.GET("/version", h.Version)

	authRoutes := v1.Group("/auth")
	{
		credLimit := middlewares.RateLimit(deps.Limiter, "auth", cfg.RateLimitAuthPer15Min, authWindow, deps.Prom)

		authRoutes.POST("/register", credLimit, authH.Register)
		authRoutes.POST("/login", credLimit, authH.Login)
		authRoutes.POST("/refresh", credLimit, authH.Refresh)

		authRoutes.GET("/me", authMW.RequireAuth(), authH.Me)
		authRoutes.DELETE("/me", authMW.RequireAuth(), authH.DeleteMe)
	}

	alerts := v1.Group("/alerts", authMW.RequireAuth())
	{
		alerts.GET("", alertsH.List)
		alerts.POST("", alertsH.Create)
		alerts.GET("/:id", alertsH.Get)
		alerts.PUT("/:id", alertsH.Update)
		alerts.DELETE("/:id", alertsH.Delete)
		alerts.PATCH("/:id/toggle", alertsH.Toggle)
	}

	watch := v1.Group("/watchlist", authMW.RequireAuth())
	{
		watch.GET("", watchH.List)
		watch.POST("", watchH.Add)
		watch.GET("/:id", watchH.Get)
		watch.PUT("/:id", watchH.Update)
		watch.DELETE("/:id", watchH.Remove)
	}

	log.Debug("routes registered", "count", len(r.Routes()))

	return r, nil
}

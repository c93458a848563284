package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/maintenance-desk/internal/handler/attention"
	"github.com/jwalitptl/maintenance-desk/internal/handler/health"
	"github.com/jwalitptl/maintenance-desk/internal/handler/notification"
	"github.com/jwalitptl/maintenance-desk/internal/handler/order"
	"github.com/jwalitptl/maintenance-desk/internal/handler/prometheus"
	"github.com/jwalitptl/maintenance-desk/internal/handler/session"
	"github.com/jwalitptl/maintenance-desk/internal/middleware"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups the route handlers. Attention and Order are optional
// and skipped when nil.
type Handlers struct {
	Health       *health.Handler
	Metrics      *prometheus.Handler
	Session      *session.Handler
	Notification *notification.Handler
	Attention    *attention.Handler
	Order        *order.Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	MetricsPath      string
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   RouterConfig
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, log *logger.Logger, config RouterConfig) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		handlers.Metrics.Middleware(),
		middleware.CORS(config.CORSConfig),
	)

	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}
}

func (r *Router) Setup() error {
	if err := session.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	r.engine.GET(r.config.MetricsPath, r.handlers.Metrics.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.handlers.Health.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	if r.config.RateLimitEnabled {
		protected.Use(r.limiter().RateLimit())
	}
	r.setupProtectedRoutes(protected)
	return nil
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	// activity signals get their own buckets so a busy pointer does not
	// starve the rest of the API
	activityLimit := func(c *gin.Context) { c.Next() }
	if r.config.RateLimitEnabled {
		activityLimit = r.limiter().RateLimit()
	}
	r.handlers.Session.RegisterRoutes(rg, activityLimit)
	r.handlers.Notification.RegisterRoutes(rg)

	var optional []Handler
	if r.handlers.Attention != nil {
		optional = append(optional, r.handlers.Attention)
	}
	if r.handlers.Order != nil {
		optional = append(optional, r.handlers.Order)
	}
	for _, h := range optional {
		h.RegisterRoutes(rg)
	}
}

func (r *Router) limiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RateLimit,
		Burst: r.config.RateBurst,
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/maintenance-desk/internal/bootstrap"
	"github.com/jwalitptl/maintenance-desk/internal/config"
	"github.com/jwalitptl/maintenance-desk/internal/handler/attention"
	"github.com/jwalitptl/maintenance-desk/internal/handler/health"
	"github.com/jwalitptl/maintenance-desk/internal/handler/notification"
	orderHandler "github.com/jwalitptl/maintenance-desk/internal/handler/order"
	"github.com/jwalitptl/maintenance-desk/internal/handler/prometheus"
	sessionHandler "github.com/jwalitptl/maintenance-desk/internal/handler/session"
	"github.com/jwalitptl/maintenance-desk/internal/middleware"
	"github.com/jwalitptl/maintenance-desk/internal/repository/postgres"
	"github.com/jwalitptl/maintenance-desk/internal/router"
	"github.com/jwalitptl/maintenance-desk/internal/service/comment"
	"github.com/jwalitptl/maintenance-desk/internal/service/order"
	"github.com/jwalitptl/maintenance-desk/internal/service/session"
	"github.com/jwalitptl/maintenance-desk/pkg/auth"
	"github.com/jwalitptl/maintenance-desk/pkg/clock"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
	"github.com/jwalitptl/maintenance-desk/pkg/worker"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "mdesk-api",
		Short:        "Maintenance desk API",
		Long:         "Serves the dashboard API: sessions, comment alerts, notifications and calibration attention.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	return cmd
}

func run(configPath string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := bootstrap.NewLogger(cfg.Log)

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(cfg.Metrics.Namespace, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := bootstrap.NewResources(cfg, log)
	defer res.Close()

	// Initialize database
	db, err := res.DB()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	broker, err := res.Broker(ctx)
	if err != nil {
		return fmt.Errorf("failed to open change feed: %w", err)
	}
	kv, err := res.KVStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open notification storage: %w", err)
	}

	// Initialize repositories
	base := postgres.NewBaseRepository(db)
	orderRepo := postgres.NewOrderRepository(base)
	analyzerRepo := postgres.NewAnalyzerRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)
	commentRepo := postgres.NewCommentRepository(base, outboxRepo)

	// Initialize services
	manager := session.NewManager(
		broker,
		order.NewResolver(orderRepo, cfg.Session.OrderCacheTTL),
		kv,
		clock.Real(),
		session.Config{
			IdleTimeout: cfg.Session.IdleTimeout,
			AlertBuffer: cfg.Session.AlertBuffer,
			Watcher: comment.Config{
				Topic:          cfg.Feed.Topic,
				DedupWindow:    cfg.Session.DedupWindow,
				ResolveTimeout: cfg.Session.ResolveTimeout,
			},
		},
		log,
		m,
	)
	defer manager.Close()

	jwt := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	// Initialize handlers
	handlers := router.Handlers{
		Health: health.NewHandler(map[string]health.Check{
			"database": db.PingContext,
		}),
		Metrics:      prometheus.New(reg, m),
		Session:      sessionHandler.NewHandler(manager),
		Notification: notification.NewHandler(manager),
		Attention:    attention.NewHandler(analyzerRepo, clock.Real()),
		Order:        orderHandler.NewHandler(orderRepo, commentRepo),
	}

	r := router.NewRouter(middleware.NewAuthMiddleware(jwt), handlers, log, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...),
		MetricsPath:      cfg.Metrics.Path,
	})
	if err := r.Setup(); err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}

	// An in-process feed only sees what this process publishes, so the
	// outbox has to be drained here instead of by the worker.
	if cfg.Feed.Backend == config.BackendMemory {
		processor := worker.NewOutboxProcessor(outboxRepo, broker, cfg.Outbox.ToWorkerConfig(cfg.Feed.Topic), log, m)
		go processor.Start(ctx)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited properly")
	return nil
}

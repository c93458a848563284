package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/maintenance-desk/internal/bootstrap"
	"github.com/jwalitptl/maintenance-desk/internal/config"
	"github.com/jwalitptl/maintenance-desk/internal/handler/health"
	"github.com/jwalitptl/maintenance-desk/internal/repository/postgres"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
	"github.com/jwalitptl/maintenance-desk/pkg/worker"
)

const cleanupInterval = time.Hour

func setupHealthCheck(addr string, checks map[string]health.Check, reg *prom.Registry, log *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks).RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	srv := &http.Server{Addr: addr, Handler: engine}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath, healthAddr string

	cmd := &cobra.Command{
		Use:          "mdesk-worker",
		Short:        "Outbox relay for the comment change feed",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, healthAddr)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "Listen address of the health endpoints")
	return cmd
}

func run(configPath, healthAddr string) error {
	// Load config
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Feed.Backend == config.BackendMemory {
		return errors.New("the worker needs a shared feed backend (redis or nats)")
	}

	log := bootstrap.NewLogger(cfg.Log).WithFields(map[string]interface{}{"component": "outbox-worker"})
	reg := prom.NewRegistry()
	m := metrics.NewMetrics(cfg.Metrics.Namespace, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := bootstrap.NewResources(cfg, log)
	defer res.Close()

	db, err := res.DB()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	broker, err := res.Broker(ctx)
	if err != nil {
		return fmt.Errorf("failed to open change feed: %w", err)
	}

	outboxRepo := postgres.NewOutboxRepository(postgres.NewBaseRepository(db))
	processor := worker.NewOutboxProcessor(outboxRepo, broker, cfg.Outbox.ToWorkerConfig(cfg.Feed.Topic), log, m)
	cleanup := worker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cleanupInterval, log)

	healthSrv := setupHealthCheck(healthAddr, map[string]health.Check{"database": db.PingContext}, reg, log)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		cleanup.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "Health check server forced to shutdown")
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/readygate/internal/alert"
	"github.com/hazz-dev/readygate/internal/config"
	"github.com/hazz-dev/readygate/internal/dashboard"
	"github.com/hazz-dev/readygate/internal/probe"
	"github.com/hazz-dev/readygate/internal/readiness"
	"github.com/hazz-dev/readygate/internal/scheduler"
	"github.com/hazz-dev/readygate/internal/server"
	"github.com/hazz-dev/readygate/internal/storage"
	"github.com/hazz-dev/readygate/internal/version"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "readygate",
		Short:        "Service-group readiness gate with dependency health checks",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yml", "config file path")

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("readygate %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the readiness server",
		RunE:  runServe,
	}
}

func buildEvaluator(cfg *config.Config, logger *slog.Logger) (*readiness.Evaluator, error) {
	registry, err := probe.BuildRegistry(cfg.ServiceName, cfg.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	opts := []readiness.Option{readiness.WithLogger(logger)}
	if cfg.Readiness.DefaultTimeout.Duration > 0 {
		opts = append(opts, readiness.WithDefaultTimeout(cfg.Readiness.DefaultTimeout.Duration))
	}
	return readiness.NewEvaluator(registry, opts...), nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	// 1. Load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("config loaded", "service", cfg.ServiceName, "dependencies", len(cfg.Dependencies))

	// 2. Open SQLite
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// 3. Build evaluator from configured dependencies
	evaluator, err := buildEvaluator(cfg, logger)
	if err != nil {
		return err
	}

	// 4. Build alerter (if configured)
	var alerter *alert.Alerter
	if cfg.Alerts.Webhook.URL != "" {
		alerter = alert.New(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Cooldown.Duration, logger)
	}

	// 5. Build scheduler
	sched := scheduler.New(evaluator, db, cfg.Readiness.Interval.Duration, logger)
	if alerter != nil {
		sched.SetOnReport(alerter.Notify)
	}

	// 6. Build API server
	apiServer := server.New(evaluator, db, cfg.Dependencies, logger)

	// 7. Mount routes on a single mux
	mux := http.NewServeMux()
	mux.Handle("/livez", apiServer.Router())
	mux.Handle("/readyz", apiServer.Router())
	mux.Handle("/api/", apiServer.Router())
	mux.Handle("/", dashboard.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	// 8. Signal context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 9. Start scheduler
	sched.Start(ctx)

	// 10. Start HTTP server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 11. Wait for signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	// 12. Graceful shutdown
	sched.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a one-off readiness evaluation of all configured dependencies",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return executeCheck(cmd, cfg)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the latest readiness report from the database",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return executeStatus(cmd, db)
}

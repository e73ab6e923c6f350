package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	app "github.com/okian/gitstart/internal/app"
	"github.com/okian/gitstart/internal/config"
	"github.com/okian/gitstart/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gitstart",
		Short:        "gitstart -- difficulty scoring and issue recommendations",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(recommendCmd())
	root.AddCommand(beginnerCmd())
	root.AddCommand(loadtestCmd())
	return root
}

// loadService loads configuration (defaults -> optional file -> env),
// applies the log level and assembles an unstarted service.
func loadService(ctx context.Context) (*config.Config, *app.Service, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Get()
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := app.FromConfig(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"relayhq/courier/pkg/app"
	"relayhq/courier/pkg/config"
	"relayhq/courier/pkg/credstore"
	"relayhq/courier/pkg/response"
	"relayhq/courier/pkg/server"
	"relayhq/courier/pkg/telemetry/logging"
	"relayhq/courier/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	role          string
	contentRoot   string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the application daemon",
	Long: `Start the application daemon with the specified configuration.

The daemon binds a raw TCP listener, frames and parses HTTP/1.1 requests
itself, dispatches registered routes, and serves static content from the
per-MIME directories under the content root.

Examples:
  # Start with default config
  courier serve

  # Start with custom config
  courier serve --config /etc/courier/config.yaml

  # Override listen address and role
  courier serve --listen 0.0.0.0:8000 --role peer

  # Validate config without starting the daemon
  courier serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveFlags.role, "role", "", "override application role (tracker, peer)")
	serveCmd.Flags().StringVar(&serveFlags.contentRoot, "content-root", "", "override content root directory")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if serveFlags.role != "" {
		cfg.Server.Role = serveFlags.role
	}
	if serveFlags.contentRoot != "" {
		cfg.Server.ContentRoot = serveFlags.contentRoot
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if serveFlags.dryRun {
		fmt.Println("Configuration valid")
		return nil
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	if cfg.Telemetry.Metrics.Enabled {
		go func() {
			if err := collector.Serve(ctx, cfg.Telemetry.Metrics.ListenAddress, logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	builder := response.NewBuilder(cfg.Server.ContentRoot, logger)

	var application *app.App
	switch cfg.Server.Role {
	case "tracker":
		store, err := credstore.Open(cfg.CredStore)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		defer store.Close()
		application = app.NewTracker(builder, store, collector, logger)

	case "peer":
		application = app.NewPeer(builder, cfg.Server.ListenAddress, collector, logger)
		defer application.Close()

		host, port, err := net.SplitHostPort(cfg.Server.ListenAddress)
		if err != nil {
			return fmt.Errorf("invalid listen address %q: %w", cfg.Server.ListenAddress, err)
		}
		if err := app.RegisterWithTracker(cfg.Server.TrackerAddress, host, port, 5*time.Second); err != nil {
			logger.Warn("tracker registration failed", "tracker", cfg.Server.TrackerAddress, "error", err)
		} else {
			logger.Info("registered with tracker", "tracker", cfg.Server.TrackerAddress)
		}

	default:
		return fmt.Errorf("unknown role %q", cfg.Server.Role)
	}

	srv := server.New(cfg.Server.ListenAddress, application,
		cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, logger)

	logger.Info("starting application daemon",
		"address", cfg.Server.ListenAddress,
		"role", cfg.Server.Role,
		"content_root", cfg.Server.ContentRoot)
	return srv.Start(ctx)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"relayhq/courier/pkg/balance"
	"relayhq/courier/pkg/config"
	"relayhq/courier/pkg/proxy"
	"relayhq/courier/pkg/server"
	"relayhq/courier/pkg/telemetry/logging"
	"relayhq/courier/pkg/telemetry/metrics"
	"relayhq/courier/pkg/vhost"
)

var proxyFlags struct {
	listenAddress string
	logLevel      string
	hostsFile     string
	hostIP        string
	dryRun        bool
}

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Start the virtual-host reverse proxy",
	Long: `Start the reverse proxy with the specified configuration.

The proxy reads virtual host definitions from the hosts file, matches
each request's Host header against them, rotates origins round-robin,
and relays bytes verbatim. The hosts file is re-read on change without
restarting rotation.

Examples:
  # Start with default config
  courier proxy

  # Start with a specific hosts file
  courier proxy --hosts /etc/courier/proxy.conf

  # Substitute $HOST placeholders with a concrete address
  courier proxy --hosts proxy.conf --host-ip 192.168.1.10

  # Validate the hosts file without starting the proxy
  courier proxy --dry-run`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(proxyCmd)

	proxyCmd.Flags().StringVarP(&proxyFlags.listenAddress, "listen", "l", "", "override listen address")
	proxyCmd.Flags().StringVar(&proxyFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	proxyCmd.Flags().StringVar(&proxyFlags.hostsFile, "hosts", "", "override virtual hosts config file")
	proxyCmd.Flags().StringVar(&proxyFlags.hostIP, "host-ip", "", "override $HOST placeholder substitution")
	proxyCmd.Flags().BoolVar(&proxyFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if proxyFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = proxyFlags.listenAddress
	}
	if proxyFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = proxyFlags.logLevel
	}
	if proxyFlags.hostsFile != "" {
		cfg.Proxy.ConfigFile = proxyFlags.hostsFile
	}
	if proxyFlags.hostIP != "" {
		cfg.Proxy.HostIP = proxyFlags.hostIP
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	registry, err := vhost.ParseFile(cfg.Proxy.ConfigFile, cfg.Proxy.HostIP)
	if err != nil {
		return fmt.Errorf("failed to load virtual hosts: %w", err)
	}
	if proxyFlags.dryRun {
		fmt.Printf("Configuration valid (%d virtual hosts)\n", registry.Len())
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

	selector := balance.NewSelector()
	dispatcher := proxy.NewDispatcher(registry, selector, cfg.Proxy, collector, logger)

	if cfg.Proxy.WatchConfig {
		watcher := vhost.NewWatcher(cfg.Proxy.ConfigFile, cfg.Proxy.HostIP, dispatcher.SwapRegistry, logger)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("config watcher failed", "error", err)
			}
		}()
	}

	if cfg.Proxy.ProbeSchedule != "" {
		prober := balance.NewProber(selector, dispatcher.Registry,
			cfg.Proxy.ProbeSchedule, cfg.Proxy.ProbeTimeout, logger)
		prober.OnProbe(func(hostname, origin string, up bool) {
			collector.SetBackendUp(hostname, origin, up)
		})
		if err := prober.Start(ctx); err != nil {
			return fmt.Errorf("failed to start backend prober: %w", err)
		}
		defer prober.Stop()
	}

	srv := server.New(cfg.Proxy.ListenAddress, dispatcher,
		cfg.Proxy.ReadTimeout, cfg.Proxy.WriteTimeout, logger)

	logger.Info("starting reverse proxy",
		"address", cfg.Proxy.ListenAddress,
		"hosts_file", cfg.Proxy.ConfigFile,
		"virtual_hosts", registry.Len())
	return srv.Start(ctx)
}

package config

import "time"

// Default returns a configuration populated with every default value.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. It never
// overwrites a value the operator set explicitly.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = "127.0.0.1:8000"
	}
	if cfg.Server.ContentRoot == "" {
		cfg.Server.ContentRoot = "content"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.Role == "" {
		cfg.Server.Role = "tracker"
	}
	if cfg.Server.TrackerAddress == "" {
		cfg.Server.TrackerAddress = "127.0.0.1:8080"
	}

	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = "127.0.0.1:8080"
		// WatchConfig defaults on only when the operator did not
		// configure the proxy section at all.
		cfg.Proxy.WatchConfig = true
	}
	if cfg.Proxy.ConfigFile == "" {
		cfg.Proxy.ConfigFile = "config/proxy.conf"
	}
	if cfg.Proxy.DialTimeout <= 0 {
		cfg.Proxy.DialTimeout = 5 * time.Second
	}
	if cfg.Proxy.ReadTimeout <= 0 {
		cfg.Proxy.ReadTimeout = 30 * time.Second
	}
	if cfg.Proxy.WriteTimeout <= 0 {
		cfg.Proxy.WriteTimeout = 30 * time.Second
	}
	if cfg.Proxy.ProbeTimeout <= 0 {
		cfg.Proxy.ProbeTimeout = 2 * time.Second
	}

	if cfg.CredStore.Backend == "" {
		cfg.CredStore.Backend = "csv"
	}
	if cfg.CredStore.Path == "" {
		cfg.CredStore.Path = "db/database.csv"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "text"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = "127.0.0.1:9090"
		cfg.Telemetry.Metrics.Enabled = true
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "courier"
	}
}

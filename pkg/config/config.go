// Package config defines and loads the Courier configuration.
package config

import "time"

// Config is the root configuration structure. It covers both serving
// roles: the application daemon (`courier serve`) and the virtual-host
// reverse proxy (`courier proxy`).
type Config struct {
	// Server contains the application daemon's listener settings and
	// content root.
	Server ServerConfig `yaml:"server"`

	// Proxy contains the reverse proxy's listener, config-file, and
	// backend probing settings.
	Proxy ProxyConfig `yaml:"proxy"`

	// CredStore selects and configures the credential store backend.
	CredStore CredStoreConfig `yaml:"credstore"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the application daemon.
type ServerConfig struct {
	// ListenAddress is the address and port to bind ("host:port").
	// Default: "127.0.0.1:8000"
	ListenAddress string `yaml:"listen_address"`

	// ContentRoot is the directory holding the per-MIME content
	// subdirectories (www/, static/, csv/, xml/, apps/, videos/).
	// Default: "content"
	ContentRoot string `yaml:"content_root"`

	// ReadTimeout bounds reading one full request off a connection.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Role selects the sample application role: "tracker" or "peer".
	// Default: "tracker"
	Role string `yaml:"role"`

	// TrackerAddress is the tracker the peer role registers with.
	// Default: "127.0.0.1:8080"
	TrackerAddress string `yaml:"tracker_address"`
}

// ProxyConfig contains configuration for the reverse proxy.
type ProxyConfig struct {
	// ListenAddress is the address and port to bind.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ConfigFile is the path to the virtual host definitions.
	// Default: "config/proxy.conf"
	ConfigFile string `yaml:"config_file"`

	// HostIP replaces the $HOST / {{HOST}} placeholders in the config
	// file before parsing. Empty disables substitution.
	HostIP string `yaml:"host_ip"`

	// WatchConfig reloads the virtual host registry when the config
	// file changes.
	// Default: true
	WatchConfig bool `yaml:"watch_config"`

	// DialTimeout bounds connecting to a backend.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// ReadTimeout bounds reading the client request and the backend
	// response. A timeout while proxying becomes a 502, never a hang.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writes to either side.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ProbeSchedule is a cron expression for backend re-probing.
	// Empty disables probing and keeps selection health-agnostic.
	ProbeSchedule string `yaml:"probe_schedule"`

	// ProbeTimeout bounds one probe dial.
	// Default: 2s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// CredStoreConfig selects the credential store backing login.
type CredStoreConfig struct {
	// Backend is "csv" or "sqlite".
	// Default: "csv"
	Backend string `yaml:"backend"`

	// Path is the CSV file or SQLite database path.
	// Default: "db/database.csv"
	Path string `yaml:"path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json", "text", or "console".
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics endpoint's own listener.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Namespace prefixes every metric name.
	// Default: "courier"
	Namespace string `yaml:"namespace"`
}

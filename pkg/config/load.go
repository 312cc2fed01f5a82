package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, and validates the result. Environment variables
// use the COURIER_SECTION_FIELD convention (e.g. COURIER_PROXY_LISTEN_ADDRESS)
// and always take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads from path when the file exists and falls back to
// the defaults (still honoring environment overrides) when it does not.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		applyEnvOverrides(cfg)
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
		return cfg, nil
	}
	return Load(path)
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
			}
		}
	}

	setString("COURIER_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setString("COURIER_SERVER_CONTENT_ROOT", &cfg.Server.ContentRoot)
	setString("COURIER_SERVER_ROLE", &cfg.Server.Role)
	setString("COURIER_SERVER_TRACKER_ADDRESS", &cfg.Server.TrackerAddress)
	setDuration("COURIER_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("COURIER_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)

	setString("COURIER_PROXY_LISTEN_ADDRESS", &cfg.Proxy.ListenAddress)
	setString("COURIER_PROXY_CONFIG_FILE", &cfg.Proxy.ConfigFile)
	setString("COURIER_PROXY_HOST_IP", &cfg.Proxy.HostIP)
	setString("COURIER_PROXY_PROBE_SCHEDULE", &cfg.Proxy.ProbeSchedule)
	setDuration("COURIER_PROXY_DIAL_TIMEOUT", &cfg.Proxy.DialTimeout)
	setDuration("COURIER_PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	setDuration("COURIER_PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)

	setString("COURIER_CREDSTORE_BACKEND", &cfg.CredStore.Backend)
	setString("COURIER_CREDSTORE_PATH", &cfg.CredStore.Path)

	setString("COURIER_LOG_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("COURIER_LOG_FORMAT", &cfg.Telemetry.Logging.Format)
	setString("COURIER_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
}

package config

import (
	"fmt"
	"net"
)

// Validate checks the configuration for values that cannot work at
// runtime. It returns the first problem found.
func Validate(cfg *Config) error {
	if err := validateAddress("server.listen_address", cfg.Server.ListenAddress); err != nil {
		return err
	}
	if err := validateAddress("proxy.listen_address", cfg.Proxy.ListenAddress); err != nil {
		return err
	}

	switch cfg.Server.Role {
	case "tracker", "peer":
	default:
		return fmt.Errorf("server.role must be \"tracker\" or \"peer\", got %q", cfg.Server.Role)
	}

	switch cfg.CredStore.Backend {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("credstore.backend must be \"csv\" or \"sqlite\", got %q", cfg.CredStore.Backend)
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug/info/warn/error, got %q",
			cfg.Telemetry.Logging.Level)
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("telemetry.logging.format must be one of json/text/console, got %q",
			cfg.Telemetry.Logging.Format)
	}

	if cfg.Telemetry.Metrics.Enabled {
		if err := validateAddress("telemetry.metrics.listen_address", cfg.Telemetry.Metrics.ListenAddress); err != nil {
			return err
		}
	}

	return nil
}

func validateAddress(field, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s is not a valid host:port address: %w", field, err)
	}
	return nil
}

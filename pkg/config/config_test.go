package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.ListenAddress != "127.0.0.1:8000" {
		t.Errorf("Server.ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Proxy.ListenAddress != "127.0.0.1:8080" {
		t.Errorf("Proxy.ListenAddress = %q", cfg.Proxy.ListenAddress)
	}
	if !cfg.Proxy.WatchConfig {
		t.Error("Proxy.WatchConfig should default on")
	}
	if cfg.CredStore.Backend != "csv" {
		t.Errorf("CredStore.Backend = %q", cfg.CredStore.Backend)
	}
	if cfg.Telemetry.Metrics.Namespace != "courier" {
		t.Errorf("Metrics.Namespace = %q", cfg.Telemetry.Metrics.Namespace)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  listen_address: "0.0.0.0:9000"
  role: "peer"
proxy:
  listen_address: "0.0.0.0:9080"
  config_file: "/etc/courier/proxy.conf"
  host_ip: "192.168.1.10"
  dial_timeout: 10s
credstore:
  backend: "sqlite"
  path: "/var/lib/courier/users.db"
telemetry:
  logging:
    level: "debug"
    format: "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("Server.ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.Role != "peer" {
		t.Errorf("Server.Role = %q", cfg.Server.Role)
	}
	if cfg.Proxy.HostIP != "192.168.1.10" {
		t.Errorf("Proxy.HostIP = %q", cfg.Proxy.HostIP)
	}
	if cfg.Proxy.DialTimeout != 10*time.Second {
		t.Errorf("Proxy.DialTimeout = %v", cfg.Proxy.DialTimeout)
	}
	if cfg.CredStore.Backend != "sqlite" {
		t.Errorf("CredStore.Backend = %q", cfg.CredStore.Backend)
	}
	// Unset fields still get defaults.
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want default", cfg.Server.ReadTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`server: {listen_address: "127.0.0.1:8000"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("COURIER_SERVER_LISTEN_ADDRESS", "127.0.0.1:7777")
	t.Setenv("COURIER_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:7777" {
		t.Errorf("env override lost: %q", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("log level override lost: %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8000" {
		t.Errorf("expected defaults, got %q", cfg.Server.ListenAddress)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "bad listen address",
			mutate:  func(c *Config) { c.Server.ListenAddress = "no-port" },
			wantErr: true,
		},
		{
			name:    "bad role",
			mutate:  func(c *Config) { c.Server.Role = "supervisor" },
			wantErr: true,
		},
		{
			name:    "bad credstore backend",
			mutate:  func(c *Config) { c.CredStore.Backend = "postgres" },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantErr: true,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantErr: true,
		},
		{
			name: "metrics address ignored when disabled",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.Enabled = false
				c.Telemetry.Metrics.ListenAddress = "garbage"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

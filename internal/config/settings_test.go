package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCoreConfigDefaults(t *testing.T) {
	t.Setenv("STATUSD_HOME", filepath.Join(t.TempDir(), "data"))
	cfg, err := LoadCoreConfig()
	if err != nil {
		t.Fatalf("LoadCoreConfig: %v", err)
	}
	if cfg.DaemonAddress() != "0.0.0.0:8000" {
		t.Fatalf("unexpected daemon address: %q", cfg.DaemonAddress())
	}
	if cfg.DaemonBaseURL() != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected daemon base url: %q", cfg.DaemonBaseURL())
	}
	if cfg.LogLevel() != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel())
	}
	if !cfg.MetricsEnabled() {
		t.Fatalf("expected metrics enabled by default")
	}
}

func TestLoadCoreConfigFromTOML(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("STATUSD_HOME", dataDir)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := []byte("[daemon]\naddress = \"http://127.0.0.1:9999/\"\n\n[logging]\nlevel = \"debug\"\n\n[metrics]\nenabled = false\n")
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), content, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadCoreConfig()
	if err != nil {
		t.Fatalf("LoadCoreConfig: %v", err)
	}
	if cfg.DaemonAddress() != "127.0.0.1:9999" {
		t.Fatalf("unexpected daemon address: %q", cfg.DaemonAddress())
	}
	if cfg.DaemonBaseURL() != "http://127.0.0.1:9999" {
		t.Fatalf("unexpected daemon base url: %q", cfg.DaemonBaseURL())
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel())
	}
	if cfg.MetricsEnabled() {
		t.Fatalf("expected metrics disabled")
	}
}

func TestLoadCoreConfigRejectsInvalidTOML(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("STATUSD_HOME", dataDir)
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte("[daemon\naddress="), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadCoreConfig(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDaemonBaseURLRewritesWildcardHosts(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"0.0.0.0:8000", "http://127.0.0.1:8000"},
		{"[::]:8100", "http://127.0.0.1:8100"},
		{":8200", "http://127.0.0.1:8200"},
		{"192.168.1.20:8000", "http://192.168.1.20:8000"},
		{"", "http://127.0.0.1:8000"},
	}
	for _, tt := range tests {
		cfg := CoreConfig{Daemon: CoreDaemonConfig{Address: tt.addr}}
		if got := cfg.DaemonBaseURL(); got != tt.want {
			t.Errorf("DaemonBaseURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestMarshalTOMLRoundTripsDefaults(t *testing.T) {
	data, err := MarshalTOML(DefaultCoreConfig())
	if err != nil {
		t.Fatalf("MarshalTOML: %v", err)
	}
	if !strings.Contains(string(data), "address = '0.0.0.0:8000'") && !strings.Contains(string(data), "address = \"0.0.0.0:8000\"") {
		t.Fatalf("expected daemon address in output, got %s", data)
	}
}

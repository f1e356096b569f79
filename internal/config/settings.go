package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultDaemonAddress = "0.0.0.0:8000"

type CoreConfig struct {
	Daemon  CoreDaemonConfig  `toml:"daemon" json:"daemon"`
	Logging CoreLoggingConfig `toml:"logging" json:"logging"`
	Metrics CoreMetricsConfig `toml:"metrics" json:"metrics"`
}

type CoreDaemonConfig struct {
	Address string `toml:"address" json:"address"`
}

type CoreLoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type CoreMetricsConfig struct {
	Enabled *bool `toml:"enabled" json:"enabled,omitempty"`
}

func DefaultCoreConfig() CoreConfig {
	enabled := true
	return CoreConfig{
		Daemon: CoreDaemonConfig{
			Address: defaultDaemonAddress,
		},
		Logging: CoreLoggingConfig{
			Level: "info",
		},
		Metrics: CoreMetricsConfig{
			Enabled: &enabled,
		},
	}
}

func LoadCoreConfig() (CoreConfig, error) {
	path, err := CoreConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	return loadCoreConfigFromPath(path)
}

func (c CoreConfig) DaemonAddress() string {
	addr := strings.TrimSpace(c.Daemon.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultDaemonAddress
	}
	return addr
}

// DaemonBaseURL is the URL a local client uses to reach the daemon. A
// wildcard listen host is rewritten to loopback.
func (c CoreConfig) DaemonBaseURL() string {
	addr := c.DaemonAddress()
	switch {
	case strings.HasPrefix(addr, "0.0.0.0:"):
		addr = "127.0.0.1:" + strings.TrimPrefix(addr, "0.0.0.0:")
	case strings.HasPrefix(addr, "[::]:"):
		addr = "127.0.0.1:" + strings.TrimPrefix(addr, "[::]:")
	case strings.HasPrefix(addr, ":"):
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c CoreConfig) MetricsEnabled() bool {
	if c.Metrics.Enabled == nil {
		return true
	}
	return *c.Metrics.Enabled
}

func loadCoreConfigFromPath(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if err := readTOML(path, &cfg); err != nil {
		return CoreConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

// MarshalTOML renders cfg the way it would be written to config.toml.
func MarshalTOML(cfg CoreConfig) ([]byte, error) {
	return toml.Marshal(cfg)
}

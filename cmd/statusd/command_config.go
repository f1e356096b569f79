package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"statusd/internal/config"
)

type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type configOutput struct {
	CoreConfigPath string                 `json:"core_config_path,omitempty"`
	Daemon         effectiveDaemonConfig  `json:"daemon"`
	Logging        effectiveLoggingConfig `json:"logging"`
	Metrics        effectiveMetricsConfig `json:"metrics"`
}

type effectiveDaemonConfig struct {
	Address string `json:"address"`
	BaseURL string `json:"base_url"`
}

type effectiveLoggingConfig struct {
	Level string `json:"level"`
}

type effectiveMetricsConfig struct {
	Enabled bool `json:"enabled"`
}

func NewConfigCommand(stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		stdout: stdout,
		stderr: stderr,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := newFlagSet("config", c.stderr)
	defaults := fs.Bool("defaults", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	path, err := config.CoreConfigPath()
	if err != nil {
		return err
	}
	cfg := config.DefaultCoreConfig()
	if !*defaults {
		cfg, err = config.LoadCoreConfig()
		if err != nil {
			return err
		}
	}
	return writeConfigOutput(c.stdout, resolvedFormat, path, cfg)
}

// writeConfigOutput prints the effective values. TOML output is in the
// config.toml layout so it can be saved as a starting file.
func writeConfigOutput(out io.Writer, format, path string, cfg config.CoreConfig) error {
	switch format {
	case configFormatJSON:
		payload := configOutput{
			CoreConfigPath: path,
			Daemon: effectiveDaemonConfig{
				Address: cfg.DaemonAddress(),
				BaseURL: cfg.DaemonBaseURL(),
			},
			Logging: effectiveLoggingConfig{
				Level: cfg.LogLevel(),
			},
			Metrics: effectiveMetricsConfig{
				Enabled: cfg.MetricsEnabled(),
			},
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		enabled := cfg.MetricsEnabled()
		cfg.Daemon.Address = cfg.DaemonAddress()
		cfg.Logging.Level = cfg.LogLevel()
		cfg.Metrics.Enabled = &enabled
		data, err := config.MarshalTOML(cfg)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		if _, err := fmt.Fprintf(out, "# %s\n", path); err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDirName = ".statusd"
	homeEnvVar = "STATUSD_HOME"
	configFile = "config.toml"
	daemonLog  = "daemon.log"
	watchUILog = "watch.log"
)

// DataDir returns the base data directory for statusd. STATUSD_HOME
// overrides the default of ~/.statusd.
func DataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(homeEnvVar)); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// CoreConfigPath returns the path to the daemon configuration file.
func CoreConfigPath() (string, error) {
	return dataFile(configFile)
}

// DaemonLogPath returns the log file used by `daemon --background`.
func DaemonLogPath() (string, error) {
	return dataFile(daemonLog)
}

// WatchLogPath returns the log file used while the terminal view owns the screen.
func WatchLogPath() (string, error) {
	return dataFile(watchUILog)
}

func dataFile(name string) (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, name), nil
}

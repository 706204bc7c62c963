package ux

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the directory holding configuration and session files
const HomeEnv = "PIMIS_HOME"

// PathDefaults resolves the files the CLI reads and writes
type PathDefaults struct {
	Home string
}

// NewPathDefaults returns paths rooted at home, else $PIMIS_HOME, else
// ~/.pimis.
func NewPathDefaults(home string) *PathDefaults {
	if home == "" {
		home = os.Getenv(HomeEnv)
	}
	if home == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".pimis")
		} else {
			home = ".pimis"
		}
	}
	return &PathDefaults{Home: home}
}

// ConfigFile returns the path to config.yaml
func (pd *PathDefaults) ConfigFile() string {
	return filepath.Join(pd.Home, "config.yaml")
}

// SessionFile returns the default path of the file session store
func (pd *PathDefaults) SessionFile() string {
	return filepath.Join(pd.Home, "session.json")
}

// MetricsFile returns the default Prometheus textfile path
func (pd *PathDefaults) MetricsFile() string {
	return filepath.Join(pd.Home, "metrics.prom")
}

// Ensure creates the home directory with owner-only permissions
func (pd *PathDefaults) Ensure() error {
	return os.MkdirAll(pd.Home, 0o700)
}

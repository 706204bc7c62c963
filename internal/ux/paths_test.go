package ux

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewPathDefaults(t *testing.T) {
	t.Run("explicit home wins", func(t *testing.T) {
		t.Setenv(HomeEnv, "/from/env")
		pd := NewPathDefaults("/explicit")
		if pd.Home != "/explicit" {
			t.Errorf("Home = %q", pd.Home)
		}
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(HomeEnv, "/from/env")
		pd := NewPathDefaults("")
		if pd.ConfigFile() != filepath.Join("/from/env", "config.yaml") {
			t.Errorf("ConfigFile = %q", pd.ConfigFile())
		}
	})

	t.Run("user home", func(t *testing.T) {
		t.Setenv(HomeEnv, "")
		pd := NewPathDefaults("")
		if filepath.Base(pd.Home) != ".pimis" {
			t.Errorf("Home = %q", pd.Home)
		}
	})
}

func TestEnsure(t *testing.T) {
	pd := NewPathDefaults(filepath.Join(t.TempDir(), "nested", "home"))
	if err := pd.Ensure(); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	info, err := os.Stat(pd.Home)
	if err != nil || !info.IsDir() {
		t.Fatalf("home not created: %v", err)
	}
	if filepath.Base(pd.SessionFile()) != "session.json" || filepath.Base(pd.MetricsFile()) != "metrics.prom" {
		t.Error("unexpected file names")
	}
}

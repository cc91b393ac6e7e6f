package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	body := `
maxCacheAge: 300
ipMapFile: /etc/pacserver/zones.csv
pacRoot: /etc/pacserver/templates
contactInfo: ops@example.com
accessLogFile: /var/log/pacserver/access.log
eventLogFile: /var/log/pacserver/event.log
doAutoRefresh: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MaxCacheAge != 300*time.Second {
		t.Errorf("MaxCacheAge = %v, want 300s", cfg.MaxCacheAge)
	}
	if cfg.IPMapFile != "/etc/pacserver/zones.csv" {
		t.Errorf("IPMapFile = %q", cfg.IPMapFile)
	}
	if !cfg.DoAutoRefresh {
		t.Error("DoAutoRefresh = false, want true")
	}
}

func TestLoadMissingKeysDefaultToZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("ipMapFile: /zones.csv\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxCacheAge != 0 || cfg.ContactInfo != "" || cfg.DoAutoRefresh {
		t.Errorf("expected zero-valued defaults for unset keys, got %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

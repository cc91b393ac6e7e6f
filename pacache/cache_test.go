package pacache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeZoneFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "zones.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write zone file: %v", err)
	}
	return path
}

func writeTemplateDir(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	root := filepath.Join(dir, "templates")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir templates: %v", err)
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write template %s: %v", name, err)
		}
	}
	return root
}

func TestInitAndTree(t *testing.T) {
	dir := t.TempDir()
	zoneFile := writeZoneFile(t, dir, "10.0.0.0,8,corp.pac\n")
	tplDir := writeTemplateDir(t, dir, map[string]string{"corp.pac": "function FindProxyForURL(url,host){return \"DIRECT\";}"})

	c := New(Config{
		IPMapFile:   zoneFile,
		PACRoot:     tplDir,
		ContactInfo: "ops@example.com",
		MaxCacheAge: time.Hour,
	}, nil)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if c.Tree() == nil {
		t.Fatal("expected a published tree after Init")
	}
}

func TestInitFailsOnMissingZoneFile(t *testing.T) {
	dir := t.TempDir()
	tplDir := writeTemplateDir(t, dir, map[string]string{"corp.pac": "body"})

	c := New(Config{
		IPMapFile: filepath.Join(dir, "does-not-exist.csv"),
		PACRoot:   tplDir,
	}, nil)

	if err := c.Init(context.Background()); err == nil {
		t.Fatal("expected Init to fail when the zone file is missing")
	}
}

func TestRefreshKeepsTreeOnTotalFailure(t *testing.T) {
	dir := t.TempDir()
	zoneFile := writeZoneFile(t, dir, "10.0.0.0,8,corp.pac\n")
	tplDir := writeTemplateDir(t, dir, map[string]string{"corp.pac": "body"})

	c := New(Config{
		IPMapFile:   zoneFile,
		PACRoot:     tplDir,
		ContactInfo: "ops@example.com",
	}, nil)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	first := c.Tree()

	// Break both sources, then refresh: the tree must not change.
	if err := os.Remove(zoneFile); err != nil {
		t.Fatalf("remove zone file: %v", err)
	}
	if err := os.RemoveAll(tplDir); err != nil {
		t.Fatalf("remove template dir: %v", err)
	}

	c.Refresh()
	if c.Tree() != first {
		t.Fatal("expected the previously published tree to survive a total refresh failure")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := New(Config{MaxCacheAge: time.Millisecond}, nil)
	c.Stop()
	c.Stop()
}

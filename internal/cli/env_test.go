package cli

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnvLoaderLoadsFlagPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.env")
	if err := os.WriteFile(path, []byte("CLUSTER_TEST_VALUE=from-flag\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CLUSTERER_ENV_FILE", "")
	t.Setenv("HORSE_ENV_FILE", "")
	t.Setenv("CLUSTER_TEST_VALUE", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(dir, "missing.env"), "")
	if err := fs.Parse([]string{"--env", path}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != path {
		t.Fatalf("expected %s, got %s", path, loaded)
	}
	if got := os.Getenv("CLUSTER_TEST_VALUE"); got != "from-flag" {
		t.Fatalf("expected variable from env file, got %q", got)
	}
}

func TestEnvLoaderPrefersOverrideVariable(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "override.env")
	if err := os.WriteFile(override, []byte("CLUSTER_TEST_VALUE=from-override\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CLUSTERER_ENV_FILE", override)
	t.Setenv("CLUSTER_TEST_VALUE", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(dir, "missing.env"), "")
	var logs bytes.Buffer
	loader.logger = bootstrapLogger(&logs)

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded != override || os.Getenv("CLUSTER_TEST_VALUE") != "from-override" {
		t.Fatalf("expected override file to win, loaded %s", loaded)
	}
	if !strings.Contains(logs.String(), "CLUSTERER_ENV_FILE") {
		t.Fatalf("expected load to be logged, got %q", logs.String())
	}
}

func TestEnvLoaderMissingFile(t *testing.T) {
	t.Setenv("CLUSTERER_ENV_FILE", "")
	t.Setenv("HORSE_ENV_FILE", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(t.TempDir(), "absent.env"), "")
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for missing env file")
	}

	var nilLoader *EnvLoader
	if _, err := nilLoader.Load(); err == nil {
		t.Fatal("expected error for nil loader")
	}
}

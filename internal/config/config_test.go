package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("FORMSET_CONFIG_PATH", "")
	t.Setenv("FORMSET_DB_PATH", "")
	t.Setenv("FORMSET_MIGRATIONS_DIR", "")
	t.Setenv("FORMSET_AUTHOR", "")

	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "formset.db" {
		t.Fatalf("default db path = %q", cfg.DBPath)
	}

	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("db_path: from-file.db\ndefault_author: alice\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FORMSET_CONFIG_PATH", path)
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load with file: %v", err)
	}
	if cfg.DBPath != "from-file.db" || cfg.DefaultAuthor != "alice" {
		t.Fatalf("cfg = %+v", cfg)
	}

	// Environment beats the file.
	t.Setenv("FORMSET_DB_PATH", "from-env.db")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load with env: %v", err)
	}
	if cfg.DBPath != "from-env.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Setenv("FORMSET_CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

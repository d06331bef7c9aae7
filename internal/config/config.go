package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/parclip/formset/internal/utils"
)

// Config holds runtime settings. Values come from defaults, then an
// optional YAML file, then environment variables, in that order.
type Config struct {
	// DBPath is the SQLite database file. Empty means an in-memory store.
	DBPath string `yaml:"db_path"`
	// MigrationsDir overrides the embedded migrations when set.
	MigrationsDir string `yaml:"migrations_dir"`
	// DefaultAuthor is recorded as created_by when none is given.
	DefaultAuthor string `yaml:"default_author"`
}

const defaultConfigFile = "formset.yaml"

// Load builds the effective configuration. A missing config file is not an
// error unless FORMSET_CONFIG_PATH names it explicitly.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath: "formset.db",
	}

	path := os.Getenv("FORMSET_CONFIG_PATH")
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.DBPath = utils.SafeEnv("FORMSET_DB_PATH", cfg.DBPath)
	cfg.MigrationsDir = utils.SafeEnv("FORMSET_MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.DefaultAuthor = utils.SafeEnv("FORMSET_AUTHOR", cfg.DefaultAuthor)
	return cfg, nil
}

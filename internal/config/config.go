package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "aotbridge.yaml"

type Config struct {
	Project struct {
		Root     string `yaml:"root"`
		Manifest string `yaml:"manifest"` // YAML type manifest used instead of C# sources
	} `yaml:"project"`
	Output struct {
		Managed string `yaml:"managed"`
		Native  string `yaml:"native"`
	} `yaml:"output"`
	Bridge struct {
		Namespace      string            `yaml:"namespace"`
		Class          string            `yaml:"class"`
		Table          string            `yaml:"table"`
		Guard          string            `yaml:"guard"`
		ConfigAccessor string            `yaml:"config_accessor"`
		ConfigAccess   map[string]string `yaml:"config_access"` // type -> expression
		NativeTypes    map[string]string `yaml:"native_types"`  // managed type -> C type
	} `yaml:"bridge"`
	Store struct {
		Path     string `yaml:"path"`
		Disabled bool   `yaml:"disabled"`
	} `yaml:"store"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadConfig reads .env, then the YAML file, then environment overrides.
// An empty path, or the default path when it does not exist, yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	var cfg Config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	if root := os.Getenv("AOTBRIDGE_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if db := os.Getenv("AOTBRIDGE_DB"); db != "" {
		cfg.Store.Path = db
	}
	if level := os.Getenv("AOTBRIDGE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if accessor := os.Getenv("AOTBRIDGE_CONFIG_ACCESSOR"); accessor != "" {
		cfg.Bridge.ConfigAccessor = accessor
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Project.Root == "" {
		c.Project.Root = "."
	}
	if c.Output.Managed == "" {
		c.Output.Managed = filepath.Join("generated", "NativeCallbacks.g.cs")
	}
	if c.Output.Native == "" {
		c.Output.Native = filepath.Join("generated", "bridge_callbacks.h")
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(".aotbridge", "ledger.db")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if filepath.Clean(c.Output.Managed) == filepath.Clean(c.Output.Native) {
		return fmt.Errorf("output.managed and output.native must differ (%s)", c.Output.Managed)
	}
	return nil
}

// SlogLevel parses log.level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return lvl, nil
}

// ResolvePath makes p absolute-or-root-relative: relative paths are taken
// relative to the project root.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Project.Root, p)
}

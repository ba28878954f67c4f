package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/qrforge/qrforge/internal/logger"
	"github.com/qrforge/qrforge/internal/qr"
)

const appName = "qrforge"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the user configuration loaded from config.yaml and the
// environment.
type Config struct {
	Backend  string        `yaml:"backend"`
	Log      LogConfig     `yaml:"log"`
	Redis    RedisConfig   `yaml:"redis"`
	Defaults qr.Style      `yaml:"defaults"`
	History  HistoryConfig `yaml:"history"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	KeyPrefix      string        `yaml:"keyPrefix"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

type HistoryConfig struct {
	// Limit caps the undo stack; 0 means unbounded.
	Limit int `yaml:"limit"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: BackendSQLite,
		Log: LogConfig{
			Level: "warn",
		},
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			KeyPrefix:      appName,
			ConnectTimeout: 10 * time.Second,
		},
		Defaults: qr.DefaultStyle(),
	}
}

// GetDataDir resolves the base directory for all qrforge storage. It checks
// QRFORGE_DIR first, then XDG paths, and finally falls back to the user's
// home directory.
func GetDataDir() string {
	if explicit := os.Getenv("QRFORGE_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetDBPath returns the path to the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), appName+".db")
}

// GetExportsDir returns the default directory for exported images.
func GetExportsDir() string {
	return filepath.Join(GetDataDir(), "exports")
}

// GetConfigPath returns QRFORGE_CONFIG or the XDG config location.
func GetConfigPath() string {
	if explicit := os.Getenv("QRFORGE_CONFIG"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	configHome := xdg.ConfigHome
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), appName, "config.yaml")
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, appName, "config.yaml")
}

// Load reads the config file (a missing file is not an error), applies
// environment overrides and validates the result.
func Load() (*Config, error) {
	return LoadFile(GetConfigPath())
}

// LoadFile is Load with an explicit file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Defaults = cfg.Defaults.WithDefaults(qr.DefaultStyle())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("QRFORGE_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("QRFORGE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("QRFORGE_LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: QRFORGE_LOG_PRETTY=%q is not a boolean", ErrInvalidConfig, v)
		}
		c.Log.Pretty = pretty
	}
	if v := os.Getenv("QRFORGE_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("QRFORGE_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	return nil
}

// Validate rejects unknown backends, negative limits and invalid default
// styles.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown backend %q (valid values: sqlite, redis, memory)", ErrInvalidConfig, c.Backend)
	}

	if c.Backend == BackendRedis && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("%w: redis.addr is required for the redis backend", ErrInvalidConfig)
	}

	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: log.level %q (valid values: debug, info, warn, error)", ErrInvalidConfig, c.Log.Level)
	}

	if c.History.Limit < 0 {
		return fmt.Errorf("%w: history.limit must not be negative", ErrInvalidConfig)
	}

	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("%w: defaults: %w", ErrInvalidConfig, err)
	}

	return nil
}

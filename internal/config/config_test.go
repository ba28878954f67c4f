package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qrforge/qrforge/internal/qr"
)

func TestGetDataDirWithExplicitEnv(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom")

	t.Setenv("QRFORGE_DIR", customDir)
	t.Setenv("XDG_DATA_HOME", "")

	got := GetDataDir()
	if got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
}

func TestGetDataDirFallsBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	xdgDir := filepath.Join(tmpDir, "xdg")

	t.Setenv("QRFORGE_DIR", "")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	got := GetDataDir()
	want := filepath.Join(xdgDir, "qrforge")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGetDBAndExportsPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("QRFORGE_DIR", tmpDir)

	if got, want := GetDBPath(), filepath.Join(tmpDir, "qrforge.db"); got != want {
		t.Fatalf("expected db path %q, got %q", want, got)
	}
	if got, want := GetExportsDir(), filepath.Join(tmpDir, "exports"); got != want {
		t.Fatalf("expected exports dir %q, got %q", want, got)
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("QRFORGE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	if got, want := GetConfigPath(), filepath.Join(tmpDir, "qrforge", "config.yaml"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	explicit := filepath.Join(tmpDir, "custom.yaml")
	t.Setenv("QRFORGE_CONFIG", explicit)
	if got := GetConfigPath(); got != explicit {
		t.Fatalf("expected %q, got %q", explicit, got)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"QRFORGE_BACKEND",
		"QRFORGE_LOG_LEVEL",
		"QRFORGE_LOG_PRETTY",
		"QRFORGE_REDIS_ADDR",
		"QRFORGE_REDIS_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.Backend != BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.Backend)
	}
	if cfg.Defaults != qr.DefaultStyle() {
		t.Fatalf("expected default style, got %#v", cfg.Defaults)
	}
	if cfg.History.Limit != 0 {
		t.Fatalf("expected unbounded history, got %d", cfg.History.Limit)
	}
}

func TestLoadFileParsesYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `backend: redis
log:
  level: debug
  pretty: true
redis:
  addr: cache:6379
  db: 2
  keyPrefix: qr-test
  connectTimeout: 3s
defaults:
  color: "#ff0000"
  size: 300
history:
  limit: 25
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	if cfg.Backend != BackendRedis || cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 || cfg.Redis.KeyPrefix != "qr-test" {
		t.Fatalf("unexpected redis config %#v", cfg.Redis)
	}
	if cfg.Redis.ConnectTimeout != 3*time.Second {
		t.Fatalf("expected 3s connect timeout, got %s", cfg.Redis.ConnectTimeout)
	}
	if cfg.Defaults.Color != "#ff0000" || cfg.Defaults.Size != 300 {
		t.Fatalf("unexpected defaults %#v", cfg.Defaults)
	}
	if cfg.Defaults.BackgroundColor != qr.DefaultBackgroundColor || cfg.Defaults.ErrorCorrection != qr.DefaultErrorCorrection {
		t.Fatalf("expected unset defaults to be filled, got %#v", cfg.Defaults)
	}
	if cfg.History.Limit != 25 {
		t.Fatalf("expected history limit 25, got %d", cfg.History.Limit)
	}
}

func TestLoadFileEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("QRFORGE_BACKEND", "MEMORY")
	t.Setenv("QRFORGE_LOG_LEVEL", "error")
	t.Setenv("QRFORGE_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("QRFORGE_REDIS_PASSWORD", "secret")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.Backend != BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Backend)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("expected error level, got %q", cfg.Log.Level)
	}
	if cfg.Redis.Addr != "redis.internal:6380" || cfg.Redis.Password != "secret" {
		t.Fatalf("unexpected redis overrides %#v", cfg.Redis)
	}
}

func TestLoadFileRejectsInvalidConfig(t *testing.T) {
	clearEnv(t)

	cases := map[string]string{
		"malformed":       "backend: [unterminated",
		"unknown backend": "backend: postgres\n",
		"bad colour":      "defaults:\n  color: red\n",
		"bad size":        "defaults:\n  size: 50\n",
		"negative limit":  "history:\n  limit: -1\n",
		"unknown level":   "log:\n  level: trace\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestValidateWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Backend = "etcd"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = Default()
	cfg.Defaults.ErrorCorrection = "X"
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, qr.ErrInvalidStyle) {
		t.Fatalf("expected wrapped style error, got %v", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config captures everything flowdecoder reads from config.toml and the environment.
type Config struct {
	Storage Storage
	Editor  Editor
	Toasts  Toasts
	Log     Log
}

// Storage selects and locates the session backend.
type Storage struct {
	Backend    string
	Path       string
	RedisURL   string
	Namespace  string
	SessionTTL time.Duration
}

// Editor tunes decoding and persistence timing.
type Editor struct {
	Indent        int
	Strict        bool
	Debounce      time.Duration
	StatusDisplay time.Duration
}

// Toasts tunes the notification queue.
type Toasts struct {
	Max       int
	ExitDelay time.Duration
}

// Log locates the log file.
type Log struct {
	Path  string
	Level string
}

const (
	defaultConfigPath    = "~/.config/flowdecoder/config.toml"
	defaultLogPath       = "~/.local/state/flowdecoder/flowdecoder.log"
	defaultRedisURL      = "redis://127.0.0.1:6379/0"
	defaultNamespace     = "default"
	defaultSessionTTL    = 12 * time.Hour
	defaultIndent        = 4
	defaultDebounce      = 300 * time.Millisecond
	defaultStatusDisplay = time.Second
	defaultMaxToasts     = 5
	defaultExitDelay     = 300 * time.Millisecond
	defaultLogLevel      = "info"
)

type rawConfig struct {
	Storage struct {
		Backend         string `toml:"backend"`
		Path            string `toml:"path"`
		RedisURL        string `toml:"redis_url"`
		Namespace       string `toml:"namespace"`
		SessionTTLHours int    `toml:"session_ttl_hours"`
	} `toml:"storage"`
	Editor struct {
		Indent          int   `toml:"indent"`
		Strict          *bool `toml:"strict"`
		DebounceMS      int   `toml:"debounce_ms"`
		StatusDisplayMS int   `toml:"status_display_ms"`
	} `toml:"editor"`
	Toasts struct {
		Max         int `toml:"max"`
		ExitDelayMS int `toml:"exit_delay_ms"`
	} `toml:"toasts"`
	Log struct {
		Path  string `toml:"path"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// envOverrides are applied after the file. Empty or zero means unset.
type envOverrides struct {
	Backend    string `env:"FLOWDECODER_STORE"`
	Path       string `env:"FLOWDECODER_SESSION_DB"`
	RedisURL   string `env:"FLOWDECODER_REDIS_URL"`
	Namespace  string `env:"FLOWDECODER_SESSION"`
	LogLevel   string `env:"FLOWDECODER_LOG_LEVEL"`
	DebounceMS int    `env:"FLOWDECODER_DEBOUNCE_MS"`
	SessionID  string `env:"XDG_SESSION_ID"`
	RuntimeDir string `env:"XDG_RUNTIME_DIR"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage: Storage{
			Backend:    BackendSQLite,
			Path:       defaultSessionDB(os.Getenv("XDG_RUNTIME_DIR")),
			RedisURL:   defaultRedisURL,
			Namespace:  defaultNamespace,
			SessionTTL: defaultSessionTTL,
		},
		Editor: Editor{
			Indent:        defaultIndent,
			Strict:        true,
			Debounce:      defaultDebounce,
			StatusDisplay: defaultStatusDisplay,
		},
		Toasts: Toasts{Max: defaultMaxToasts, ExitDelay: defaultExitDelay},
		Log:    Log{Path: mustExpand(defaultLogPath), Level: defaultLogLevel},
	}
}

// Load reads the config file at path (or the default location), applies
// environment overrides and fills defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	bytes, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if len(bytes) > 0 {
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var envs envOverrides
	if err := env.Parse(&envs); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg := fromRaw(raw, envs)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return bytes, nil
}

func fromRaw(raw rawConfig, envs envOverrides) Config {
	cfg := Default()

	cfg.Storage.Backend = firstNonEmpty(envs.Backend, raw.Storage.Backend, BackendSQLite)
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	cfg.Storage.RedisURL = firstNonEmpty(envs.RedisURL, raw.Storage.RedisURL, defaultRedisURL)
	cfg.Storage.Namespace = firstNonEmpty(envs.Namespace, raw.Storage.Namespace, envs.SessionID, defaultNamespace)
	if raw.Storage.SessionTTLHours > 0 {
		cfg.Storage.SessionTTL = time.Duration(raw.Storage.SessionTTLHours) * time.Hour
	}
	cfg.Storage.Path = firstNonEmpty(envs.Path, raw.Storage.Path)
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultSessionDB(envs.RuntimeDir)
	}
	cfg.Storage.Path = mustExpand(cfg.Storage.Path)

	if raw.Editor.Indent > 0 {
		cfg.Editor.Indent = raw.Editor.Indent
	}
	if raw.Editor.Strict != nil {
		cfg.Editor.Strict = *raw.Editor.Strict
	}
	if ms := firstPositive(envs.DebounceMS, raw.Editor.DebounceMS); ms > 0 {
		cfg.Editor.Debounce = time.Duration(ms) * time.Millisecond
	}
	if raw.Editor.StatusDisplayMS > 0 {
		cfg.Editor.StatusDisplay = time.Duration(raw.Editor.StatusDisplayMS) * time.Millisecond
	}

	if raw.Toasts.Max > 0 {
		cfg.Toasts.Max = raw.Toasts.Max
	}
	if raw.Toasts.ExitDelayMS > 0 {
		cfg.Toasts.ExitDelay = time.Duration(raw.Toasts.ExitDelayMS) * time.Millisecond
	}

	if p := strings.TrimSpace(raw.Log.Path); p != "" {
		cfg.Log.Path = mustExpand(p)
	}
	cfg.Log.Level = strings.ToLower(firstNonEmpty(envs.LogLevel, raw.Log.Level, defaultLogLevel))

	return cfg
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want sqlite, redis or memory)", c.Storage.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// defaultSessionDB puts the database in the per-login runtime directory, which
// is emptied at logout, falling back to the temp dir.
func defaultSessionDB(runtimeDir string) string {
	dir := strings.TrimSpace(runtimeDir)
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("flowdecoder-%d", os.Getuid()))
		return filepath.Join(dir, "session.db")
	}
	return filepath.Join(dir, "flowdecoder", "session.db")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/intervald/internal/platform"
)

const envPrefix = "INTERVALD_"

type WakeLockConfig struct {
	Enabled bool          `yaml:"enabled"`
	Ceiling time.Duration `yaml:"ceiling"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File receives TUI logs, since the terminal belongs to the UI.
	File string `yaml:"file"`
}

// Runtime is everything intervald reads at startup. Workout settings are
// not here; they live in the preference store.
type Runtime struct {
	DatabasePath         string               `yaml:"database"`
	SocketPath           string               `yaml:"socket"`
	TickInterval         time.Duration        `yaml:"tick_interval"`
	WakeLock             WakeLockConfig       `yaml:"wake_lock"`
	Cues                 platform.CueCommands `yaml:"cues"`
	Bell                 bool                 `yaml:"bell"`
	DesktopNotifications bool                 `yaml:"desktop_notifications"`
	DedupePause          bool                 `yaml:"dedupe_pause"`
	Metrics              bool                 `yaml:"metrics"`
	Logging              LoggingConfig        `yaml:"logging"`
}

func DefaultRuntime() Runtime {
	return Runtime{
		DatabasePath: filepath.Join(stateDir(), "intervald.db"),
		SocketPath:   filepath.Join(runtimeDir(), "intervald.sock"),
		TickInterval: time.Second,
		WakeLock: WakeLockConfig{
			Enabled: true,
			Ceiling: 10 * time.Hour,
		},
		Bell:    true,
		Metrics: true,
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(stateDir(), "intervald.log"),
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "intervald.yaml"
	}
	return filepath.Join(dir, "intervald", "config.yaml")
}

// LoadFile reads path over the defaults. A missing file yields the defaults.
func LoadFile(path string) (Runtime, error) {
	cfg := DefaultRuntime()
	if path == "" {
		path = DefaultPath()
	}
	b, err := os.ReadFile(ExpandPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Runtime{}, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Runtime{}, fmt.Errorf("decode config yaml: %w", err)
	}
	return cfg, nil
}

// FromEnv applies INTERVALD_* overrides on top of base.
func FromEnv(base Runtime) Runtime {
	cfg := base
	if v, ok := getEnvString("DB"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := getEnvString("SOCKET"); ok {
		cfg.SocketPath = v
	}
	if v, ok := getEnvDuration("TICK_INTERVAL"); ok && v > 0 {
		cfg.TickInterval = v
	}
	if v, ok := getEnvBool("WAKE_LOCK"); ok {
		cfg.WakeLock.Enabled = v
	}
	if v, ok := getEnvDuration("WAKE_LOCK_CEILING"); ok && v > 0 {
		cfg.WakeLock.Ceiling = v
	}
	if v, ok := getEnvBool("BELL"); ok {
		cfg.Bell = v
	}
	if v, ok := getEnvBool("DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvBool("DEDUPE_PAUSE"); ok {
		cfg.DedupePause = v
	}
	if v, ok := getEnvBool("METRICS"); ok {
		cfg.Metrics = v
	}
	if v, ok := getEnvString("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := getEnvString("LOG_FILE"); ok {
		cfg.Logging.File = v
	}
	return cfg
}

func (c Runtime) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("config: database path is empty")
	}
	if strings.TrimSpace(c.SocketPath) == "" {
		return errors.New("config: socket path is empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.WakeLock.Ceiling <= 0 {
		return fmt.Errorf("config: wake_lock.ceiling must be positive, got %s", c.WakeLock.Ceiling)
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// Load is LoadFile followed by FromEnv and Validate.
func Load(path string) (Runtime, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return Runtime{}, err
	}
	cfg = FromEnv(cfg)
	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)
	cfg.SocketPath = ExpandPath(cfg.SocketPath)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)
	if err := cfg.Validate(); err != nil {
		return Runtime{}, err
	}
	return cfg, nil
}

// ExpandPath resolves a leading ~ to the home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "intervald")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "intervald")
	}
	return "."
}

func runtimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + name))
	return raw, raw != ""
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, true
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

func getEnvBool(name string) (bool, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

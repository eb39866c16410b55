package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "glm-wedge"

// Config holds all application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Device    DeviceConfig    `yaml:"device"`
	Inject    InjectConfig    `yaml:"inject"`
	Hotkey    HotkeyConfig    `yaml:"hotkey"`
	Cue       CueConfig       `yaml:"cue"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// DeviceConfig holds device discovery and identity settings.
type DeviceConfig struct {
	IdentityPath string        `yaml:"identity_path"`
	NameHint     string        `yaml:"name_hint"`
	ScanTimeout  time.Duration `yaml:"scan_timeout"`
}

// InjectConfig holds output sink settings.
type InjectConfig struct {
	Method    string `yaml:"method"`     // "type", "paste" or "log"
	SubmitKey string `yaml:"submit_key"` // tapped after each value, "" disables
}

// HotkeyConfig holds the pause hotkey. An empty key list disables it.
type HotkeyConfig struct {
	Keys []string `yaml:"keys"`
}

// CueConfig controls the audible cue played after each injected value.
type CueConfig struct {
	Enabled bool   `yaml:"enabled"`
	WAVPath string `yaml:"wav_path"` // empty plays a synthesized beep
}

// ReconnectConfig bounds automatic session restarts.
type ReconnectConfig struct {
	Attempts   int `yaml:"attempts"`    // 0 exits on the first connection error
	BackoffMax int `yaml:"backoff_max"` // seconds
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Device: DeviceConfig{
			IdentityPath: filepath.Join(DefaultConfigDir(), "device.json"),
			NameHint:     "GLM",
			ScanTimeout:  5 * time.Second,
		},
		Inject: InjectConfig{
			Method:    "type",
			SubmitKey: "enter",
		},
		Hotkey: HotkeyConfig{
			Keys: []string{},
		},
		Reconnect: ReconnectConfig{
			Attempts:   0,
			BackoffMax: 30,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Device.IdentityPath = expandTilde(cfg.Device.IdentityPath)
	cfg.Cue.WAVPath = expandTilde(cfg.Cue.WAVPath)

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("[CONFIG] no config file, using defaults", "path", path)
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.IdentityPath == "" {
		return fmt.Errorf("device.identity_path must not be empty")
	}

	if c.Device.ScanTimeout <= 0 {
		return fmt.Errorf("device.scan_timeout must be > 0, got %s", c.Device.ScanTimeout)
	}

	switch c.Inject.Method {
	case "type", "paste", "log":
	default:
		return fmt.Errorf("inject.method must be \"type\", \"paste\" or \"log\", got %q", c.Inject.Method)
	}

	if c.Reconnect.Attempts < 0 {
		return fmt.Errorf("reconnect.attempts must be >= 0, got %d", c.Reconnect.Attempts)
	}

	if c.Reconnect.BackoffMax <= 0 {
		return fmt.Errorf("reconnect.backoff_max must be > 0, got %d", c.Reconnect.BackoffMax)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

const defaultHeader = `# glm-wedge configuration
#
# inject.method      type (keystrokes), paste (clipboard + shortcut) or log
# inject.submit_key  key tapped after each value, e.g. enter or tab; "" disables
# hotkey.keys        pause/resume toggle, e.g. [ctrl, shift, m]; [] disables
# cue.wav_path       WAV file played after each value; "" plays a beep
# reconnect.attempts restarts after a connection error; 0 exits immediately

`

// WriteDefault writes the default config to DefaultConfigPath. It returns
// the written path, or ("", nil) when a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// ParseLogLevel maps a log_level value to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

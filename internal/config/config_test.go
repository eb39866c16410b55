package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !strings.HasSuffix(cfg.Device.IdentityPath, filepath.Join("glm-wedge", "device.json")) {
		t.Errorf("Device.IdentityPath = %q, want .../glm-wedge/device.json", cfg.Device.IdentityPath)
	}
	if cfg.Device.NameHint != "GLM" {
		t.Errorf("Device.NameHint = %q, want %q", cfg.Device.NameHint, "GLM")
	}
	if cfg.Device.ScanTimeout != 5*time.Second {
		t.Errorf("Device.ScanTimeout = %v, want 5s", cfg.Device.ScanTimeout)
	}
	if cfg.Inject.Method != "type" {
		t.Errorf("Inject.Method = %q, want %q", cfg.Inject.Method, "type")
	}
	if cfg.Inject.SubmitKey != "enter" {
		t.Errorf("Inject.SubmitKey = %q, want %q", cfg.Inject.SubmitKey, "enter")
	}
	if len(cfg.Hotkey.Keys) != 0 {
		t.Errorf("Hotkey.Keys = %v, want empty", cfg.Hotkey.Keys)
	}
	if cfg.Cue.Enabled {
		t.Error("Cue.Enabled should default to false")
	}
	if cfg.Reconnect.Attempts != 0 || cfg.Reconnect.BackoffMax != 30 {
		t.Errorf("Reconnect = %+v, want {0 30}", cfg.Reconnect)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfgPath := writeConfig(t, `
log_level: debug
device:
  identity_path: /tmp/glm/device.json
  name_hint: bosch
  scan_timeout: 8s
inject:
  method: paste
  submit_key: tab
hotkey:
  keys: ["ctrl", "shift", "m"]
cue:
  enabled: true
  wav_path: /tmp/beep.wav
reconnect:
  attempts: 3
  backoff_max: 10
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.IdentityPath != "/tmp/glm/device.json" {
		t.Errorf("Device.IdentityPath = %q", cfg.Device.IdentityPath)
	}
	if cfg.Device.NameHint != "bosch" {
		t.Errorf("Device.NameHint = %q, want %q", cfg.Device.NameHint, "bosch")
	}
	if cfg.Device.ScanTimeout != 8*time.Second {
		t.Errorf("Device.ScanTimeout = %v, want 8s", cfg.Device.ScanTimeout)
	}
	if cfg.Inject.Method != "paste" || cfg.Inject.SubmitKey != "tab" {
		t.Errorf("Inject = %+v, want {paste tab}", cfg.Inject)
	}
	if len(cfg.Hotkey.Keys) != 3 || cfg.Hotkey.Keys[2] != "m" {
		t.Errorf("Hotkey.Keys = %v, want [ctrl shift m]", cfg.Hotkey.Keys)
	}
	if !cfg.Cue.Enabled || cfg.Cue.WAVPath != "/tmp/beep.wav" {
		t.Errorf("Cue = %+v", cfg.Cue)
	}
	if cfg.Reconnect.Attempts != 3 || cfg.Reconnect.BackoffMax != 10 {
		t.Errorf("Reconnect = %+v, want {3 10}", cfg.Reconnect)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "inject:\n  method: log\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Inject.Method != "log" {
		t.Errorf("Inject.Method = %q, want log", cfg.Inject.Method)
	}
	if cfg.Inject.SubmitKey != "enter" {
		t.Errorf("Inject.SubmitKey = %q, want default enter", cfg.Inject.SubmitKey)
	}
	if cfg.Device.ScanTimeout != 5*time.Second {
		t.Errorf("Device.ScanTimeout = %v, want default 5s", cfg.Device.ScanTimeout)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	cfg, err := Load(writeConfig(t, `
device:
  identity_path: ~/glm/device.json
cue:
  wav_path: ~/sounds/beep.wav
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := filepath.Join(home, "glm/device.json"); cfg.Device.IdentityPath != want {
		t.Errorf("Device.IdentityPath = %q, want %q", cfg.Device.IdentityPath, want)
	}
	if want := filepath.Join(home, "sounds/beep.wav"); cfg.Cue.WAVPath != want {
		t.Errorf("Cue.WAVPath = %q, want %q", cfg.Cue.WAVPath, want)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "device: [unclosed\n"))
	if err == nil {
		t.Error("Load() should return error for malformed YAML")
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Inject.Method != "type" {
		t.Errorf("Inject.Method = %q, want default", cfg.Inject.Method)
	}

	if _, err := LoadOrDefault(writeConfig(t, "log_level: [\n")); err == nil {
		t.Error("LoadOrDefault() should still report parse errors")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "log inject method",
			modify:  func(c *Config) { c.Inject.Method = "log" },
			wantErr: false,
		},
		{
			name:    "empty submit key",
			modify:  func(c *Config) { c.Inject.SubmitKey = "" },
			wantErr: false,
		},
		{
			name:    "invalid inject method",
			modify:  func(c *Config) { c.Inject.Method = "invalid" },
			wantErr: true,
		},
		{
			name:    "empty identity path",
			modify:  func(c *Config) { c.Device.IdentityPath = "" },
			wantErr: true,
		},
		{
			name:    "zero scan timeout",
			modify:  func(c *Config) { c.Device.ScanTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative reconnect attempts",
			modify:  func(c *Config) { c.Reconnect.Attempts = -1 },
			wantErr: true,
		},
		{
			name:    "zero backoff max",
			modify:  func(c *Config) { c.Reconnect.BackoffMax = 0 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "glm-wedge", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# glm-wedge") {
		t.Error("written config should start with header comment")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Device.ScanTimeout != 5*time.Second {
		t.Errorf("written config Device.ScanTimeout = %v, want 5s", cfg.Device.ScanTimeout)
	}
	if cfg.Inject.Method != "type" {
		t.Errorf("written config Inject.Method = %q, want %q", cfg.Inject.Method, "type")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config does not validate: %v", err)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "glm-wedge")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("log_level: debug\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

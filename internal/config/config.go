package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config root configuration
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Guard     GuardConfig     `mapstructure:"guard"`
	Exec      ExecConfig      `mapstructure:"exec"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Log       LogConfig       `mapstructure:"log"`
}

// WorkspaceConfig controls where commands run by default
type WorkspaceConfig struct {
	Mode string `mapstructure:"mode"` // default | cwd | path
	Path string `mapstructure:"path"`
}

// GuardConfig command policy settings. An empty deny list means the
// built-in default deny set; an empty allow list disables the allowlist.
type GuardConfig struct {
	DenyPatterns        []string `mapstructure:"deny_patterns"`
	AllowPatterns       []string `mapstructure:"allow_patterns"`
	RestrictToWorkspace bool     `mapstructure:"restrict_to_workspace"`
}

// ExecConfig subprocess runner settings
type ExecConfig struct {
	Timeout        int `mapstructure:"timeout"` // seconds
	MaxOutputChars int `mapstructure:"max_output_chars"`
}

// AuditConfig audit trail settings
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig application logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultConfig returns config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Mode: "default",
		},
		Guard: GuardConfig{
			DenyPatterns:        []string{},
			AllowPatterns:       []string{},
			RestrictToWorkspace: true,
		},
		Exec: ExecConfig{
			Timeout:        60,
			MaxOutputChars: 10000,
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

// ConfigDir returns the warden config directory
func ConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".warden")
}

// ConfigPath returns the config file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load loads config from file or returns defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := ConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("WARDEN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.MatchName = func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		}
	}); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}

// Save saves config to file
func Save(cfg *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Validate checks that the configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Exec.Timeout < 0 {
		return fmt.Errorf("exec.timeout must not be negative, got %d", c.Exec.Timeout)
	}
	if c.Exec.Timeout == 0 {
		c.Exec.Timeout = 60
	}

	if c.Exec.MaxOutputChars < 0 {
		return fmt.Errorf("exec.max_output_chars must not be negative, got %d", c.Exec.MaxOutputChars)
	}
	if c.Exec.MaxOutputChars == 0 {
		c.Exec.MaxOutputChars = 10000
	}

	mode := strings.TrimSpace(c.Workspace.Mode)
	if mode != "" {
		validModes := map[string]bool{"default": true, "cwd": true, "path": true}
		if !validModes[strings.ToLower(mode)] {
			return fmt.Errorf("workspace.mode must be one of: default, cwd, path; got %q", mode)
		}
		if strings.EqualFold(mode, "path") && strings.TrimSpace(c.Workspace.Path) == "" {
			return fmt.Errorf("workspace.path must be non-empty when workspace.mode is \"path\"")
		}
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		c.Log.Level = "info"
	} else {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
		}
		c.Log.Level = level
	}

	return nil
}

// WorkspacePath returns the expanded workspace path
func (c *Config) WorkspacePath() string {
	path, err := c.WorkspacePathChecked()
	if err != nil {
		return filepath.Join(ConfigDir(), "workspace")
	}
	return path
}

// WorkspacePathChecked returns the expanded workspace path or an error if invalid.
func (c *Config) WorkspacePathChecked() (string, error) {
	mode := strings.TrimSpace(c.Workspace.Mode)
	if mode == "" || strings.EqualFold(mode, "default") {
		return filepath.Join(ConfigDir(), "workspace"), nil
	}
	if strings.EqualFold(mode, "cwd") {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve cwd: %w", err)
		}
		return wd, nil
	}
	if !strings.EqualFold(mode, "path") {
		return "", fmt.Errorf("unknown workspace mode: %s", mode)
	}
	if c.Workspace.Path == "" {
		return "", fmt.Errorf("workspace.path is required when workspace.mode=path")
	}
	if c.Workspace.Path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory for workspace path: %w", err)
		}
		rest := c.Workspace.Path[1:]
		rest = strings.TrimPrefix(rest, string(filepath.Separator))
		rest = strings.TrimPrefix(rest, "/")
		return filepath.Join(homeDir, rest), nil
	}
	return c.Workspace.Path, nil
}

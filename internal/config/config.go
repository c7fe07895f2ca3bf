// Package config handles configuration for chatstream.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (CHATSTREAM_ENDPOINT, ...)
const EnvPrefix = "CHATSTREAM"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" mapstructure:"style"`                           // "wheat", "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji" mapstructure:"enable_emoji"`             // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines" mapstructure:"preserve_newlines"`   // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap" mapstructure:"table_wrap"`                 // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links" mapstructure:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// Endpoint is the completion URL prompts are POSTed to.
	// Empty means unconfigured: submissions are recorded but never sent.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	// TimeoutSeconds is handed to the transport as its overall timeout.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	// Verbose enables diagnostic logging on stderr for one-shot queries.
	Verbose         bool           `json:"verbose" mapstructure:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard" mapstructure:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty" mapstructure:"tui_theme"` // TUI color theme
	Markdown        MarkdownConfig `json:"markdown,omitempty" mapstructure:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "wheat",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:        "",
		TimeoutSeconds:  300, // 5 minutes
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "wheat",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// ResolveEndpoint parses the configured endpoint into its explicit form
func (c Config) ResolveEndpoint() (Endpoint, error) {
	return ParseEndpoint(c.Endpoint)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".chatstream")
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Loader layers defaults, the JSON config file, CHATSTREAM_* environment
// variables and bound command-line flags, in increasing precedence.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader creates a loader reading the config file at path.
// An empty path means the default location under the user's home.
func NewLoader(path string) *Loader {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("timeout_seconds", def.TimeoutSeconds)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("copy_to_clipboard", def.CopyToClipboard)
	v.SetDefault("tui_theme", def.TUITheme)
	v.SetDefault("markdown.style", def.Markdown.Style)
	v.SetDefault("markdown.enable_emoji", def.Markdown.EnableEmoji)
	v.SetDefault("markdown.preserve_newlines", def.Markdown.PreserveNewLines)
	v.SetDefault("markdown.table_wrap", def.Markdown.TableWrap)
	v.SetDefault("markdown.inline_table_links", def.Markdown.InlineTableLinks)

	return &Loader{v: v, path: path}
}

// BindFlag makes a command-line flag override key when the flag was set
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("flag for %q not found", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load resolves the configuration. A missing config file is not an error.
func (l *Loader) Load() (Config, error) {
	path := l.path
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return DefaultConfig(), err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// LoadConfig loads the configuration from the default location and environment
func LoadConfig() (Config, error) {
	return NewLoader("").Load()
}

// SaveConfig saves the configuration to the default location
func SaveConfig(cfg Config) error {
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(configPath, cfg)
}

// SaveConfigTo writes cfg as JSON to path, readable only by the owner
func SaveConfigTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadFile reads only the config file at path over the defaults, ignoring
// environment overrides. Use it before rewriting the file.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SetValue updates a single key on cfg from its string form.
// Keys use the JSON names, with "markdown." for nested fields.
func SetValue(cfg *Config, key, value string) error {
	switch key {
	case "endpoint":
		if _, err := ParseEndpoint(value); err != nil {
			return err
		}
		cfg.Endpoint = strings.TrimSpace(value)
	case "timeout_seconds":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil || n < 0 {
			return fmt.Errorf("timeout_seconds must be a non-negative integer, got %q", value)
		}
		cfg.TimeoutSeconds = n
	case "verbose":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.Verbose = b
	case "copy_to_clipboard":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.CopyToClipboard = b
	case "tui_theme":
		cfg.TUITheme = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "markdown.enable_emoji":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.Markdown.EnableEmoji = b
	case "markdown.preserve_newlines":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.Markdown.PreserveNewLines = b
	case "markdown.table_wrap":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.Markdown.TableWrap = b
	case "markdown.inline_table_links":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		cfg.Markdown.InlineTableLinks = b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Keys returns the settable configuration keys
func Keys() []string {
	return []string{
		"endpoint",
		"timeout_seconds",
		"verbose",
		"copy_to_clipboard",
		"tui_theme",
		"markdown.style",
		"markdown.enable_emoji",
		"markdown.preserve_newlines",
		"markdown.table_wrap",
		"markdown.inline_table_links",
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("expected a boolean, got %q", value)
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Endpoint != "" {
		t.Errorf("Expected default endpoint to be empty, got '%s'", cfg.Endpoint)
	}

	if cfg.TimeoutSeconds != 300 {
		t.Errorf("Expected TimeoutSeconds to be 300, got %d", cfg.TimeoutSeconds)
	}

	if cfg.Verbose != false {
		t.Errorf("Expected Verbose to be false, got %v", cfg.Verbose)
	}

	if cfg.Markdown.Style != "wheat" {
		t.Errorf("Expected markdown style 'wheat', got '%s'", cfg.Markdown.Style)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("GetConfigPath() returned relative path: %s", path)
	}
	if filepath.Base(path) != "config.json" {
		t.Errorf("GetConfigPath() should end with config.json, got %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != ".chatstream" {
		t.Errorf("config should live under .chatstream, got %s", path)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}

	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfg := DefaultConfig()
	cfg.Endpoint = "https://chat.example.test/api/stream"
	cfg.Verbose = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".chatstream", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if saved != cfg {
		t.Errorf("saved = %+v, want %+v", saved, cfg)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}
}

func TestLoadConfig_WithExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".chatstream")
	_ = os.MkdirAll(configDir, 0o700)

	content := `{"endpoint": "http://localhost:8000/chat", "verbose": true, "markdown": {"style": "dark"}}`
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}

	if cfg.Endpoint != "http://localhost:8000/chat" {
		t.Errorf("Endpoint = %s", cfg.Endpoint)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be true")
	}
	if cfg.Markdown.Style != "dark" {
		t.Errorf("Markdown.Style = %s, want dark", cfg.Markdown.Style)
	}
	// Unset keys keep their defaults
	if cfg.TimeoutSeconds != 300 {
		t.Errorf("TimeoutSeconds = %d, want 300", cfg.TimeoutSeconds)
	}
	if !cfg.Markdown.EnableEmoji {
		t.Error("Markdown.EnableEmoji should keep its default")
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".chatstream")
	_ = os.MkdirAll(configDir, 0o700)
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(`{"invalid": json content`), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Error("LoadConfig() with invalid JSON should return error")
	}
	if cfg != DefaultConfig() {
		t.Errorf("LoadConfig() on error should return defaults, got %+v", cfg)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("CHATSTREAM_ENDPOINT", "https://env.example.test/")
	t.Setenv("CHATSTREAM_MARKDOWN_STYLE", "light")

	configDir := filepath.Join(tmpDir, ".chatstream")
	_ = os.MkdirAll(configDir, 0o700)
	_ = os.WriteFile(filepath.Join(configDir, "config.json"), []byte(`{"endpoint": "https://file.example.test/"}`), 0o600)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Endpoint != "https://env.example.test/" {
		t.Errorf("Endpoint = %s, want env value", cfg.Endpoint)
	}
	if cfg.Markdown.Style != "light" {
		t.Errorf("Markdown.Style = %s, want light", cfg.Markdown.Style)
	}
}

func TestLoader_FlagOverridesEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHATSTREAM_ENDPOINT", "https://env.example.test/")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("endpoint", "", "")
	if err := fs.Parse([]string{"--endpoint", "https://flag.example.test/"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	loader := NewLoader("")
	if err := loader.BindFlag("endpoint", fs.Lookup("endpoint")); err != nil {
		t.Fatalf("BindFlag() error: %v", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Endpoint != "https://flag.example.test/" {
		t.Errorf("Endpoint = %s, want flag value", cfg.Endpoint)
	}

	if err := loader.BindFlag("verbose", nil); err == nil {
		t.Error("BindFlag(nil) should fail")
	}
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(Config) bool
	}{
		{"endpoint", "https://a.test/x", false, func(c Config) bool { return c.Endpoint == "https://a.test/x" }},
		{"endpoint", "ftp://a.test", true, nil},
		{"timeout_seconds", "60", false, func(c Config) bool { return c.TimeoutSeconds == 60 }},
		{"timeout_seconds", "-1", true, nil},
		{"verbose", "yes", false, func(c Config) bool { return c.Verbose }},
		{"copy_to_clipboard", "maybe", true, nil},
		{"markdown.style", "light", false, func(c Config) bool { return c.Markdown.Style == "light" }},
		{"markdown.table_wrap", "off", false, func(c Config) bool { return !c.Markdown.TableWrap }},
		{"nope", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			err := SetValue(&cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("SetValue(%s, %s) produced %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestKeysAreSettable(t *testing.T) {
	for _, key := range Keys() {
		cfg := DefaultConfig()
		value := "true"
		switch key {
		case "endpoint":
			value = "http://localhost:1"
		case "timeout_seconds":
			value = "1"
		case "tui_theme", "markdown.style":
			value = "dark"
		}
		if err := SetValue(&cfg, key, value); err != nil {
			t.Errorf("SetValue(%s) error: %v", key, err)
		}
	}
}

func TestSaveConfigTo_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Endpoint = "http://localhost:8000/chat"
	cfg.TimeoutSeconds = 30
	if err := SaveConfigTo(path, cfg); err != nil {
		t.Fatalf("SaveConfigTo() returned error: %v", err)
	}

	t.Setenv("CHATSTREAM_ENDPOINT", "https://ignored.example.test")
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() returned error: %v", err)
	}
	if got != cfg {
		t.Errorf("LoadFile() = %+v, want %+v", got, cfg)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	got, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFile() returned error: %v", err)
	}
	if got != DefaultConfig() {
		t.Errorf("missing file should yield defaults, got %+v", got)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("invalid JSON should return an error")
	}
}

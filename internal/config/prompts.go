package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/diogo/chatstream/internal/models"
)

// promptsFile is the on-disk layout of prompts.toml:
//
//	prompts = [
//	  "Explain [topic] in simple terms.",
//	]
type promptsFile struct {
	Prompts []string `toml:"prompts"`
}

// GetPromptsPath returns the path to the example prompts file
func GetPromptsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "prompts.toml"), nil
}

// LoadExamplePrompts returns the user's example prompts, falling back to the
// built-in list when the file is missing or lists nothing.
func LoadExamplePrompts() ([]string, error) {
	path, err := GetPromptsPath()
	if err != nil {
		return models.DefaultExamplePrompts(), err
	}
	return LoadExamplePromptsFrom(path)
}

// LoadExamplePromptsFrom reads example prompts from a TOML file
func LoadExamplePromptsFrom(path string) ([]string, error) {
	var pf promptsFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.DefaultExamplePrompts(), nil
		}
		return models.DefaultExamplePrompts(), fmt.Errorf("failed to parse prompts file: %w", err)
	}

	var prompts []string
	for _, p := range pf.Prompts {
		if strings.TrimSpace(p) != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return models.DefaultExamplePrompts(), nil
	}
	return prompts, nil
}

// SaveExamplePrompts writes prompts to the default prompts file
func SaveExamplePrompts(prompts []string) error {
	path, err := GetPromptsPath()
	if err != nil {
		return err
	}
	return SaveExamplePromptsTo(path, prompts)
}

// SaveExamplePromptsTo writes prompts to a TOML file at path
func SaveExamplePromptsTo(path string, prompts []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open prompts file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(promptsFile{Prompts: prompts}); err != nil {
		return fmt.Errorf("failed to write prompts file: %w", err)
	}
	return nil
}

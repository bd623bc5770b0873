package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".post-writer/"

//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/selector-system-prompt.md
var selectorSystemPrompt string

//go:embed config/selector-output-schema.json
var selectorSchema string

//go:embed config/writer-system-prompt.md
var writerSystemPrompt string

// AgentSettings configures one llmkit agent.
type AgentSettings struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Settings represents the YAML configuration structure.
type Settings struct {
	OutputDirectory string   `yaml:"output_directory"`
	SpreadsheetID   string   `yaml:"spreadsheet_id"`
	Criteria        string   `yaml:"selection_criteria"`
	Sources         []string `yaml:"sources"`
	Platforms       []string `yaml:"platforms"`
	Agents          struct {
		Selector AgentSettings `yaml:"selector"`
		Writer   AgentSettings `yaml:"writer"`
	} `yaml:"agents"`
	Ledger struct {
		JournalPath   string `yaml:"journal_path"`
		OnLookupError string `yaml:"on_lookup_error"` // abort | assume-new
	} `yaml:"ledger"`
}

// ConfigOverrides holds file path overrides for embedded configurations.
type ConfigOverrides struct {
	SelectorPromptPath *string
	SelectorSchemaPath *string
	WriterPromptPath   *string
	SettingsPath       *string
}

// Config holds settings and overrides.
type Config struct {
	Settings  *Settings
	Overrides *ConfigOverrides
}

// NewConfig loads settings (explicit path, dot-dir, or embedded default)
// and attaches overrides.
func NewConfig(overrides *ConfigOverrides) (*Config, error) {
	if err := ensureConfigExists(); err != nil {
		return nil, fmt.Errorf("ensuring config files exist: %w", err)
	}

	var (
		settings *Settings
		err      error
	)
	if overrides != nil && overrides.SettingsPath != nil {
		settings, err = loadSettingsRequired(*overrides.SettingsPath)
		if err != nil {
			return nil, fmt.Errorf("settings file missing: %s: %w", *overrides.SettingsPath, err)
		}
	} else {
		settings, err = loadSettings(filepath.Join(defaultConfigDir, "settings.yaml"))
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
	}

	return &Config{Settings: settings, Overrides: overrides}, nil
}

// Validate checks the parts of the settings every run needs.
func (c *Config) Validate() error {
	s := c.Settings
	if len(s.Sources) == 0 {
		return fmt.Errorf("no source URLs configured")
	}
	for i, u := range s.Sources {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("source %d has invalid URL: %s", i+1, u)
		}
	}
	if strings.TrimSpace(s.Criteria) == "" {
		return fmt.Errorf("selection_criteria is empty")
	}
	if s.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet_id is empty")
	}
	if _, err := ParsePlatforms(s.Platforms); err != nil {
		return err
	}
	switch s.Ledger.OnLookupError {
	case "", "abort", "assume-new":
	default:
		return fmt.Errorf("ledger.on_lookup_error must be abort or assume-new, got %q", s.Ledger.OnLookupError)
	}
	return nil
}

// LookupPolicy maps the configured lookup-error behavior to the filter's
// policy. Abort is the default.
func (c *Config) LookupPolicy() LookupPolicy {
	if c.Settings.Ledger.OnLookupError == "assume-new" {
		return LookupAssumeNew
	}
	return LookupAbort
}

// GetSelectorSystemPrompt returns the selector prompt (override file or embedded).
func (c *Config) GetSelectorSystemPrompt() string {
	if c.Overrides != nil && c.Overrides.SelectorPromptPath != nil {
		if content, err := os.ReadFile(*c.Overrides.SelectorPromptPath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return strings.TrimSpace(selectorSystemPrompt)
}

// GetSelectorSchema returns the selector structured-output schema.
func (c *Config) GetSelectorSchema() string {
	if c.Overrides != nil && c.Overrides.SelectorSchemaPath != nil {
		if content, err := os.ReadFile(*c.Overrides.SelectorSchemaPath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return strings.TrimSpace(selectorSchema)
}

// GetWriterSystemPrompt returns the post writer prompt (override file or embedded).
func (c *Config) GetWriterSystemPrompt() string {
	if c.Overrides != nil && c.Overrides.WriterPromptPath != nil {
		if content, err := os.ReadFile(*c.Overrides.WriterPromptPath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return strings.TrimSpace(writerSystemPrompt)
}

// JournalPath returns the configured journal location, defaulting into the
// config dot-dir.
func (c *Config) JournalPath() string {
	if c.Settings.Ledger.JournalPath != "" {
		return c.Settings.Ledger.JournalPath
	}
	return filepath.Join(defaultConfigDir, "journal.db")
}

// loadSettings loads settings from YAML with fallback to embedded defaults
// when the file doesn't exist. Any other read error surfaces: a present but
// unreadable file must not be silently replaced by the defaults.
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if errors.Is(err, os.ErrNotExist) {
		data = []byte(defaultSettings)
	} else if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return &settings, nil
}

// loadSettingsRequired loads settings from YAML, failing if the file is missing.
func loadSettingsRequired(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return &settings, nil
}

// ensureConfigExists creates the config directory and seeds settings.yaml
// on first run so users have something to edit.
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	settingsFile := filepath.Join(defaultConfigDir, "settings.yaml")
	if _, err := os.Stat(settingsFile); os.IsNotExist(err) {
		if err := os.WriteFile(settingsFile, []byte(defaultSettings), 0644); err != nil {
			return fmt.Errorf("writing settings.yaml: %w", err)
		}
	}
	return nil
}

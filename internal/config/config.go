// Package config handles configuration loading for techsolve.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/models"
)

// HomeEnv overrides the configuration directory
const HomeEnv = "TECHSOLVE_HOME"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Engine           string `json:"engine" env:"TECHSOLVE_MARKDOWN_ENGINE"` // "lines" or "glamour"
	Style            string `json:"style" env:"GLAMOUR_STYLE"`              // glamour style when engine is glamour
	EnableEmoji      bool   `json:"enable_emoji"`
	PreserveNewLines bool   `json:"preserve_newlines"`
}

// Config represents the user configuration
type Config struct {
	APIKey          string `json:"api_key,omitempty" env:"GEMINI_API_KEY"`
	Model           string `json:"model" env:"TECHSOLVE_MODEL"`
	DefaultCategory string `json:"default_category" env:"TECHSOLVE_CATEGORY"`
	ThinkingBudget  int    `json:"thinking_budget" env:"TECHSOLVE_THINKING_BUDGET"`
	GoogleSearch    bool   `json:"google_search" env:"TECHSOLVE_GOOGLE_SEARCH"`
	// StatusIntervalMS is the delay between the decorative status updates.
	StatusIntervalMS int `json:"status_interval_ms" env:"TECHSOLVE_STATUS_INTERVAL_MS"`
	// RequestTimeout bounds a single model call, in seconds. Zero disables it.
	RequestTimeout  int            `json:"request_timeout" env:"TECHSOLVE_REQUEST_TIMEOUT"`
	Verbose         bool           `json:"verbose" env:"TECHSOLVE_VERBOSE"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty" env:"TECHSOLVE_THEME"`
	Markdown        MarkdownConfig `json:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Engine:           "lines",
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Model:            models.DefaultModel,
		DefaultCategory:  string(models.DefaultCategory),
		ThinkingBudget:   models.DefaultThinkingBudget,
		GoogleSearch:     true,
		StatusIntervalMS: 800,
		RequestTimeout:   120,
		Verbose:          false,
		CopyToClipboard:  false,
		TUITheme:         "slate",
		Markdown:         DefaultMarkdownConfig(),
	}
}

// StatusInterval returns the decorative status delay as a duration
func (c Config) StatusInterval() time.Duration {
	return time.Duration(c.StatusIntervalMS) * time.Millisecond
}

// Timeout returns the per-request timeout, or 0 when disabled
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Category returns the configured default category, falling back to hardware
func (c Config) Category() models.Category {
	cat, err := models.ParseCategory(c.DefaultCategory)
	if err != nil {
		return models.DefaultCategory
	}
	return cat
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".techsolve"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory may hold the API key
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

// GetLogPath returns the path of the log file used by the chat TUI
func GetLogPath() (string, error) {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "techsolve.log"), nil
}

// LoadDotEnv loads variables from .env files without overriding the
// environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig loads the configuration from disk and the environment.
// Environment variables take precedence over the config file.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	if _, statErr := os.Stat(configPath); statErr == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return DefaultConfig(), apierrors.NewConfigError("", "failed to parse config file", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, apierrors.NewConfigError("", "failed to read environment", err)
	}

	// API_KEY is the name the hosted runtime exposes
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("API_KEY")
	}

	return cfg, nil
}

// LoadFileConfig reads only the config file, ignoring the environment.
// Settings written back with SaveConfig start from this.
func LoadFileConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), apierrors.NewConfigError("", "failed to parse config file", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the value at a dotted JSON path, e.g. "markdown.engine".
// The API key is never returned.
func Get(cfg Config, path string) (string, bool) {
	cfg.APIKey = ""
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", false
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return "", false
	}
	return result.String(), true
}

// Keys lists the settings accepted by Set
func Keys() []string {
	return []string{
		"api_key",
		"model",
		"default_category",
		"thinking_budget",
		"google_search",
		"status_interval_ms",
		"request_timeout",
		"verbose",
		"copy_to_clipboard",
		"tui_theme",
		"markdown.engine",
		"markdown.style",
		"markdown.enable_emoji",
		"markdown.preserve_newlines",
	}
}

// Set updates one setting from its string form
func Set(cfg *Config, key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case "api_key":
		cfg.APIKey = value
	case "model":
		if value == "" {
			return apierrors.NewConfigError(key, "must not be empty", nil)
		}
		cfg.Model = value
	case "default_category":
		cat, err := models.ParseCategory(value)
		if err != nil {
			return apierrors.NewConfigError(key, err.Error(), err)
		}
		cfg.DefaultCategory = string(cat)
	case "thinking_budget":
		return setInt(&cfg.ThinkingBudget, key, value)
	case "status_interval_ms":
		return setInt(&cfg.StatusIntervalMS, key, value)
	case "request_timeout":
		return setInt(&cfg.RequestTimeout, key, value)
	case "google_search":
		return setBool(&cfg.GoogleSearch, key, value)
	case "verbose":
		return setBool(&cfg.Verbose, key, value)
	case "copy_to_clipboard":
		return setBool(&cfg.CopyToClipboard, key, value)
	case "tui_theme":
		cfg.TUITheme = value
	case "markdown.engine":
		if value != "lines" && value != "glamour" {
			return apierrors.NewConfigError(key, "must be 'lines' or 'glamour'", nil)
		}
		cfg.Markdown.Engine = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "markdown.enable_emoji":
		return setBool(&cfg.Markdown.EnableEmoji, key, value)
	case "markdown.preserve_newlines":
		return setBool(&cfg.Markdown.PreserveNewLines, key, value)
	default:
		return apierrors.NewConfigError(key, "unknown setting", nil)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return apierrors.NewConfigError(key, "must be a non-negative integer", err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return apierrors.NewConfigError(key, "must be true or false", err)
	}
	*dst = b
	return nil
}

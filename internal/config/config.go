// ABOUTME: Configuration management for ctlmatch with YAML config loading.
// ABOUTME: Handles match defaults, embedding provider settings, logging, and ~ expansion.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Embedding providers understood by the embeddings package.
const (
	ProviderHTTP    = "http"
	ProviderONNX    = "onnx"
	ProviderLexical = "lexical"
)

// APIKeyEnv overrides embedder.api_key when set.
const APIKeyEnv = "CTLMATCH_API_KEY"

// Config stores ctlmatch configuration loaded from ~/.config/ctlmatch/config.yaml.
type Config struct {
	Match    MatchConfig    `yaml:"match"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Log      LogConfig      `yaml:"log"`
}

// MatchConfig holds the default selection parameters.
type MatchConfig struct {
	Threshold           float64 `yaml:"threshold"`
	TopK                int     `yaml:"top_k"`
	IncludeEnhancements bool    `yaml:"include_enhancements"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider  string        `yaml:"provider"`
	APIURL    string        `yaml:"api_url"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`

	// Dimension is the vector size of the lexical provider and the hidden size of the onnx model.
	Dimension int `yaml:"dimension"`

	ModelPath     string `yaml:"model_path"`
	TokenizerPath string `yaml:"tokenizer_path"`
	ORTLibrary    string `yaml:"ort_library"`
	MaxSeqLen     int    `yaml:"max_seq_len"`
}

// LogConfig controls the slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Match: MatchConfig{
			Threshold: 0.65,
			TopK:      3,
		},
		Embedder: EmbedderConfig{
			Provider:  ProviderHTTP,
			APIURL:    "http://localhost:11434/v1",
			Model:     "all-minilm",
			BatchSize: 64,
			Timeout:   2 * time.Minute,
			Dimension: 384,
			MaxSeqLen: 256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks value ranges and provider-specific requirements.
func (c *Config) Validate() error {
	var errs []error
	if c.Match.Threshold < -1 || c.Match.Threshold > 1 {
		errs = append(errs, fmt.Errorf("match.threshold must be within [-1, 1], got %v", c.Match.Threshold))
	}
	if c.Match.TopK < 0 {
		errs = append(errs, fmt.Errorf("match.top_k must not be negative, got %d", c.Match.TopK))
	}

	e := c.Embedder
	switch e.Provider {
	case ProviderHTTP:
		if e.APIURL == "" {
			errs = append(errs, errors.New("embedder.api_url is required for the http provider"))
		}
		if e.BatchSize <= 0 {
			errs = append(errs, fmt.Errorf("embedder.batch_size must be positive, got %d", e.BatchSize))
		}
	case ProviderONNX:
		if e.ModelPath == "" || e.TokenizerPath == "" {
			errs = append(errs, errors.New("embedder.model_path and embedder.tokenizer_path are required for the onnx provider"))
		}
		if e.Dimension <= 0 || e.MaxSeqLen <= 0 {
			errs = append(errs, errors.New("embedder.dimension and embedder.max_seq_len must be positive for the onnx provider"))
		}
	case ProviderLexical:
		if e.Dimension <= 0 {
			errs = append(errs, fmt.Errorf("embedder.dimension must be positive, got %d", e.Dimension))
		}
	default:
		errs = append(errs, fmt.Errorf("embedder.provider %q is not one of http, onnx, lexical", e.Provider))
	}
	return errors.Join(errs...)
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "ctlmatch", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from the default path. Returns the default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path, layering file values over the defaults and
// the API key environment variable over the file.
func LoadFrom(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.Embedder.APIKey = key
	}
	return cfg, nil
}

// LoadFile reads config from path without environment overrides. Use it when the
// result is written back, so secrets from the environment never reach the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Embedder.ModelPath, &c.Embedder.TokenizerPath, &c.Embedder.ORTLibrary} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Save writes config to the default path.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config as YAML to path, creating parent directories.
func (c *Config) SaveTo(path string) error {
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ABOUTME: Tests for ctlmatch configuration loading and path expansion.
// ABOUTME: Covers YAML parsing, defaults, env overrides, validation, and save/load.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"tilde only", "~", home},
		{"tilde slash", "~/foo/bar", filepath.Join(home, "foo", "bar")},
		{"absolute", "/tmp/foo", "/tmp/foo"},
		{"relative", "foo/bar", "foo/bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.input)
			if err != nil {
				t.Fatalf("ExpandPath(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	// Set config path to a non-existent location
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(APIKeyEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Match.Threshold != 0.65 {
		t.Errorf("expected default threshold 0.65, got %v", cfg.Match.Threshold)
	}
	if cfg.Match.TopK != 3 {
		t.Errorf("expected default top_k 3, got %d", cfg.Match.TopK)
	}
	if cfg.Embedder.Provider != ProviderHTTP {
		t.Errorf("expected default provider http, got %q", cfg.Embedder.Provider)
	}
	if cfg.Embedder.APIKey != "" {
		t.Error("expected empty api_key in default config")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(APIKeyEnv, "")

	configDir := filepath.Join(tmpDir, "ctlmatch")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configData := `match:
  threshold: 0.8
  top_k: 5
embedder:
  provider: onnx
  model_path: "~/models/minilm.onnx"
  tokenizer_path: "/opt/models/tokenizer.json"
  timeout: 45s
log:
  level: debug
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configData), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Match.Threshold != 0.8 {
		t.Errorf("expected threshold 0.8, got %v", cfg.Match.Threshold)
	}
	if cfg.Match.TopK != 5 {
		t.Errorf("expected top_k 5, got %d", cfg.Match.TopK)
	}
	if cfg.Embedder.Provider != ProviderONNX {
		t.Errorf("expected provider onnx, got %q", cfg.Embedder.Provider)
	}
	if cfg.Embedder.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.Embedder.Timeout)
	}
	// Unset keys keep their defaults.
	if cfg.Embedder.MaxSeqLen != 256 {
		t.Errorf("expected default max_seq_len 256, got %d", cfg.Embedder.MaxSeqLen)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "models", "minilm.onnx"); cfg.Embedder.ModelPath != want {
		t.Errorf("ModelPath = %q, want %q", cfg.Embedder.ModelPath, want)
	}
}

func TestLoadZeroThresholdIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("match:\n  threshold: 0\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.Match.Threshold != 0 {
		t.Errorf("expected explicit threshold 0 to be kept, got %v", cfg.Match.Threshold)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("match: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestAPIKeyEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(APIKeyEnv, "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Embedder.APIKey != "env-key" {
		t.Errorf("expected api key from env, got %q", cfg.Embedder.APIKey)
	}
}

func TestLoadFileIgnoresAPIKeyEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("embedder:\n  api_key: file-key\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(APIKeyEnv, "env-key")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Embedder.APIKey != "file-key" {
		t.Errorf("expected file key, got %q", cfg.Embedder.APIKey)
	}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if strings.Contains(string(data), "env-key") {
		t.Errorf("environment key written to disk:\n%s", data)
	}

	merged, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if merged.Embedder.APIKey != "env-key" {
		t.Errorf("expected env override from LoadFrom, got %q", merged.Embedder.APIKey)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(APIKeyEnv, "")

	cfg := Default()
	cfg.Embedder.APIURL = "https://embed.example.com/v1"
	cfg.Embedder.APIKey = "saved-key"
	cfg.Embedder.Model = "text-embedding-3-small"
	cfg.Embedder.Timeout = 10 * time.Second

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if loaded.Embedder.APIKey != "saved-key" {
		t.Errorf("expected api_key 'saved-key', got %q", loaded.Embedder.APIKey)
	}
	if loaded.Embedder.Model != "text-embedding-3-small" {
		t.Errorf("expected saved model, got %q", loaded.Embedder.Model)
	}
	if loaded.Embedder.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", loaded.Embedder.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"threshold too high", func(c *Config) { c.Match.Threshold = 1.5 }, "match.threshold"},
		{"negative top_k", func(c *Config) { c.Match.TopK = -1 }, "match.top_k"},
		{"unknown provider", func(c *Config) { c.Embedder.Provider = "bert" }, "embedder.provider"},
		{"http without url", func(c *Config) { c.Embedder.APIURL = "" }, "embedder.api_url"},
		{"http zero batch", func(c *Config) { c.Embedder.BatchSize = 0 }, "embedder.batch_size"},
		{"onnx without model", func(c *Config) { c.Embedder.Provider = ProviderONNX }, "embedder.model_path"},
		{"lexical zero dimension", func(c *Config) {
			c.Embedder.Provider = ProviderLexical
			c.Embedder.Dimension = 0
		}, "embedder.dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateNegativeThresholdAllowed(t *testing.T) {
	cfg := Default()
	cfg.Match.Threshold = -0.5
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected negative threshold within [-1, 1] to validate, got %v", err)
	}
}

func TestSaveToCustomPath(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "ctlmatch.yaml")

	cfg := Default()
	cfg.Match.Threshold = 0
	cfg.Embedder.Provider = ProviderLexical
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if loaded.Match.Threshold != 0 {
		t.Errorf("expected explicit zero threshold to survive, got %v", loaded.Match.Threshold)
	}
	if loaded.Embedder.Provider != ProviderLexical {
		t.Errorf("expected lexical provider, got %q", loaded.Embedder.Provider)
	}
}

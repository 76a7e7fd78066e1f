// Package config loads the recall CLI configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/recallhq/recall/internal/embedding"
)

// EmbedderConfig selects and configures the embedding provider used by the
// CLI to turn text into vectors before handing them to the engine.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"` // "ollama", "openai", or "" (disabled)
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// SearchConfig holds default search parameters.
type SearchConfig struct {
	Limit         int     `yaml:"limit"`
	VectorWeight  float64 `yaml:"vector_weight"`
	TextWeight    float64 `yaml:"text_weight"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// Config is the root configuration structure.
type Config struct {
	DBPath   string         `yaml:"db_path"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Search   SearchConfig   `yaml:"search"`
}

// Load reads a config from path. A missing file returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./recall.yaml first, then ~/.config/recall/config.yaml,
// falling back to defaults when neither exists.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat("recall.yaml"); err == nil {
		return Load("recall.yaml")
	}
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".config", "recall", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return Load(userPath)
		}
	}
	cfg := Default()
	applyEnv(cfg)
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		home, _ := os.UserHomeDir()
		cfg.DBPath = filepath.Join(home, ".recall", "memory.db")
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = 5
	}
	if cfg.Search.VectorWeight == 0 && cfg.Search.TextWeight == 0 {
		cfg.Search.VectorWeight = 0.7
		cfg.Search.TextWeight = 0.3
	}
	if cfg.Search.MinSimilarity == 0 {
		cfg.Search.MinSimilarity = 0.3
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RECALL_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("RECALL_EMBED_PROVIDER"); v != "" {
		cfg.Embedder.Provider = v
	}
	if v := os.Getenv("RECALL_EMBED_MODEL"); v != "" {
		cfg.Embedder.Model = v
	}
	if v := os.Getenv("RECALL_EMBED_URL"); v != "" {
		cfg.Embedder.BaseURL = v
	}
}

// NewEmbedder builds the configured embedding provider, or nil when
// embeddings are disabled.
func (c *Config) NewEmbedder() embedding.Embedder {
	switch c.Embedder.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(c.Embedder.BaseURL, c.Embedder.Model)
	case "openai":
		return embedding.NewOpenAIEmbedder(c.Embedder.BaseURL, os.Getenv(c.Embedder.APIKeyEnv), c.Embedder.Model)
	default:
		return nil
	}
}

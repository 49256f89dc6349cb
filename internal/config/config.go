package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML config file.
const ConfigFileEnv = "POLICYBOT_CONFIG"

// Config holds all configuration for the application.
type Config struct {
	APIPort   string `yaml:"api_port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	IndexPath       string `yaml:"index_path"`
	EmbeddingModel  string `yaml:"embedding_model"`
	SummarizerModel string `yaml:"summarizer_model"`

	EmbeddingProvider  string `yaml:"embedding_provider"`  // "local" or "http"
	SummarizerProvider string `yaml:"summarizer_provider"` // "local" or "http"
	EmbeddingBaseURL   string `yaml:"embedding_base_url"`
	LLMBaseURL         string `yaml:"llm_base_url"`
	LLMAPIKey          string `yaml:"llm_api_key"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	EmbeddingBatchSize int    `yaml:"embedding_batch_size"`
	PreloadModels      bool   `yaml:"llm_preload_models"`

	VectorBackend    string `yaml:"vector_backend"` // "bolt" or "qdrant"
	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`

	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		APIPort:            "8000",
		LogLevel:           "info",
		LogFormat:          "text",
		IndexPath:          "data/policy_index",
		EmbeddingModel:     "sentence-transformers/all-MiniLM-L6-v2",
		SummarizerModel:    "facebook/bart-large-cnn",
		EmbeddingProvider:  "local",
		SummarizerProvider: "local",
		EmbeddingBaseURL:   "http://localhost:8081",
		LLMBaseURL:         "http://localhost:8080",
		LLMAPIKey:          "dummy-key",
		EmbeddingDimension: 384,
		EmbeddingBatchSize: 32,
		VectorBackend:      "bolt",
		QdrantURL:          "http://localhost:6333",
		QdrantCollection:   "policies",
		DefaultTopK:        3,
		MaxTopK:            10,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
// A .env file in the current directory or one of its parents is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := Default()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.APIPort, "API_PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.IndexPath, "INDEX_PATH")
	setString(&c.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&c.SummarizerModel, "SUMMARIZER_MODEL")
	setString(&c.EmbeddingProvider, "EMBEDDING_PROVIDER")
	setString(&c.SummarizerProvider, "SUMMARIZER_PROVIDER")
	setString(&c.EmbeddingBaseURL, "EMBEDDING_BASE_URL")
	setString(&c.LLMBaseURL, "LLM_BASE_URL")
	setString(&c.LLMAPIKey, "LLM_API_KEY")
	setString(&c.VectorBackend, "VECTOR_BACKEND")
	setString(&c.QdrantURL, "QDRANT_URL")
	setString(&c.QdrantCollection, "QDRANT_COLLECTION")

	return errors.Join(
		setInt(&c.EmbeddingDimension, "EMBEDDING_DIMENSION"),
		setInt(&c.EmbeddingBatchSize, "EMBEDDING_BATCH_SIZE"),
		setInt(&c.DefaultTopK, "DEFAULT_TOP_K"),
		setInt(&c.MaxTopK, "MAX_TOP_K"),
		setBool(&c.PreloadModels, "LLM_PRELOAD_MODELS"),
	)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.IndexPath == "" {
		errs = append(errs, errors.New("INDEX_PATH must not be empty"))
	}
	for key, v := range map[string]string{"EMBEDDING_PROVIDER": c.EmbeddingProvider, "SUMMARIZER_PROVIDER": c.SummarizerProvider} {
		if v != "local" && v != "http" {
			errs = append(errs, fmt.Errorf("%s must be local or http, got %q", key, v))
		}
	}
	if c.VectorBackend != "bolt" && c.VectorBackend != "qdrant" {
		errs = append(errs, fmt.Errorf("VECTOR_BACKEND must be bolt or qdrant, got %q", c.VectorBackend))
	}
	if c.EmbeddingDimension <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSION must be greater than 0"))
	}
	if c.EmbeddingBatchSize <= 0 {
		errs = append(errs, errors.New("EMBEDDING_BATCH_SIZE must be greater than 0"))
	}
	if c.DefaultTopK <= 0 {
		errs = append(errs, errors.New("DEFAULT_TOP_K must be greater than 0"))
	}
	if c.MaxTopK < c.DefaultTopK {
		errs = append(errs, fmt.Errorf("MAX_TOP_K (%d) must not be below DEFAULT_TOP_K (%d)", c.MaxTopK, c.DefaultTopK))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q is not a valid level", s)
	}
	return level, nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = b
	return nil
}

// NewLogger builds the process logger described by LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the castforge service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Podcast    PodcastConfig    `yaml:"podcast"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// StoreConfig selects and configures the vector store driver.
type StoreConfig struct {
	Driver   string         `yaml:"driver"` // pinecone, redis (default: pinecone)
	Pinecone PineconeConfig `yaml:"pinecone"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PineconeConfig holds Pinecone index connection settings.
type PineconeConfig struct {
	APIKey string `yaml:"api_key"`
	Host   string `yaml:"host"` // index host URL, e.g. https://idx-xxxx.svc.pinecone.io
}

// RedisConfig holds Redis vector store settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// CompletionConfig holds completion provider settings.
type CompletionConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	ChatModel     string `yaml:"chat_model"`
	DialogueModel string `yaml:"dialogue_model"`
}

// IngestConfig holds chunking and upsert settings.
type IngestConfig struct {
	DocumentChunkSize    int `yaml:"document_chunk_size"`
	DocumentChunkOverlap int `yaml:"document_chunk_overlap"`
	VideoChunkSize       int `yaml:"video_chunk_size"`
	UpsertBatchSize      int `yaml:"upsert_batch_size"`
}

// PodcastConfig holds dialogue synthesis quality gate settings.
type PodcastConfig struct {
	MinLines    int `yaml:"min_lines"`
	TargetLines int `yaml:"target_lines"`
	MaxRetries  int `yaml:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: env-dependent)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Multi-segment generation holds the response open across several
		// provider calls; the write timeout has to cover all of them.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "pinecone"
	}
	if c.Store.Redis.KeyPrefix == "" {
		c.Store.Redis.KeyPrefix = "castforge:"
	}
	if c.Store.Redis.ReadinessTimeout <= 0 {
		c.Store.Redis.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "embedding-001"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Completion.ChatModel == "" {
		c.Completion.ChatModel = "mixtral-8x7b-32768"
	}
	if c.Completion.DialogueModel == "" {
		c.Completion.DialogueModel = "llama-3.2-90b-text-preview"
	}
	if c.Ingest.DocumentChunkSize <= 0 {
		c.Ingest.DocumentChunkSize = 500
	}
	if c.Ingest.DocumentChunkOverlap <= 0 {
		c.Ingest.DocumentChunkOverlap = 50
	}
	if c.Ingest.VideoChunkSize <= 0 {
		c.Ingest.VideoChunkSize = 1500
	}
	if c.Ingest.UpsertBatchSize <= 0 {
		c.Ingest.UpsertBatchSize = 100
	}
	if c.Podcast.MinLines <= 0 {
		c.Podcast.MinLines = 10
	}
	if c.Podcast.TargetLines <= 0 {
		c.Podcast.TargetLines = 55
	}
	if c.Podcast.MaxRetries <= 0 {
		c.Podcast.MaxRetries = 2
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "pinecone":
		if c.Store.Pinecone.Host == "" {
			return fmt.Errorf("store.pinecone.host is required")
		}
	case "redis":
		if len(c.Store.Redis.Addrs) == 0 {
			return fmt.Errorf("store.redis.addrs is required")
		}
	default:
		return fmt.Errorf("store.driver must be \"pinecone\" or \"redis\", got %q", c.Store.Driver)
	}
	if c.Ingest.DocumentChunkOverlap >= c.Ingest.DocumentChunkSize {
		return fmt.Errorf("ingest.document_chunk_overlap must be smaller than chunk size")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

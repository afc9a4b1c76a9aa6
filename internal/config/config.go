package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"autosense/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Analysis  AnalysisConfig
	Embedding EmbeddingConfig
	Metrics   MetricsConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	MaxUploadMB int
}

// DatabaseConfig holds database connection settings. An empty URL disables
// durable result storage.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// CacheConfig sizes the in-memory dataset store and result cache
type CacheConfig struct {
	MaxDatasets int
	MaxAnalyses int
	TTL         time.Duration
}

// AnalysisConfig carries the calibration constants of the analysis core
type AnalysisConfig struct {
	SampleRows             int
	ProfileSampleRows      int
	CategoryMaxCardinality int
	SemanticThreshold      float64
	CorrelationThreshold   float64
	EmbeddingDim           int
	MaxConcurrent          int
}

// EmbeddingConfig selects the embedding provider used by the field resolver
type EmbeddingConfig struct {
	Provider string // "hashing" or "openai"
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool
}

// ProfilingConfig holds the ops server that exposes pprof
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Embedding providers
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Database:  DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Cache:     *loadCacheConfig(),
		Analysis:  *loadAnalysisConfig(),
		Embedding: *loadEmbeddingConfig(),
		Metrics:   MetricsConfig{Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true)},
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", GinMode: "release", MaxUploadMB: 50},
		Cache:  CacheConfig{MaxDatasets: 20, MaxAnalyses: 50, TTL: time.Hour},
		Analysis: AnalysisConfig{
			SampleRows:             100000,
			ProfileSampleRows:      2000,
			CategoryMaxCardinality: 12,
			SemanticThreshold:      0.3,
			CorrelationThreshold:   0.6,
			EmbeddingDim:           256,
			MaxConcurrent:          4,
		},
		Embedding: EmbeddingConfig{Provider: ProviderHashing, Timeout: 5 * time.Second},
		Metrics:   MetricsConfig{Enabled: true},
		Profiling: ProfilingConfig{Port: "6060"},
	}
}

func loadServerConfig() *ServerConfig {
	d := Default().Server
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", d.Port),
		GinMode:     getEnvOrDefault("GIN_MODE", d.GinMode),
		MaxUploadMB: getEnvIntOrDefault("MAX_UPLOAD_MB", d.MaxUploadMB),
	}
}

func loadCacheConfig() *CacheConfig {
	d := Default().Cache
	return &CacheConfig{
		MaxDatasets: getEnvIntOrDefault("MAX_DATASETS", d.MaxDatasets),
		MaxAnalyses: getEnvIntOrDefault("MAX_CACHED_ANALYSES", d.MaxAnalyses),
		TTL:         getEnvDurationOrDefault("CACHE_TTL", d.TTL),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	d := Default().Analysis
	return &AnalysisConfig{
		SampleRows:             getEnvIntOrDefault("ANALYSIS_SAMPLE_ROWS", d.SampleRows),
		ProfileSampleRows:      getEnvIntOrDefault("PROFILE_SAMPLE_ROWS", d.ProfileSampleRows),
		CategoryMaxCardinality: getEnvIntOrDefault("CATEGORY_MAX_CARDINALITY", d.CategoryMaxCardinality),
		SemanticThreshold:      getEnvFloatOrDefault("SEMANTIC_THRESHOLD", d.SemanticThreshold),
		CorrelationThreshold:   getEnvFloatOrDefault("CORRELATION_THRESHOLD", d.CorrelationThreshold),
		EmbeddingDim:           getEnvIntOrDefault("EMBEDDING_DIM", d.EmbeddingDim),
		MaxConcurrent:          getEnvIntOrDefault("MAX_CONCURRENT_ANALYSES", d.MaxConcurrent),
	}
}

func loadEmbeddingConfig() *EmbeddingConfig {
	d := Default().Embedding
	return &EmbeddingConfig{
		Provider: strings.ToLower(getEnvOrDefault("EMBEDDING_PROVIDER", d.Provider)),
		APIKey:   os.Getenv("OPENAI_API_KEY"),
		BaseURL:  os.Getenv("OPENAI_BASE_URL"),
		Model:    os.Getenv("EMBEDDING_MODEL"),
		Timeout:  getEnvDurationOrDefault("EMBEDDING_TIMEOUT", d.Timeout),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", Default().Profiling.Port),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Cache.MaxDatasets <= 0 || config.Cache.MaxAnalyses <= 0 {
		return errors.ConfigInvalid("cache capacities must be positive")
	}
	if config.Analysis.SampleRows <= 0 || config.Analysis.ProfileSampleRows <= 0 {
		return errors.ConfigInvalid("sample sizes must be positive")
	}
	if config.Analysis.CategoryMaxCardinality < 2 {
		return errors.ConfigInvalid("CATEGORY_MAX_CARDINALITY must be at least 2")
	}
	if !inUnitInterval(config.Analysis.SemanticThreshold) {
		return errors.ConfigInvalid(fmt.Sprintf("SEMANTIC_THRESHOLD %.2f is outside [0, 1]", config.Analysis.SemanticThreshold))
	}
	if !inUnitInterval(config.Analysis.CorrelationThreshold) {
		return errors.ConfigInvalid(fmt.Sprintf("CORRELATION_THRESHOLD %.2f is outside [0, 1]", config.Analysis.CorrelationThreshold))
	}
	if config.Analysis.MaxConcurrent <= 0 {
		return errors.ConfigInvalid("MAX_CONCURRENT_ANALYSES must be positive")
	}
	if config.Analysis.EmbeddingDim <= 0 {
		return errors.ConfigInvalid("EMBEDDING_DIM must be positive")
	}
	if config.Profiling.Enabled && config.Profiling.Port == config.Server.Port {
		return errors.ConfigInvalid("PPROF_PORT must differ from PORT")
	}
	switch config.Embedding.Provider {
	case ProviderHashing:
	case ProviderOpenAI:
		if config.Embedding.APIKey == "" {
			return errors.ConfigInvalid("OPENAI_API_KEY is required for the openai embedding provider")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown EMBEDDING_PROVIDER %q", config.Embedding.Provider))
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

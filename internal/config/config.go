package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Provider names accepted for LLM_PROVIDER and EMBEDDING_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Service  string
}

// DSN returns the host:port/service part of the Oracle connect string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Service)
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

type EmbeddingConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Config is built once at startup and passed down explicitly; the pipeline
// never reads process environment after this point.
type Config struct {
	Database       DatabaseConfig
	LLM            LLMConfig
	Embedding      EmbeddingConfig
	VectorStoreDir string
	ChunkSize      int
	TopK           int
	Timeout        time.Duration
	LogLevel       string
}

// Load builds the configuration from environment variables, with an optional
// YAML config file layered underneath (env wins). configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_user", "user")
	v.SetDefault("db_password", "password")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 1521)
	v.SetDefault("db_service", "XE")
	v.SetDefault("llm_provider", "")
	v.SetDefault("llm_model", "")
	v.SetDefault("llm_temperature", 0.3)
	v.SetDefault("llm_max_tokens", 1000)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("embedding_provider", "")
	v.SetDefault("embedding_model", "")
	v.SetDefault("vector_store_dir", "./vector_store")
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("max_results", 5)
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("log_level", "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		Database: DatabaseConfig{
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			Service:  v.GetString("db_service"),
		},
		LLM: LLMConfig{
			Provider:    v.GetString("llm_provider"),
			Model:       v.GetString("llm_model"),
			Temperature: v.GetFloat64("llm_temperature"),
			MaxTokens:   v.GetInt("llm_max_tokens"),
		},
		Embedding: EmbeddingConfig{
			Provider: v.GetString("embedding_provider"),
			Model:    v.GetString("embedding_model"),
		},
		VectorStoreDir: v.GetString("vector_store_dir"),
		ChunkSize:      v.GetInt("chunk_size"),
		TopK:           v.GetInt("max_results"),
		Timeout:        time.Duration(v.GetInt("timeout_seconds")) * time.Second,
		LogLevel:       v.GetString("log_level"),
	}

	openAIKey := v.GetString("openai_api_key")
	geminiKey := v.GetString("gemini_api_key")
	ollamaHost := v.GetString("ollama_host")
	openAIBase := v.GetString("openai_base_url")

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultProvider(openAIKey, geminiKey)
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = cfg.LLM.Provider
	}

	if err := fillProvider(&cfg.LLM.APIKey, &cfg.LLM.BaseURL, cfg.LLM.Provider, openAIKey, geminiKey, ollamaHost, openAIBase); err != nil {
		return nil, err
	}
	if err := fillProvider(&cfg.Embedding.APIKey, &cfg.Embedding.BaseURL, cfg.Embedding.Provider, openAIKey, geminiKey, ollamaHost, openAIBase); err != nil {
		return nil, err
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaultEmbeddingModel(cfg.Embedding.Provider)
	}

	return cfg, nil
}

func defaultProvider(openAIKey, geminiKey string) string {
	switch {
	case openAIKey != "":
		return ProviderOpenAI
	case geminiKey != "":
		return ProviderGemini
	default:
		return ProviderOllama
	}
}

func fillProvider(apiKey, baseURL *string, provider, openAIKey, geminiKey, ollamaHost, openAIBase string) error {
	switch provider {
	case ProviderOpenAI:
		if openAIKey == "" {
			return errors.New("OPENAI_API_KEY is required for provider openai")
		}
		*apiKey = openAIKey
		*baseURL = openAIBase
	case ProviderGemini:
		if geminiKey == "" {
			return errors.New("GEMINI_API_KEY is required for provider gemini")
		}
		*apiKey = geminiKey
	case ProviderOllama:
		*baseURL = ollamaHost
	default:
		return errors.Errorf("unsupported provider: %s", provider)
	}
	return nil
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-1.5-flash"
	case ProviderOllama:
		return "llama3"
	default:
		return "gpt-4o-mini"
	}
}

func defaultEmbeddingModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "text-embedding-004"
	case ProviderOllama:
		return "nomic-embed-text"
	default:
		return "text-embedding-3-small"
	}
}

// Package config loads threatfeed configuration from the environment,
// with an optional YAML file overlay.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an LLM / embedding backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// Similarity metric names as the vector index understands them.
const (
	SimilarityCosine    = "cosine"
	SimilarityDot       = "dotProduct"
	SimilarityEuclidean = "euclidean"
)

// Config holds all configuration values.
type Config struct {
	// MongoDB
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	VectorIndexName string

	// Embedding
	EmbedProvider    Provider
	EmbedModel       string
	VectorDimensions int
	SimilarityMetric string

	// Chat completion
	LLMProvider  Provider
	LLMModel     string
	OllamaHost   string
	OpenAIAPIKey string
	SystemPrompt string

	// Retrieval
	TopK            int
	OverfetchFactor int

	// Tweet collection
	TwitterBearerToken string
	TwitterQuery       string
	TwitterPageSize    int
	TwitterMaxPages    int
	TwitterPageDelay   time.Duration

	// AWS Secrets Manager
	AWSRegion     string
	SecretOpenAI  string
	SecretMongo   string
	SecretTwitter string
	SkipSecrets   bool

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// DefaultSystemPrompt instructs the assistant before any user turn.
const DefaultSystemPrompt = "You are a cybersecurity threat analyst. " +
	"Answer questions using the recent tweets provided as context where relevant. " +
	"If the context does not cover the question, say so instead of guessing."

// Load reads configuration from environment variables, then overlays
// values from THREATFEED_CONFIG (or ./threatfeed.yaml if present).
func Load() (Config, error) {
	cfg := Config{
		MongoURI:        os.Getenv("MONGODB_URI"),
		MongoDatabase:   getEnv("THREATFEED_DB", "cybersecurity"),
		MongoCollection: getEnv("THREATFEED_COLLECTION", "tweets"),
		VectorIndexName: getEnv("THREATFEED_VECTOR_INDEX", "tweet_embedding_index"),

		EmbedProvider:    Provider(getEnv("THREATFEED_EMBED_PROVIDER", string(ProviderOpenAI))),
		EmbedModel:       getEnv("THREATFEED_EMBED_MODEL", "text-embedding-3-small"),
		VectorDimensions: getEnvInt("THREATFEED_VECTOR_DIMENSIONS", 1536),
		SimilarityMetric: getEnv("THREATFEED_SIMILARITY", SimilarityCosine),

		LLMProvider:  Provider(getEnv("THREATFEED_LLM_PROVIDER", string(ProviderOpenAI))),
		LLMModel:     getEnv("THREATFEED_LLM_MODEL", "gpt-4o-mini"),
		OllamaHost:   getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		SystemPrompt: getEnv("THREATFEED_SYSTEM_PROMPT", DefaultSystemPrompt),

		TopK:            getEnvInt("THREATFEED_TOP_K", 5),
		OverfetchFactor: getEnvInt("THREATFEED_OVERFETCH", 10),

		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		TwitterQuery:       getEnv("THREATFEED_TWITTER_QUERY", `("cyber attack" OR ransomware OR "data breach") -is:retweet lang:en`),
		TwitterPageSize:    getEnvInt("THREATFEED_TWITTER_PAGE_SIZE", 100),
		TwitterMaxPages:    getEnvInt("THREATFEED_TWITTER_MAX_PAGES", 10),
		TwitterPageDelay:   getEnvDuration("THREATFEED_TWITTER_PAGE_DELAY", 2*time.Second),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		SecretOpenAI:  getEnv("THREATFEED_SECRET_OPENAI", "openai"),
		SecretMongo:   getEnv("THREATFEED_SECRET_MONGODB", "mongodb"),
		SecretTwitter: getEnv("THREATFEED_SECRET_TWITTER", "twitter_api"),
		SkipSecrets:   getEnv("THREATFEED_SKIP_SECRETS", "false") == "true",

		LogFile:  getEnv("THREATFEED_LOG_FILE", "/tmp/threatfeed.log"),
		LogLevel: parseLogLevel(getEnv("THREATFEED_LOG_LEVEL", "INFO")),
	}

	path := os.Getenv("THREATFEED_CONFIG")
	if path == "" {
		if _, err := os.Stat("threatfeed.yaml"); err == nil {
			path = "threatfeed.yaml"
		}
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fileConfig mirrors the YAML overlay. Only recognized keys are applied;
// zero values leave the environment-derived setting in place.
type fileConfig struct {
	MongoDatabase    string `yaml:"mongo_database"`
	MongoCollection  string `yaml:"mongo_collection"`
	VectorIndexName  string `yaml:"vector_index_name"`
	EmbedProvider    string `yaml:"embed_provider"`
	EmbedModel       string `yaml:"embedding_model"`
	VectorDimensions int    `yaml:"vector_dimensions"`
	SimilarityMetric string `yaml:"similarity_metric"`
	LLMProvider      string `yaml:"llm_provider"`
	LLMModel         string `yaml:"llm_model"`
	SystemPrompt     string `yaml:"system_prompt"`
	TopK             int    `yaml:"top_k"`
	OverfetchFactor  int    `yaml:"overfetch_factor"`
	TwitterQuery     string `yaml:"twitter_query"`
	TwitterPageSize  int    `yaml:"twitter_page_size"`
	TwitterMaxPages  int    `yaml:"twitter_max_pages"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.MongoDatabase != "" {
		c.MongoDatabase = fc.MongoDatabase
	}
	if fc.MongoCollection != "" {
		c.MongoCollection = fc.MongoCollection
	}
	if fc.VectorIndexName != "" {
		c.VectorIndexName = fc.VectorIndexName
	}
	if fc.EmbedProvider != "" {
		c.EmbedProvider = Provider(fc.EmbedProvider)
	}
	if fc.EmbedModel != "" {
		c.EmbedModel = fc.EmbedModel
	}
	if fc.VectorDimensions != 0 {
		c.VectorDimensions = fc.VectorDimensions
	}
	if fc.SimilarityMetric != "" {
		c.SimilarityMetric = fc.SimilarityMetric
	}
	if fc.LLMProvider != "" {
		c.LLMProvider = Provider(fc.LLMProvider)
	}
	if fc.LLMModel != "" {
		c.LLMModel = fc.LLMModel
	}
	if fc.SystemPrompt != "" {
		c.SystemPrompt = fc.SystemPrompt
	}
	if fc.TopK != 0 {
		c.TopK = fc.TopK
	}
	if fc.OverfetchFactor != 0 {
		c.OverfetchFactor = fc.OverfetchFactor
	}
	if fc.TwitterQuery != "" {
		c.TwitterQuery = fc.TwitterQuery
	}
	if fc.TwitterPageSize != 0 {
		c.TwitterPageSize = fc.TwitterPageSize
	}
	if fc.TwitterMaxPages != 0 {
		c.TwitterMaxPages = fc.TwitterMaxPages
	}
	return nil
}

func (c *Config) validate() error {
	switch c.SimilarityMetric {
	case SimilarityCosine, SimilarityDot, SimilarityEuclidean:
	default:
		return fmt.Errorf("unknown similarity metric %q (want %s, %s or %s)",
			c.SimilarityMetric, SimilarityCosine, SimilarityDot, SimilarityEuclidean)
	}
	if c.VectorDimensions <= 0 {
		return fmt.Errorf("vector dimensions must be positive, got %d", c.VectorDimensions)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch factor must be at least 1, got %d", c.OverfetchFactor)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

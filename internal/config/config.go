package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration shared by all services.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache (claim results and quote conversation state)
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "noop"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"`   // seconds, normalized-claim cache
	SessionTTL    int    `env:"SESSION_TTL" envDefault:"1800"` // seconds, quote conversation state

	// LLM & Embeddings
	LLMProvider    string `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	LLMModel       string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`

	// Policy summarizer
	SummaryMode    string `env:"SUMMARY_MODE" envDefault:"concurrent"` // "concurrent" or "sequential"
	SummaryWorkers int    `env:"SUMMARY_WORKERS" envDefault:"4"`
	ChunkWords     int    `env:"CHUNK_WORDS" envDefault:"500"`
	ChunkOverlap   int    `env:"CHUNK_OVERLAP" envDefault:"25"`

	// Underwriter
	MaxDocChars int `env:"MAX_DOC_CHARS" envDefault:"5000"`

	// Classifier
	ReferenceCollection string `env:"REFERENCE_COLLECTION" envDefault:"insurance_reference_docs"`

	// Gateway forwarding
	QuotesURL string `env:"QUOTES_URL" envDefault:"http://quotes:8083/api/chat"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

package app

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"insurance-agents/internal/cache"
	"insurance-agents/internal/config"
	"insurance-agents/internal/embeddings"
	"insurance-agents/internal/llm"
	"insurance-agents/internal/logger"
	"insurance-agents/internal/queue"
	"insurance-agents/internal/store"
)

// GatewayDeps bundles what the HTTP gateway needs.
type GatewayDeps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
}

// WorkerDeps bundles what the summarizer and underwriter queue workers need.
type WorkerDeps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	Queue  queue.Queue
	LLM    llm.Client
}

// ClaimsDeps bundles what the claims normalizer service needs.
type ClaimsDeps struct {
	Config config.Config
	Log    *slog.Logger
	Store  store.Store
	LLM    llm.Client
	Cache  cache.Cache
}

// QuotesDeps bundles what the quote comparison service needs.
type QuotesDeps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    store.Store
	LLM      llm.Client
	Embedder embeddings.Embedder
	Cache    cache.Cache
}

// ClassifierDeps bundles what the document classifier service needs.
type ClassifierDeps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    store.Store
	Embedder embeddings.Embedder
}

// BuildGateway loads env, config, and the gateway's shared components.
func BuildGateway() (GatewayDeps, error) {
	cfg, log := loadBase("gateway")

	st, err := buildStore(cfg, log)
	if err != nil {
		return GatewayDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return GatewayDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return GatewayDeps{Config: cfg, Log: log, Store: st, Queue: q}, nil
}

// BuildWorker wires a queue worker (summarizer or underwriter).
func BuildWorker(service string) (WorkerDeps, error) {
	cfg, log := loadBase(service)

	st, err := buildStore(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return WorkerDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return WorkerDeps{Config: cfg, Log: log, Store: st, Queue: q, LLM: llmClient}, nil
}

// BuildClaims wires the claims normalizer.
func BuildClaims() (ClaimsDeps, error) {
	cfg, log := loadBase("claims")

	st, err := buildStore(cfg, log)
	if err != nil {
		return ClaimsDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return ClaimsDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	c := buildCache(cfg, log)
	return ClaimsDeps{Config: cfg, Log: log, Store: st, LLM: llmClient, Cache: c}, nil
}

// BuildQuotes wires the quote comparison chat service.
func BuildQuotes() (QuotesDeps, error) {
	cfg, log := loadBase("quotes")

	st, err := buildStore(cfg, log)
	if err != nil {
		return QuotesDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return QuotesDeps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return QuotesDeps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := buildCache(cfg, log)
	return QuotesDeps{Config: cfg, Log: log, Store: st, LLM: llmClient, Embedder: embedder, Cache: c}, nil
}

// BuildClassifier wires the document classifier.
func BuildClassifier() (ClassifierDeps, error) {
	cfg, log := loadBase("classifier")

	st, err := buildStore(cfg, log)
	if err != nil {
		return ClassifierDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return ClassifierDeps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return ClassifierDeps{Config: cfg, Log: log, Store: st, Embedder: embedder}, nil
}

func loadBase(service string) (config.Config, *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel, service)
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
		return embedder, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

// buildCache falls back to the no-op cache so claim normalization and quote
// chat keep working when Redis is down.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.CacheProvider == "redis" {
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err == nil {
			log.Info("using Redis cache", "addr", cfg.RedisAddr)
			return c
		}
		log.Warn("redis unavailable, falling back to no-op cache", "err", err)
	}
	return cache.NewNoOpCache()
}

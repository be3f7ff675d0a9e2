package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			for i, c := range env {
				if c == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}()
	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"MaxUploadSize", cfg.MaxUploadSize, int64(10485760)},
		{"StoreProvider", cfg.StoreProvider, "postgres"},
		{"QueueProvider", cfg.QueueProvider, "nats"},
		{"CacheProvider", cfg.CacheProvider, "redis"},
		{"CacheTTL", cfg.CacheTTL, 3600},
		{"SessionTTL", cfg.SessionTTL, 1800},
		{"LLMProvider", cfg.LLMProvider, "openai"},
		{"LLMModel", cfg.LLMModel, "gpt-4o-mini"},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
		{"SummaryMode", cfg.SummaryMode, "concurrent"},
		{"SummaryWorkers", cfg.SummaryWorkers, 4},
		{"ChunkWords", cfg.ChunkWords, 500},
		{"ChunkOverlap", cfg.ChunkOverlap, 25},
		{"MaxDocChars", cfg.MaxDocChars, 5000},
		{"ReferenceCollection", cfg.ReferenceCollection, "insurance_reference_docs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SUMMARY_MODE", "sequential")
	t.Setenv("SUMMARY_WORKERS", "8")
	t.Setenv("DB_URL", "postgres://localhost/insurance")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.SummaryMode != "sequential" {
		t.Errorf("expected sequential mode, got %s", cfg.SummaryMode)
	}
	if cfg.SummaryWorkers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.SummaryWorkers)
	}
	if cfg.DBURL != "postgres://localhost/insurance" {
		t.Errorf("unexpected DB URL: %s", cfg.DBURL)
	}
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LLM_PROVIDER", "EXTRACTION_CHUNK_THRESHOLD", "EXTRACTION_MAX_CHUNK_CHARS", "EXTRACTION_CHUNK_OVERLAP", "STORAGE_BACKEND", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != "8000" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.LLM.Provider != ProviderGemini {
		t.Errorf("Provider = %q", cfg.LLM.Provider)
	}
	if cfg.Extraction.ChunkThreshold != 8000 || cfg.Extraction.MaxChunkChars != 4000 || cfg.Extraction.ChunkOverlap != 500 {
		t.Errorf("chunking = %d/%d/%d", cfg.Extraction.ChunkThreshold, cfg.Extraction.MaxChunkChars, cfg.Extraction.ChunkOverlap)
	}
	if cfg.Storage.Backend != StorageLocal {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Server.RequestTimeout != 120*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.Server.RequestTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("EXTRACTION_MAX_RETRIES", "5")
	t.Setenv("LLM_TEMPERATURE", "0.4")
	t.Setenv("LLM_CALL_TIMEOUT", "15s")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("QDRANT_VECTOR_SIZE", "1536")
	t.Setenv("EXTRACTION_CONCURRENCY", "not-a-number")

	cfg := Load()

	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q", cfg.LLM.Provider)
	}
	if cfg.Extraction.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.Extraction.MaxRetries)
	}
	if cfg.LLM.Temperature != 0.4 {
		t.Errorf("Temperature = %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.CallTimeout != 15*time.Second {
		t.Errorf("CallTimeout = %v", cfg.LLM.CallTimeout)
	}
	if !cfg.Storage.MinIO.UseSSL {
		t.Error("UseSSL not applied")
	}
	if cfg.Qdrant.VectorSize != 1536 {
		t.Errorf("VectorSize = %d", cfg.Qdrant.VectorSize)
	}
	if cfg.Extraction.Concurrency != 3 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Extraction.Concurrency)
	}
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "soon")
	if got := getEnvAsDuration("SOME_TIMEOUT", "3s"); got != 3*time.Second {
		t.Errorf("got %v", got)
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{RequestTimeout: time.Minute},
		LLM: LLMConfig{
			Provider:          ProviderGemini,
			GeminiAPIKey:      "key",
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Extraction: ExtractionConfig{
			ChunkThreshold:        8000,
			MaxChunkChars:         4000,
			ChunkOverlap:          500,
			MaxRetries:            3,
			MaxValidationAttempts: 3,
		},
		Storage: StorageConfig{Backend: StorageLocal, MaxFileSize: 1024},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"openai with key", func(c *Config) { c.LLM.Provider = ProviderOpenAI; c.LLM.OpenAIAPIKey = "sk" }, ""},
		{"gemini without key", func(c *Config) { c.LLM.GeminiAPIKey = "" }, "GEMINI_API_KEY"},
		{"openai without key", func(c *Config) { c.LLM.Provider = ProviderOpenAI }, "OPENAI_API_KEY"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }, "LLM_PROVIDER"},
		{"unknown storage", func(c *Config) { c.Storage.Backend = "s3" }, "STORAGE_BACKEND"},
		{"zero chunk size", func(c *Config) { c.Extraction.MaxChunkChars = 0 }, "EXTRACTION_MAX_CHUNK_CHARS"},
		{"overlap not below chunk size", func(c *Config) { c.Extraction.ChunkOverlap = 4000 }, "EXTRACTION_CHUNK_OVERLAP"},
		{"threshold below chunk size", func(c *Config) { c.Extraction.ChunkThreshold = 3000 }, "EXTRACTION_CHUNK_THRESHOLD"},
		{"zero retries", func(c *Config) { c.Extraction.MaxRetries = 0 }, "at least 1"},
		{"zero requests per second", func(c *Config) { c.LLM.RequestsPerSecond = 0 }, "LLM_REQUESTS_PER_SECOND"},
		{"negative requests per second", func(c *Config) { c.LLM.RequestsPerSecond = -1 }, "LLM_REQUESTS_PER_SECOND"},
		{"zero burst", func(c *Config) { c.LLM.Burst = 0 }, "LLM_BURST"},
		{"zero file size", func(c *Config) { c.Storage.MaxFileSize = 0 }, "MAX_FILE_SIZE"},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

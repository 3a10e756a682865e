package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	LLM        LLMConfig
	Extraction ExtractionConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Qdrant     QdrantConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	RequestTimeout time.Duration
	AllowOrigins   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type LLMConfig struct {
	Provider          string
	GeminiAPIKey      string
	GeminiModel       string
	EmbeddingModel    string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	Temperature       float32
	MaxOutputTokens   int
	CallTimeout       time.Duration
	RequestsPerSecond float64
	Burst             int
}

type ExtractionConfig struct {
	ChunkThreshold        int
	MaxChunkChars         int
	ChunkOverlap          int
	MaxRetries            int
	MaxValidationAttempts int
	RetryInitialDelay     time.Duration
	RetryMaxDelay         time.Duration
	Concurrency           int
}

type StorageConfig struct {
	Backend     string
	UploadPath  string
	MaxFileSize int64
	MinIO       MinIOConfig
}

type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StorageLocal = "local"
	StorageMinIO = "minio"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8000"),
			Env:            getEnv("ENV", "development"),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", "120s"),
			AllowOrigins:   getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_parser"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		LLM: LLMConfig{
			Provider:          strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbeddingModel:    getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature:       getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			MaxOutputTokens:   getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 4000),
			CallTimeout:       getEnvAsDuration("LLM_CALL_TIMEOUT", "60s"),
			RequestsPerSecond: getEnvAsFloat64("LLM_REQUESTS_PER_SECOND", 2),
			Burst:             getEnvAsInt("LLM_BURST", 4),
		},
		Extraction: ExtractionConfig{
			ChunkThreshold:        getEnvAsInt("EXTRACTION_CHUNK_THRESHOLD", 8000),
			MaxChunkChars:         getEnvAsInt("EXTRACTION_MAX_CHUNK_CHARS", 4000),
			ChunkOverlap:          getEnvAsInt("EXTRACTION_CHUNK_OVERLAP", 500),
			MaxRetries:            getEnvAsInt("EXTRACTION_MAX_RETRIES", 3),
			MaxValidationAttempts: getEnvAsInt("EXTRACTION_MAX_VALIDATION_ATTEMPTS", 3),
			RetryInitialDelay:     getEnvAsDuration("EXTRACTION_RETRY_INITIAL_DELAY", "2s"),
			RetryMaxDelay:         getEnvAsDuration("EXTRACTION_RETRY_MAX_DELAY", "30s"),
			Concurrency:           getEnvAsInt("EXTRACTION_CONCURRENCY", 3),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
			UploadPath:  getEnv("UPLOAD_PATH", "./data/uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			MinIO: MinIOConfig{
				Endpoint:        getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getEnv("MINIO_ACCESS_KEY", ""),
				SecretAccessKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:          getEnv("MINIO_BUCKET", "resumes"),
				Region:          getEnv("MINIO_REGION", ""),
				UseSSL:          getEnvAsBool("MINIO_USE_SSL", false),
			},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", "24h"),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "resume_profiles"),
			VectorSize: uint64(getEnvAsInt64("QDRANT_VECTOR_SIZE", 768)),
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.LLM.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}

	switch c.Storage.Backend {
	case StorageLocal, StorageMinIO:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.Extraction.MaxChunkChars <= 0 {
		return fmt.Errorf("EXTRACTION_MAX_CHUNK_CHARS must be positive")
	}
	if c.Extraction.ChunkThreshold < c.Extraction.MaxChunkChars {
		return fmt.Errorf("EXTRACTION_CHUNK_THRESHOLD must be at least EXTRACTION_MAX_CHUNK_CHARS")
	}
	if c.Extraction.ChunkOverlap < 0 || c.Extraction.ChunkOverlap >= c.Extraction.MaxChunkChars {
		return fmt.Errorf("EXTRACTION_CHUNK_OVERLAP must be in [0, EXTRACTION_MAX_CHUNK_CHARS)")
	}
	if c.Extraction.MaxRetries < 1 || c.Extraction.MaxValidationAttempts < 1 {
		return fmt.Errorf("retry and validation attempt limits must be at least 1")
	}
	if c.LLM.RequestsPerSecond <= 0 {
		return fmt.Errorf("LLM_REQUESTS_PER_SECOND must be positive")
	}
	if c.LLM.Burst < 1 {
		return fmt.Errorf("LLM_BURST must be at least 1")
	}
	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	return float32(getEnvAsFloat64(key, float64(defaultValue)))
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

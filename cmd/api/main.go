package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"alfredoptarigan/resume-parser/internal/config"
	"alfredoptarigan/resume-parser/internal/handlers"
	"alfredoptarigan/resume-parser/internal/metrics"
	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/repositories"
	"alfredoptarigan/resume-parser/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	ctx := context.Background()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("❌ Failed to get database handle: %v", err)
	}

	// Initialize repositories
	resumeRepo := repositories.NewResumeRepository(db)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️  Redis unreachable, cache reads will fall back to the database: %v", err)
		}
		resumeRepo = repositories.NewCachedResumeRepository(resumeRepo, redisClient, cfg.Redis.TTL)
		log.Println("✅ Redis cache enabled")
	}
	log.Println("✅ Repositories initialized successfully")

	// Initialize storage
	storageService, err := newStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}
	if err := storageService.EnsureUploadDir(ctx); err != nil {
		log.Fatalf("❌ Failed to prepare upload storage: %v", err)
	}
	log.Printf("✅ Storage initialized (%s)", cfg.Storage.Backend)

	// Initialize LLM
	var geminiService services.GeminiService
	if cfg.LLM.GeminiAPIKey != "" {
		geminiService, err = services.NewGeminiService(ctx, cfg.LLM)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
		}
	}

	var llmClient services.LLMClient
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		llmClient = services.NewOpenAIService(cfg.LLM)
	default:
		llmClient = geminiService
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.LLM.RequestsPerSecond), cfg.LLM.Burst)
	llmClient = services.NewMeteredClient(llmClient, limiter, cfg.LLM.CallTimeout)
	log.Printf("✅ LLM client initialized (%s/%s)", llmClient.Provider(), llmClient.Model())

	extractor := services.NewStructuredExtractor(llmClient, services.RetryPolicy{
		MaxRetries:            cfg.Extraction.MaxRetries,
		MaxValidationAttempts: cfg.Extraction.MaxValidationAttempts,
		InitialDelay:          cfg.Extraction.RetryInitialDelay,
		MaxDelay:              cfg.Extraction.RetryMaxDelay,
	}, cfg.Extraction.Concurrency)

	// Initialize Qdrant
	var profileIndex services.ProfileIndex
	switch {
	case cfg.Qdrant.URL == "":
		log.Println("⚠️  QDRANT_URL not set, similar profile search disabled")
	case geminiService == nil:
		log.Println("⚠️  GEMINI_API_KEY not set, similar profile search disabled")
	default:
		index, err := services.NewQdrantProfileIndex(cfg.Qdrant, geminiService)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := index.InitCollection(ctx); err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
		}
		profileIndex = index
		log.Println("✅ Qdrant initialized successfully")
	}

	parser := services.NewResumeParserService(services.ResumeParserDeps{
		TextExtractor:  services.NewTextExtractor(),
		Preprocessor:   services.NewPreprocessor(),
		Chunker:        services.NewTextChunker(cfg.Extraction.ChunkThreshold, cfg.Extraction.MaxChunkChars, cfg.Extraction.ChunkOverlap),
		Extractor:      extractor,
		Storage:        storageService,
		Repository:     resumeRepo,
		ProfileIndex:   profileIndex,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	log.Println("✅ Services initialized successfully")

	// Initialize Handlers
	uploadHandler := handlers.NewUploadHandler(parser, cfg.Storage.MaxFileSize)
	resumeHandler := handlers.NewResumeHandler(parser)
	healthHandler := handlers.NewHealthHandler(sqlDB, handlers.Version)
	log.Println("✅ Handlers initialized")

	metrics.Register()

	// Create Fiber app. The body limit leaves room for multipart framing so
	// oversize files reach the handler and get a 413 with a JSON body.
	app := fiber.New(fiber.Config{
		AppName:      "Resume Parser API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 10*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(metrics.FiberMiddleware())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.SetupRoutes(app, uploadHandler, resumeHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(cfg.Server.RequestTimeout); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
		if profileIndex != nil {
			if err := profileIndex.Close(); err != nil {
				log.Printf("⚠️  Failed to close Qdrant client: %v", err)
			}
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Printf("⚠️  Failed to close Redis client: %v", err)
			}
		}
		if err := sqlDB.Close(); err != nil {
			log.Printf("⚠️  Failed to close database: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)
	log.Printf("📖 API Documentation: http://localhost%s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func newStorage(cfg config.StorageConfig) (services.StorageService, error) {
	if cfg.Backend == config.StorageMinIO {
		return services.NewMinIOStorageService(cfg.MinIO)
	}
	return services.NewStorageService(cfg.UploadPath), nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	detail := "INTERNAL_ERROR"
	switch code {
	case fiber.StatusRequestEntityTooLarge:
		detail = "FILE_TOO_LARGE"
	case fiber.StatusNotFound:
		detail = "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		detail = "METHOD_NOT_ALLOWED"
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error:  err.Error(),
		Detail: detail,
	})
}

package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"

	"alfredoptarigan/resume-parser/internal/config"
	"alfredoptarigan/resume-parser/internal/repositories"
	"alfredoptarigan/resume-parser/internal/services"
)

const defaultReindexLimit = 500

// Rebuilds the similar-profile index from stored resumes. Usage:
//
//	go run ./scripts [limit]
func main() {
	log.Println("🚀 Starting profile reindex...")

	limit := defaultReindexLimit
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n < 1 {
			log.Fatalf("❌ Invalid limit %q", os.Args[1])
		}
		limit = n
	}

	// Load configuration
	cfg := config.Load()
	if cfg.Qdrant.URL == "" || cfg.LLM.GeminiAPIKey == "" {
		log.Fatal("❌ QDRANT_URL and GEMINI_API_KEY are required to build the profile index")
	}

	ctx := context.Background()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	repo := repositories.NewResumeRepository(db)

	// Initialize services
	geminiService, err := services.NewGeminiService(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	index, err := services.NewQdrantProfileIndex(cfg.Qdrant, geminiService)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	defer index.Close()

	if err := index.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	records, err := repo.ListRecent(ctx, limit)
	if err != nil {
		log.Fatalf("❌ Failed to load resumes: %v", err)
	}
	log.Printf("📄 Loaded %d resumes", len(records))

	successCount := 0
	failCount := 0

	for i, record := range records {
		data := record.Data.Data()
		if err := index.IndexProfile(ctx, record.DocumentID, data); err != nil {
			log.Printf("   ❌ Failed to index %s (%s): %v", record.DocumentID, record.Document.OriginalFilename, err)
			failCount++
			continue
		}
		successCount++

		if (i+1)%20 == 0 || i == len(records)-1 {
			log.Printf("   📊 Progress: %d/%d profiles indexed", i+1, len(records))
		}
	}

	// Summary
	log.Println("\n" + strings.Repeat("=", 60))
	log.Printf("📊 Reindex Summary:")
	log.Printf("   ✅ Successful: %d profiles", successCount)
	log.Printf("   ❌ Failed: %d profiles", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some profiles failed to index. Please check the logs above.")
		index.Close()
		os.Exit(1)
	}

	log.Println("✅ All profiles indexed successfully!")
}

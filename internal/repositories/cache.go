package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"alfredoptarigan/resume-parser/internal/models"
)

const cacheKeyPrefix = "resume:record:"

type cachedResumeRepository struct {
	next   ResumeRepository
	client *redis.Client
	ttl    time.Duration
}

// NewCachedResumeRepository wraps next with a Redis read-through cache.
// Cache failures are logged and never fail the call.
func NewCachedResumeRepository(next ResumeRepository, client *redis.Client, ttl time.Duration) ResumeRepository {
	return &cachedResumeRepository{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(documentID uuid.UUID) string {
	return cacheKeyPrefix + documentID.String()
}

// Save implements ResumeRepository. The cache is written only after commit.
func (c *cachedResumeRepository) Save(ctx context.Context, doc *models.UploadedDocument, record *models.ResumeRecord) error {
	if err := c.next.Save(ctx, doc, record); err != nil {
		return err
	}

	if err := c.put(ctx, record); err != nil {
		log.Printf("⚠️  Failed to cache resume %s: %v", record.DocumentID, err)
	}
	return nil
}

// Get implements ResumeRepository.
func (c *cachedResumeRepository) Get(ctx context.Context, documentID uuid.UUID) (*models.ResumeRecord, error) {
	record, err := c.get(ctx, documentID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Printf("⚠️  Resume cache read failed for %s: %v", documentID, err)
	}

	record, err = c.next.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if err := c.put(ctx, record); err != nil {
		log.Printf("⚠️  Failed to cache resume %s: %v", documentID, err)
	}
	return record, nil
}

// ListRecent implements ResumeRepository.
func (c *cachedResumeRepository) ListRecent(ctx context.Context, limit int) ([]models.ResumeRecord, error) {
	return c.next.ListRecent(ctx, limit)
}

func (c *cachedResumeRepository) get(ctx context.Context, documentID uuid.UUID) (*models.ResumeRecord, error) {
	raw, err := c.client.Get(ctx, cacheKey(documentID)).Bytes()
	if err != nil {
		return nil, err
	}

	var record models.ResumeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode cached resume: %w", err)
	}
	return &record, nil
}

func (c *cachedResumeRepository) put(ctx context.Context, record *models.ResumeRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode resume: %w", err)
	}
	return c.client.Set(ctx, cacheKey(record.DocumentID), raw, c.ttl).Err()
}

package services

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/models"
)

// ExtractionResult is the merged output for one document.
type ExtractionResult struct {
	Data       models.ResumeData
	ChunkCount int
	Model      string
}

// StructuredExtractor turns cleaned text chunks into validated resume data.
type StructuredExtractor interface {
	Extract(ctx context.Context, chunks []models.TextChunk) (*ExtractionResult, error)
}

type structuredExtractor struct {
	client        LLMClient
	policy        RetryPolicy
	concurrency   int
	promptBuilder *PromptBuilder
}

func NewStructuredExtractor(client LLMClient, policy RetryPolicy, concurrency int) StructuredExtractor {
	if concurrency < 1 {
		concurrency = 1
	}
	if policy.MaxRetries < 1 {
		policy.MaxRetries = 1
	}
	if policy.MaxValidationAttempts < 1 {
		policy.MaxValidationAttempts = 1
	}

	return &structuredExtractor{
		client:        client,
		policy:        policy,
		concurrency:   concurrency,
		promptBuilder: NewPromptBuilder(),
	}
}

// Extract implements StructuredExtractor. Chunks are processed concurrently
// but merged in chunk order. Any failing chunk fails the whole extraction.
func (e *structuredExtractor) Extract(ctx context.Context, chunks []models.TextChunk) (*ExtractionResult, error) {
	if len(chunks) == 0 {
		return nil, common.NewError(common.ErrEmptyDocument, "nothing to extract", nil)
	}

	log.Printf("🤖 Extracting resume data from %d chunk(s) with %s/%s", len(chunks), e.client.Provider(), e.client.Model())

	systemPrompt := e.promptBuilder.BuildSystemPrompt()
	results := make([]*models.ResumeData, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			req := ExtractionRequest{
				SystemPrompt: systemPrompt,
				UserPrompt:   e.promptBuilder.BuildExtractionPrompt(chunk, len(chunks)),
				ChunkIndex:   chunk.Index,
			}
			data, err := newChunkAttempt(e.client, e.policy, req).run(gctx)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// A sibling failure cancels gctx; report the deadline if it was ours.
		if ctx.Err() != nil && common.Kind(err) != common.ErrExtractionTimeout {
			return nil, timeoutError(ctx.Err())
		}
		return nil, err
	}

	return &ExtractionResult{
		Data:       mergeResumeData(results),
		ChunkCount: len(chunks),
		Model:      e.client.Provider() + "/" + e.client.Model(),
	}, nil
}

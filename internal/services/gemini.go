package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/genai"

	"alfredoptarigan/resume-parser/internal/config"
)

// GeminiService extracts resumes with Gemini and embeds profile text for the
// similarity index.
type GeminiService interface {
	LLMClient
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type geminiService struct {
	client          *genai.Client
	modelName       string
	embedModel      string
	temperature     float32
	maxOutputTokens int32
}

func NewGeminiService(ctx context.Context, cfg config.LLMConfig) (GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:          client,
		modelName:       cfg.GeminiModel,
		embedModel:      cfg.EmbeddingModel,
		temperature:     cfg.Temperature,
		maxOutputTokens: int32(cfg.MaxOutputTokens),
	}, nil
}

func (g *geminiService) Provider() string { return config.ProviderGemini }
func (g *geminiService) Model() string    { return g.modelName }

// Extract implements LLMClient.
func (g *geminiService) Extract(ctx context.Context, req ExtractionRequest) (*LLMResponse, error) {
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   g.maxOutputTokens,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResumeGenaiSchema(),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(req.UserPrompt), genConfig)
	if err != nil {
		return nil, g.classify(err)
	}

	if resp == nil {
		return nil, &ServiceError{Provider: g.Provider(), Err: errEmptyResponse}
	}

	text := resp.Text()
	if text == "" {
		reason := "no candidates"
		if len(resp.Candidates) > 0 {
			reason = fmt.Sprintf("finish reason %s", resp.Candidates[0].FinishReason)
		}
		return nil, &ServiceError{Provider: g.Provider(), Err: fmt.Errorf("%w: %s", errEmptyResponse, reason)}
	}

	out := &LLMResponse{Text: text, Model: g.modelName}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func (g *geminiService) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{
			Provider:   g.Provider(),
			StatusCode: apiErr.Code,
			Retryable:  retryableStatus(apiErr.Code),
			Err:        err,
		}
	}
	return classifyTransport(g.Provider(), err)
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = truncateUTF8(text, maxEmbeddingBytes)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// About 10000 tokens, the embedding input limit.
const maxEmbeddingBytes = 40000

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

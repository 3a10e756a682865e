package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"alfredoptarigan/resume-parser/internal/config"
)

type openAIService struct {
	client          openai.Client
	modelName       string
	temperature     float64
	maxOutputTokens int64
}

// NewOpenAIService builds an LLMClient backed by chat completions with a
// json_schema response format. SDK retries are disabled; the extractor owns
// the retry policy.
func NewOpenAIService(cfg config.LLMConfig) LLMClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(0),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &openAIService{
		client:          openai.NewClient(opts...),
		modelName:       cfg.OpenAIModel,
		temperature:     float64(cfg.Temperature),
		maxOutputTokens: int64(cfg.MaxOutputTokens),
	}
}

func (o *openAIService) Provider() string { return config.ProviderOpenAI }
func (o *openAIService) Model() string    { return o.modelName }

// Extract implements LLMClient.
func (o *openAIService) Extract(ctx context.Context, req ExtractionRequest) (*LLMResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature:         openai.Float(o.temperature),
		MaxCompletionTokens: openai.Int(o.maxOutputTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "resume",
					Description: openai.String("Structured data extracted from a resume"),
					Schema:      ResumeJSONSchema(),
					Strict:      openai.Bool(false),
				},
			},
		},
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, o.classify(err)
	}

	if len(completion.Choices) == 0 {
		return nil, &ServiceError{Provider: o.Provider(), Err: fmt.Errorf("%w: no choices", errEmptyResponse)}
	}

	message := completion.Choices[0].Message
	if message.Refusal != "" {
		return nil, &ServiceError{Provider: o.Provider(), Err: fmt.Errorf("model refused: %s", message.Refusal)}
	}

	text := strings.TrimSpace(message.Content)
	if text == "" {
		return nil, &ServiceError{Provider: o.Provider(), Err: fmt.Errorf("%w: finish reason %s", errEmptyResponse, completion.Choices[0].FinishReason)}
	}

	return &LLMResponse{
		Text:         text,
		Model:        completion.Model,
		PromptTokens: int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}, nil
}

func (o *openAIService) classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &ServiceError{
			Provider:   o.Provider(),
			StatusCode: apiErr.StatusCode,
			Retryable:  retryableStatus(apiErr.StatusCode),
			Err:        err,
		}
	}
	return classifyTransport(o.Provider(), err)
}

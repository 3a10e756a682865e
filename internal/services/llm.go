package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/metrics"
)

// ExtractionRequest is one structured-output call to a provider.
type ExtractionRequest struct {
	SystemPrompt string
	UserPrompt   string
	ChunkIndex   int
	Attempt      int
}

// LLMResponse is the raw text returned by a provider plus usage data.
type LLMResponse struct {
	Text         string
	Model        string
	PromptTokens int
	OutputTokens int
}

// LLMClient is a provider able to return JSON constrained by the resume
// schema.
type LLMClient interface {
	Provider() string
	Model() string
	Extract(ctx context.Context, req ExtractionRequest) (*LLMResponse, error)
}

// ServiceError is a provider failure classified for the retry loop.
type ServiceError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// retryableStatus reports whether an HTTP status is worth another attempt.
func retryableStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	}
	return false
}

// classifyTransport wraps errors that never reached an HTTP status.
func classifyTransport(provider string, err error) error {
	var netErr net.Error
	retryable := errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) ||
		errors.Is(err, io.ErrUnexpectedEOF)
	return &ServiceError{Provider: provider, Retryable: retryable, Err: err}
}

// errEmptyResponse marks a provider reply without any text.
var errEmptyResponse = errors.New("empty response")

type meteredClient struct {
	next        LLMClient
	limiter     *rate.Limiter
	callTimeout time.Duration
}

// NewMeteredClient wraps next with a client-side rate limiter, a per-call
// timeout, a log line per call and Prometheus metrics.
func NewMeteredClient(next LLMClient, limiter *rate.Limiter, callTimeout time.Duration) LLMClient {
	return &meteredClient{
		next:        next,
		limiter:     limiter,
		callTimeout: callTimeout,
	}
}

func (m *meteredClient) Provider() string { return m.next.Provider() }
func (m *meteredClient) Model() string    { return m.next.Model() }

// Extract implements LLMClient.
func (m *meteredClient) Extract(ctx context.Context, req ExtractionRequest) (*LLMResponse, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, m.limiterError(ctx, err)
		}
	}

	callCtx := ctx
	if m.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.callTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := m.next.Extract(callCtx, req)
	elapsed := time.Since(start)

	provider, model := m.next.Provider(), m.next.Model()
	if err != nil {
		outcome := "fatal"
		var se *ServiceError
		if errors.As(err, &se) && se.Retryable {
			outcome = "retryable"
		}
		if ctx.Err() != nil {
			outcome = "cancelled"
		}
		metrics.ObserveLLMCall(provider, model, outcome, elapsed, 0, 0)
		log.Printf("❌ LLM %s/%s chunk=%d attempt=%d failed after %s: %v",
			provider, model, req.ChunkIndex, req.Attempt, elapsed.Round(time.Millisecond), err)
		return nil, err
	}

	metrics.ObserveLLMCall(provider, model, "success", elapsed, resp.PromptTokens, resp.OutputTokens)
	log.Printf("🤖 LLM %s/%s chunk=%d attempt=%d took %s (tokens in=%d out=%d)",
		provider, model, req.ChunkIndex, req.Attempt, elapsed.Round(time.Millisecond), resp.PromptTokens, resp.OutputTokens)

	return resp, nil
}

// limiterError tells a wait that would outlive the request apart from a
// limiter that can never admit a call.
func (m *meteredClient) limiterError(ctx context.Context, err error) error {
	limit := m.limiter.Limit()
	admits := limit == rate.Inf || (limit > 0 && m.limiter.Burst() >= 1)
	_, hasDeadline := ctx.Deadline()

	if ctx.Err() != nil || (admits && hasDeadline) {
		return common.NewError(common.ErrExtractionTimeout, "deadline reached while waiting for the LLM rate limiter", err)
	}
	return common.NewError(common.ErrExtractionServiceUnavailable, "LLM rate limiter admits no calls, check LLM_REQUESTS_PER_SECOND and LLM_BURST", err)
}

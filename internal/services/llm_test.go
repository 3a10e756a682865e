package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"alfredoptarigan/resume-parser/internal/common"
)

func TestMeteredClient_AppliesCallTimeout(t *testing.T) {
	inner := &fakeLLMClient{extractFn: func(ctx context.Context, req ExtractionRequest) (*LLMResponse, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("expected per-call deadline")
		} else if time.Until(deadline) > time.Second {
			t.Errorf("deadline too far away: %v", time.Until(deadline))
		}
		return respond(janeDoeJSON)
	}}
	client := NewMeteredClient(inner, rate.NewLimiter(rate.Inf, 1), time.Second)

	resp, err := client.Extract(context.Background(), ExtractionRequest{UserPrompt: "x"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if resp.Text != janeDoeJSON {
		t.Errorf("response not passed through")
	}
	if client.Provider() != "fake" || client.Model() != "test-model" {
		t.Errorf("identity = %s/%s", client.Provider(), client.Model())
	}
}

func TestMeteredClient_LimiterWaitPastDeadline(t *testing.T) {
	inner := &fakeLLMClient{extractFn: func(ctx context.Context, req ExtractionRequest) (*LLMResponse, error) {
		t.Fatal("provider must not be called when the limiter cannot admit the call")
		return nil, nil
	}}
	// One token per hour with the only token already spent.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow()
	client := NewMeteredClient(inner, limiter, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Extract(ctx, ExtractionRequest{})
	if !errors.Is(err, common.ErrExtractionTimeout) {
		t.Fatalf("expected ErrExtractionTimeout, got %v", err)
	}
}

func TestMeteredClient_LimiterThatAdmitsNothing(t *testing.T) {
	tests := []struct {
		name    string
		limiter *rate.Limiter
	}{
		{"zero burst", rate.NewLimiter(2, 0)},
		{"zero rate", rate.NewLimiter(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &fakeLLMClient{extractFn: func(ctx context.Context, req ExtractionRequest) (*LLMResponse, error) {
				return respond(janeDoeJSON)
			}}
			client := NewMeteredClient(inner, tt.limiter, 0)

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			_, err := client.Extract(ctx, ExtractionRequest{})
			if !errors.Is(err, common.ErrExtractionServiceUnavailable) {
				t.Fatalf("error = %v, want ErrExtractionServiceUnavailable", err)
			}
			if errors.Is(err, common.ErrExtractionTimeout) {
				t.Error("misconfigured limiter reported as a timeout")
			}
			if got := inner.calls.Load(); got != 0 {
				t.Errorf("provider calls = %d, want 0", got)
			}
		})
	}
}

func TestMeteredClient_PassesErrorsThrough(t *testing.T) {
	want := &ServiceError{Provider: "fake", StatusCode: 503, Retryable: true, Err: errors.New("overloaded")}
	inner := &fakeLLMClient{extractFn: func(ctx context.Context, req ExtractionRequest) (*LLMResponse, error) {
		return nil, want
	}}
	client := NewMeteredClient(inner, nil, 0)

	_, err := client.Extract(context.Background(), ExtractionRequest{})
	var se *ServiceError
	if !errors.As(err, &se) || se != want {
		t.Fatalf("expected the provider error, got %v", err)
	}
}

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"cancelled", context.Canceled, false},
		{"other", errors.New("invalid api key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyTransport("fake", tt.err)
			var se *ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("expected ServiceError, got %T", err)
			}
			if se.Retryable != tt.want {
				t.Errorf("Retryable = %v, want %v", se.Retryable, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause not unwrapped")
			}
		})
	}
}

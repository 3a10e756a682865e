package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"alfredoptarigan/resume-parser/internal/common"
	"alfredoptarigan/resume-parser/internal/models"
)

// RetryPolicy bounds how often one chunk is sent to the provider.
type RetryPolicy struct {
	// MaxRetries caps provider calls that fail with a transient error.
	MaxRetries int
	// MaxValidationAttempts caps responses that fail schema validation.
	MaxValidationAttempts int
	InitialDelay          time.Duration
	MaxDelay              time.Duration
}

// Backoff returns the wait before the next call after n transient failures.
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 || p.InitialDelay <= 0 {
		return 0
	}
	delay := p.InitialDelay
	for i := 1; i < n; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

type attemptState int

const (
	statePending attemptState = iota
	stateCalling
	stateSucceeded
	stateRetryableFailure
	stateFatalFailure
)

func (s attemptState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateCalling:
		return "calling"
	case stateSucceeded:
		return "succeeded"
	case stateRetryableFailure:
		return "retryable_failure"
	case stateFatalFailure:
		return "fatal_failure"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// chunkAttempt drives the calls for a single chunk until it succeeds or a
// limit is reached.
type chunkAttempt struct {
	client LLMClient
	policy RetryPolicy
	req    ExtractionRequest

	state              attemptState
	calls              int
	transientFailures  int
	validationFailures int
	lastErr            error
	result             *models.ResumeData
}

func newChunkAttempt(client LLMClient, policy RetryPolicy, req ExtractionRequest) *chunkAttempt {
	return &chunkAttempt{
		client: client,
		policy: policy,
		req:    req,
		state:  statePending,
	}
}

func (a *chunkAttempt) run(ctx context.Context) (*models.ResumeData, error) {
	for {
		switch a.state {
		case statePending:
			if err := ctx.Err(); err != nil {
				return nil, timeoutError(err)
			}
			a.state = stateCalling

		case stateCalling:
			a.calls++
			a.req.Attempt = a.calls
			a.state = a.call(ctx)
			if a.state == stateSucceeded || a.state == stateRetryableFailure || a.state == stateFatalFailure {
				continue
			}
			// Validation failures re-enter pending without backoff.
			if a.validationFailures >= a.policy.MaxValidationAttempts {
				return nil, common.NewError(common.ErrExtractionValidationFailure,
					fmt.Sprintf("chunk %d failed validation after %d attempts", a.req.ChunkIndex, a.validationFailures),
					a.lastErr).WithFields(common.Fields(a.lastErr))
			}
			log.Printf("⚠️  Chunk %d response failed validation (attempt %d/%d), retrying",
				a.req.ChunkIndex, a.validationFailures, a.policy.MaxValidationAttempts)

		case stateRetryableFailure:
			if err := ctx.Err(); err != nil {
				return nil, timeoutError(err)
			}
			if a.transientFailures >= a.policy.MaxRetries {
				return nil, common.NewError(common.ErrExtractionServiceUnavailable,
					fmt.Sprintf("chunk %d failed after %d attempts", a.req.ChunkIndex, a.transientFailures), a.lastErr)
			}
			delay := a.policy.Backoff(a.transientFailures)
			log.Printf("🔄 Chunk %d transient failure (attempt %d/%d), retrying in %s: %v",
				a.req.ChunkIndex, a.transientFailures, a.policy.MaxRetries, delay, a.lastErr)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, timeoutError(err)
			}
			a.state = statePending

		case stateFatalFailure:
			if common.Kind(a.lastErr) == common.ErrExtractionTimeout {
				return nil, a.lastErr
			}
			return nil, common.NewError(common.ErrExtractionServiceUnavailable,
				fmt.Sprintf("chunk %d: provider rejected the request", a.req.ChunkIndex), a.lastErr)

		case stateSucceeded:
			return a.result, nil
		}
	}
}

// call performs one provider call and returns the next state. A validation
// failure is reported as statePending.
func (a *chunkAttempt) call(ctx context.Context) attemptState {
	resp, err := a.client.Extract(ctx, a.req)
	if err != nil {
		a.lastErr = err
		if ctx.Err() != nil {
			a.lastErr = timeoutError(ctx.Err())
			return stateFatalFailure
		}
		if errors.Is(err, common.ErrExtractionTimeout) {
			return stateFatalFailure
		}
		if isRetryable(err) {
			a.transientFailures++
			return stateRetryableFailure
		}
		return stateFatalFailure
	}

	data, err := ParseResumeResponse(resp.Text)
	if err != nil {
		a.lastErr = err
		if errors.Is(err, common.ErrExtractionValidationFailure) {
			a.validationFailures++
			return statePending
		}
		return stateFatalFailure
	}

	a.result = data
	return stateSucceeded
}

// isRetryable reports whether a provider error is transient.
func isRetryable(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func timeoutError(cause error) error {
	return common.NewError(common.ErrExtractionTimeout, "request deadline exceeded during extraction", cause)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

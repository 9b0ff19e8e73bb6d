// Package resilience wraps an llm.LLMClient with error-type-aware retries.
package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"mediaagent/pkg/agent/llm"
	"mediaagent/pkg/agent/llmerrors"
	"mediaagent/pkg/logx"
)

// RetryableClient wraps an llm.LLMClient with retry logic.
type RetryableClient struct {
	client  llm.LLMClient
	logger  *logx.Logger
	configs map[llmerrors.ErrorType]llmerrors.RetryConfig
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetryableClient creates a retrying client using llmerrors.DefaultRetryConfigs.
func NewRetryableClient(client llm.LLMClient, logger *logx.Logger) *RetryableClient {
	if logger == nil {
		logger = logx.NewLogger("llm-retry")
	}
	return &RetryableClient{
		client:  client,
		logger:  logger,
		configs: llmerrors.DefaultRetryConfigs,
		sleep:   sleepCtx,
	}
}

// WithRetryConfigs overrides the per-type retry policy. Types not present
// fall back to the defaults.
func (r *RetryableClient) WithRetryConfigs(configs map[llmerrors.ErrorType]llmerrors.RetryConfig) *RetryableClient {
	merged := make(map[llmerrors.ErrorType]llmerrors.RetryConfig, len(llmerrors.DefaultRetryConfigs))
	for k, v := range llmerrors.DefaultRetryConfigs {
		merged[k] = v
	}
	for k, v := range configs {
		merged[k] = v
	}
	r.configs = merged
	return r
}

// GetModelName delegates to the underlying client.
func (r *RetryableClient) GetModelName() string {
	return r.client.GetModelName()
}

// Complete implements llm.LLMClient with retry logic. Retryable errors that
// survive every attempt come back as ErrorTypeServiceUnavailable.
func (r *RetryableClient) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	var lastErr *llmerrors.Error
	startTime := time.Now()

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := calculateDelay(attempt, r.configFor(lastErr.Type))
			if err := r.sleep(ctx, delay); err != nil {
				return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, "retry cancelled")
			}
		}

		attemptStart := time.Now()
		resp, err := r.client.Complete(ctx, req)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("%s: succeeded after %d retries", r.client.GetModelName(), attempt)
			}
			return resp, nil
		}

		lastErr = llmerrors.Classify(err, "completion failed")
		cfg := r.configFor(lastErr.Type)
		final := !lastErr.IsRetryable() || attempt >= cfg.MaxRetries || ctx.Err() != nil

		r.logger.Debug("attempt %d failed in %v (%s, final=%t): %v",
			attempt+1, time.Since(attemptStart), lastErr.Type, final, err)

		if final {
			if !lastErr.IsRetryable() || ctx.Err() != nil {
				return llm.CompletionResponse{}, lastErr
			}
			r.logger.Warn("%s: giving up after %d attempts in %v (%s)",
				r.client.GetModelName(), attempt+1, time.Since(startTime), lastErr.Type)
			return llm.CompletionResponse{}, llmerrors.NewServiceUnavailableError(lastErr, attempt+1)
		}
	}
}

func (r *RetryableClient) configFor(t llmerrors.ErrorType) llmerrors.RetryConfig {
	if cfg, ok := r.configs[t]; ok {
		return cfg
	}
	return r.configs[llmerrors.ErrorTypeUnknown]
}

// calculateDelay computes the backoff for a retry attempt (1-based).
func calculateDelay(attempt int, cfg llmerrors.RetryConfig) time.Duration {
	if attempt <= 0 || cfg.InitialDelay <= 0 {
		return 0
	}

	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(factor, float64(attempt-1)))
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	if cfg.Jitter {
		// +/-10%
		jitter := time.Duration((rand.Float64()*0.2 - 0.1) * float64(delay))
		delay += jitter
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

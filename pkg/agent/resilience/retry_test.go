package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaagent/pkg/agent/llm"
	"mediaagent/pkg/agent/llmerrors"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return llm.CompletionResponse{}, s.errs[i]
	}
	return llm.CompletionResponse{Content: "{}"}, nil
}

func (s *scriptedClient) GetModelName() string { return "scripted" }

func newTestClient(inner llm.LLMClient) *RetryableClient {
	c := NewRetryableClient(inner, nil)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func testRequest() llm.CompletionRequest {
	return llm.NewCompletionRequest([]llm.CompletionMessage{llm.NewUserMessage("plan")})
}

func TestRetriesTransientThenSucceeds(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		llmerrors.NewError(llmerrors.ErrorTypeTransient, "503"),
		llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429"),
	}}

	resp, err := newTestClient(inner).Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Content)
	assert.Equal(t, 3, inner.calls)
}

func TestAuthErrorIsNotRetried(t *testing.T) {
	inner := &scriptedClient{errs: []error{llmerrors.NewError(llmerrors.ErrorTypeAuth, "bad key")}}

	_, err := newTestClient(inner).Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeAuth))
	assert.Equal(t, 1, inner.calls)
}

func TestExhaustedRetriesBecomeServiceUnavailable(t *testing.T) {
	transient := llmerrors.NewError(llmerrors.ErrorTypeTransient, "503")
	inner := &scriptedClient{errs: []error{transient, transient, transient}}

	client := newTestClient(inner).WithRetryConfigs(map[llmerrors.ErrorType]llmerrors.RetryConfig{
		llmerrors.ErrorTypeTransient: {MaxRetries: 2, BackoffFactor: 1},
	})

	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeServiceUnavailable))
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, inner.calls)
}

func TestUnclassifiedErrorsAreClassified(t *testing.T) {
	inner := &scriptedClient{errs: []error{errors.New("dial tcp: connection refused")}}

	_, err := newTestClient(inner).Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	inner := &scriptedClient{errs: []error{llmerrors.NewError(llmerrors.ErrorTypeTransient, "503")}}
	client := NewRetryableClient(inner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, testRequest())
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCalculateDelay(t *testing.T) {
	cfg := llmerrors.RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffFactor: 2}

	assert.Equal(t, time.Duration(0), calculateDelay(0, cfg))
	assert.Equal(t, 100*time.Millisecond, calculateDelay(1, cfg))
	assert.Equal(t, 200*time.Millisecond, calculateDelay(2, cfg))
	assert.Equal(t, 300*time.Millisecond, calculateDelay(5, cfg))

	cfg.Jitter = true
	d := calculateDelay(2, cfg)
	assert.InDelta(t, float64(200*time.Millisecond), float64(d), float64(21*time.Millisecond))
}

package llmerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryability(t *testing.T) {
	assert.True(t, NewError(ErrorTypeRateLimit, "slow down").IsRetryable())
	assert.True(t, NewError(ErrorTypeTransient, "503").IsRetryable())
	assert.False(t, NewError(ErrorTypeAuth, "bad key").IsRetryable())
	assert.False(t, NewError(ErrorTypeBadPrompt, "too long").IsRetryable())
	assert.False(t, NewServiceUnavailableError(errors.New("x"), 3).IsRetryable())
}

func TestIsAndTypeOf(t *testing.T) {
	err := fmt.Errorf("planner: %w", NewError(ErrorTypeAuth, "bad key"))

	assert.True(t, Is(err, ErrorTypeAuth))
	assert.False(t, Is(err, ErrorTypeTransient))
	assert.Equal(t, ErrorTypeAuth, TypeOf(err))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(errors.New("plain")))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ErrorTypeRateLimit, ClassifyStatus(http.StatusTooManyRequests))
	assert.Equal(t, ErrorTypeAuth, ClassifyStatus(http.StatusUnauthorized))
	assert.Equal(t, ErrorTypeBadPrompt, ClassifyStatus(http.StatusBadRequest))
	assert.Equal(t, ErrorTypeTransient, ClassifyStatus(http.StatusBadGateway))
	assert.Equal(t, ErrorTypeUnknown, ClassifyStatus(http.StatusTeapot))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{context.DeadlineExceeded, ErrorTypeTransient},
		{context.Canceled, ErrorTypeBadPrompt},
		{errors.New("Error 429: RESOURCE_EXHAUSTED"), ErrorTypeRateLimit},
		{errors.New("API key not valid"), ErrorTypeAuth},
		{errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{errors.New("something odd"), ErrorTypeUnknown},
	}
	for _, tt := range tests {
		got := Classify(tt.err, "call failed")
		require.NotNil(t, got)
		assert.Equal(t, tt.want, got.Type, tt.err.Error())
		assert.ErrorIs(t, got, tt.err)
	}

	assert.Nil(t, Classify(nil, "x"))

	already := NewError(ErrorTypeAuth, "bad key")
	assert.Same(t, already, Classify(already, "ignored"))
}

func TestSanitizePrompt(t *testing.T) {
	short := "plan a clip"
	assert.Equal(t, short, SanitizePrompt(short, 100))

	long := strings.Repeat("a", 500) + strings.Repeat("z", 500)
	out := SanitizePrompt(long, 200)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 100)))
	assert.True(t, strings.HasSuffix(out, strings.Repeat("z", 100)))
	assert.Contains(t, out, "1000 chars, hash:")
}

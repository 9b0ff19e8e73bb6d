package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	counter, err := NewTokenCounter("gemini-2.5-flash")
	require.NoError(t, err)

	tests := []struct {
		text      string
		minTokens int
		maxTokens int
	}{
		{"", 0, 0},
		{"Hello world", 2, 3},
		{strings.Repeat("word ", 100), 90, 110},
	}
	for _, tt := range tests {
		got := counter.CountTokens(tt.text)
		assert.GreaterOrEqual(t, got, tt.minTokens)
		assert.LessOrEqual(t, got, tt.maxTokens)
	}
}

func TestNilCounterEstimates(t *testing.T) {
	var tc *TokenCounter
	assert.Equal(t, 2, tc.CountTokens("12345678"))
}

func TestTruncateKeepsTail(t *testing.T) {
	counter, err := NewTokenCounter("gpt-5")
	require.NoError(t, err)

	long := strings.Repeat("frame=  120 fps= 30 ", 200) + "Conversion failed!"
	truncated := counter.TruncateToTokenLimit(long, 50)
	assert.Less(t, len(truncated), len(long))
	assert.True(t, strings.HasPrefix(truncated, "..."))
	assert.True(t, strings.HasSuffix(truncated, "Conversion failed!"))
	assert.LessOrEqual(t, counter.CountTokens(truncated), 60)

	assert.Equal(t, "short", counter.TruncateToTokenLimit("short", 50))
	assert.Equal(t, long, counter.TruncateToTokenLimit(long, 0))
}

func TestTruncateRespectsRunes(t *testing.T) {
	var tc *TokenCounter
	truncated := tc.TruncateToTokenLimit(strings.Repeat("é", 400), 20)
	assert.True(t, utf8.ValidString(truncated))
	assert.True(t, strings.HasPrefix(truncated, "..."))
}

func TestIdentifiers(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
	assert.Len(t, ShortID(id), 8)
	assert.Equal(t, "abc", ShortID("abc"))
	assert.Equal(t, "run-2026-10-14T10-00", SanitizeIdentifier("run 2026-10-14T10:00"))
}

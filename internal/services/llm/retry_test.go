package llm

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"Nil error", nil, false},
		{"429 status", fmt.Errorf("Error 429, Message: quota exceeded"), true},
		{"Resource exhausted", fmt.Errorf("Status: RESOURCE_EXHAUSTED"), true},
		{"Quota mention", fmt.Errorf("quota limit reached for project"), true},
		{"Unrelated error", fmt.Errorf("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	err := fmt.Errorf("Error 429, Message: rate limited. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED")
	delay := ExtractRetryDelay(err)
	assert.InDelta(t, 45.387, delay.Seconds(), 0.001)

	assert.Equal(t, time.Duration(0), ExtractRetryDelay(fmt.Errorf("no delay here")))
	assert.Equal(t, time.Duration(0), ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	first := cfg.CalculateBackoff(0, 0)
	assert.Equal(t, cfg.InitialBackoff, first)

	second := cfg.CalculateBackoff(1, 0)
	assert.Greater(t, second, first)

	// API-provided delay replaces the base.
	withDelay := cfg.CalculateBackoff(0, 10*time.Second)
	assert.Equal(t, 15*time.Second, withDelay)

	// Never exceeds the cap.
	assert.LessOrEqual(t, cfg.CalculateBackoff(10, 0), cfg.MaxBackoff)
}

func TestDetectProvider(t *testing.T) {
	cfg := &common.LLMConfig{DefaultProvider: "gemini"}

	assert.Equal(t, interfaces.ProviderClaude, detectProvider(cfg, "claude-sonnet-4-20250514"))
	assert.Equal(t, interfaces.ProviderGemini, detectProvider(cfg, "gemini-2.0-flash"))
	assert.Equal(t, interfaces.ProviderGemini, detectProvider(cfg, ""))

	cfg.DefaultProvider = "claude"
	assert.Equal(t, interfaces.ProviderClaude, detectProvider(cfg, ""))
}

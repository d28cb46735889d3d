// -----------------------------------------------------------------------
// Provider Factory - Gemini and Claude behind one narrow contract
// Clients are created lazily on first use
// -----------------------------------------------------------------------

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"google.golang.org/genai"
)

// ProviderFactory routes content requests to the configured provider.
type ProviderFactory struct {
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger
	geminiClient *genai.Client
	claudeClient anthropic.Client
	claudeReady  bool
}

// Compile-time interface assertion
var _ interfaces.Provider = (*ProviderFactory)(nil)

// NewProviderFactory creates a new provider factory
func NewProviderFactory(llmConfig *common.LLMConfig, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		llmConfig: llmConfig,
		logger:    logger,
	}
}

// GetProviderType returns the configured default provider.
func (f *ProviderFactory) GetProviderType() interfaces.ProviderType {
	return detectProvider(f.llmConfig, "")
}

// detectProvider determines the provider type from a model string.
// Model names carry the provider ("claude-...", "gemini-..."); an empty
// model falls back to the configured default provider.
func detectProvider(cfg *common.LLMConfig, model string) interfaces.ProviderType {
	model = strings.ToLower(model)
	if strings.HasPrefix(model, "claude-") || strings.HasPrefix(model, "claude/") {
		return interfaces.ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") || strings.HasPrefix(model, "gemini/") {
		return interfaces.ProviderGemini
	}
	return interfaces.ProviderType(cfg.DefaultProvider)
}

// getGeminiClient returns a Gemini client, creating one if necessary
func (f *ProviderFactory) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	if f.llmConfig.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  f.llmConfig.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

// getClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) getClaudeClient() (anthropic.Client, error) {
	if f.claudeReady {
		return f.claudeClient, nil
	}

	if f.llmConfig.Claude.APIKey == "" {
		return anthropic.Client{}, fmt.Errorf("anthropic API key is not configured")
	}

	f.claudeClient = anthropic.NewClient(
		option.WithAPIKey(f.llmConfig.Claude.APIKey),
	)
	f.claudeReady = true
	return f.claudeClient, nil
}

// GenerateContent sends a single-turn request to the provider the
// request's model implies, retrying on transient failures.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	provider := detectProvider(f.llmConfig, request.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", request.Model).
		Int("payload_chars", len(request.UserPayload)).
		Msg("Generating content with provider")

	switch provider {
	case interfaces.ProviderClaude:
		return f.generateWithClaude(ctx, request)
	default:
		return f.generateWithGemini(ctx, request)
	}
}

// generateWithClaude generates content using the Claude API
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	client, err := f.getClaudeClient()
	if err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = f.llmConfig.Claude.Model
	}
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.llmConfig.Claude.MaxTokens
	}
	temp := request.Temperature
	if temp <= 0 {
		temp = f.llmConfig.Claude.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.UserPayload)),
		},
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}
	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	var resp *anthropic.Message
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Messages.New(ctx, params)
		if apiErr == nil {
			break
		}
		if attempt == retryConfig.MaxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 2 * time.Second
		if IsRateLimitError(apiErr) {
			backoff = retryConfig.CalculateBackoff(attempt, 0)
		}

		f.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("Claude API call failed after %d retries: %w", retryConfig.MaxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from Claude API")
	}

	return &interfaces.ContentResponse{
		Text:     text.String(),
		Provider: interfaces.ProviderClaude,
		Model:    model,
	}, nil
}

// generateWithGemini generates content using the Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	client, err := f.getGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	model := request.Model
	if model == "" {
		model = f.llmConfig.Gemini.Model
	}
	temp := request.Temperature
	if temp <= 0 {
		temp = f.llmConfig.Gemini.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}

	contents := genai.Text(request.UserPayload)

	var resp *genai.GenerateContentResponse
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(ctx, model, contents, config)
		if apiErr == nil {
			break
		}
		if attempt == retryConfig.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = retryConfig.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		f.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return nil, fmt.Errorf("Gemini API call failed after %d retries: %w", retryConfig.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API")
	}
	responseText := resp.Text()
	if responseText == "" {
		return nil, fmt.Errorf("empty text in Gemini response")
	}

	return &interfaces.ContentResponse{
		Text:     responseText,
		Provider: interfaces.ProviderGemini,
		Model:    model,
	}, nil
}

// Close resets the lazily created clients.
func (f *ProviderFactory) Close() error {
	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeReady = false
	return nil
}

package interfaces

import "context"

// ProviderType represents the AI provider backing a model call.
type ProviderType string

const (
	// ProviderGemini uses the Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses the Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ContentRequest is the single request shape every structuring call uses:
// a fixed system instruction describing the required output, plus the
// user payload (transcript, extracted text, OCR text, or a question).
type ContentRequest struct {
	SystemInstruction string
	UserPayload       string
	Model             string
	Temperature       float32
	MaxTokens         int
}

// ContentResponse is the provider-agnostic model response.
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider defines the narrow request/response contract with the
// generative-model endpoint. The pipeline consumes nothing else from a
// provider; everything downstream works on the raw response text.
type Provider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	GetProviderType() ProviderType
	Close() error
}

// Transcriber converts an uploaded audio recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

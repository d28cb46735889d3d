package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"google.golang.org/genai"
)

// transcribeInstruction keeps the model from editorializing over the
// recording.
const transcribeInstruction = `Transcribe this audio recording verbatim. Output only the spoken words as plain text, with sentence punctuation. Do not add speaker labels, timestamps, or commentary. If the audio contains no speech, output nothing.`

// GeminiTranscriber transcribes uploaded audio through Gemini's
// multimodal input. Live capture never touches this path; it exists for
// audio files submitted after the fact.
type GeminiTranscriber struct {
	factory *ProviderFactory
	model   string
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.Transcriber = (*GeminiTranscriber)(nil)

// NewGeminiTranscriber creates a transcriber using the given factory's
// Gemini client and the configured transcription model.
func NewGeminiTranscriber(factory *ProviderFactory, speechConfig *common.SpeechConfig, logger arbor.ILogger) *GeminiTranscriber {
	return &GeminiTranscriber{
		factory: factory,
		model:   speechConfig.TranscribeModel,
		logger:  logger,
	}
}

// Transcribe converts an audio recording to text.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio data provided")
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	client, err := t.factory.getGeminiClient(ctx)
	if err != nil {
		return "", err
	}

	t.logger.Debug().
		Str("model", t.model).
		Str("mime_type", mimeType).
		Int("bytes", len(audio)).
		Msg("Transcribing uploaded audio")

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcribeInstruction),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}

	var resp *genai.GenerateContentResponse
	var apiErr error
	retryConfig := NewDefaultRetryConfig()

	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		resp, apiErr = client.Models.GenerateContent(ctx, t.model, contents, nil)
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

		t.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying audio transcription call")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("audio transcription failed after %d retries: %w", retryConfig.MaxRetries, apiErr)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty transcription response")
	}

	return strings.TrimSpace(resp.Text()), nil
}

// -----------------------------------------------------------------------
// Content Structurer - Turns capture text into typed note fields
// Every call is one {system instruction, user payload} model request
// -----------------------------------------------------------------------

package structurer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// searchNoteCap bounds how much note metadata a search call ships to the
// model.
const searchNoteCap = 50

// Service implements the four structuring call shapes over a single
// model provider. Decode failures degrade to neutral defaults; only
// provider failures surface as errors.
type Service struct {
	provider          interfaces.Provider
	logger            arbor.ILogger
	documentCharCap   int
	quickContextChars int
}

// Compile-time interface assertion
var _ interfaces.StructurerService = (*Service)(nil)

// NewService creates a content structurer backed by the given provider.
func NewService(provider interfaces.Provider, cfg *common.IngestConfig, logger arbor.ILogger) *Service {
	return &Service{
		provider:          provider,
		logger:            logger,
		documentCharCap:   cfg.DocumentCharCap,
		quickContextChars: cfg.QuickContextChars,
	}
}

// StructureTranscript turns a session transcript into full note fields.
func (s *Service) StructureTranscript(ctx context.Context, transcript string) (*interfaces.NoteFields, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return &interfaces.NoteFields{}, nil
	}

	resp, err := s.provider.GenerateContent(ctx, &interfaces.ContentRequest{
		SystemInstruction: transcriptSystemInstruction,
		UserPayload:       transcript,
	})
	if err != nil {
		return nil, fmt.Errorf("transcript structuring call failed: %w", err)
	}

	return s.decodeFields(resp.Text), nil
}

// StructureDocument turns extracted document text into note fields. The
// input is capped to the configured character limit; empty input skips
// the model call entirely.
func (s *Service) StructureDocument(ctx context.Context, text string) (*interfaces.NoteFields, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.logger.Debug().Msg("No extracted text to structure, skipping model call")
		return &interfaces.NoteFields{}, nil
	}
	if s.documentCharCap > 0 && len(text) > s.documentCharCap {
		s.logger.Debug().
			Int("length", len(text)).
			Int("cap", s.documentCharCap).
			Msg("Truncating document text to character cap")
		text = text[:s.documentCharCap]
	}

	resp, err := s.provider.GenerateContent(ctx, &interfaces.ContentRequest{
		SystemInstruction: documentSystemInstruction,
		UserPayload:       text,
	})
	if err != nil {
		return nil, fmt.Errorf("document structuring call failed: %w", err)
	}

	return s.decodeFields(resp.Text), nil
}

// QuickAnswer answers a question over the trailing window of the note
// context, trading completeness for latency.
func (s *Service) QuickAnswer(ctx context.Context, question, noteContext string) (string, error) {
	if s.quickContextChars > 0 && len(noteContext) > s.quickContextChars {
		noteContext = noteContext[len(noteContext)-s.quickContextChars:]
	}
	return s.answer(ctx, quickAnswerSystemInstruction, question, noteContext)
}

// DeepAnswer answers a question with step-by-step reasoning over the
// full note context.
func (s *Service) DeepAnswer(ctx context.Context, question, noteContext string) (string, error) {
	return s.answer(ctx, deepAnswerSystemInstruction, question, noteContext)
}

func (s *Service) answer(ctx context.Context, instruction, question, noteContext string) (string, error) {
	payload := fmt.Sprintf("Notes:\n%s\n\nQuestion: %s", noteContext, question)

	resp, err := s.provider.GenerateContent(ctx, &interfaces.ContentRequest{
		SystemInstruction: instruction,
		UserPayload:       payload,
	})
	if err != nil {
		return "", fmt.Errorf("answer call failed: %w", err)
	}

	decoded := Decode(resp.Text)
	if answer, ok := decoded["answer"].(string); ok && strings.TrimSpace(answer) != "" {
		return strings.TrimSpace(answer), nil
	}

	// A model that ignored the schema still usually answered in plain
	// text.
	return strings.TrimSpace(resp.Text), nil
}

// FindRelevantNotes asks the model which of the given notes match the
// query and returns their ids. Empty query or metadata short-circuits
// without a model call.
func (s *Service) FindRelevantNotes(ctx context.Context, query string, notes []models.NoteMeta) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" || len(notes) == 0 {
		return []string{}, nil
	}
	if len(notes) > searchNoteCap {
		notes = notes[:searchNoteCap]
	}

	payload, err := json.Marshal(map[string]any{
		"query": query,
		"notes": notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search payload: %w", err)
	}

	resp, err := s.provider.GenerateContent(ctx, &interfaces.ContentRequest{
		SystemInstruction: searchSystemInstruction,
		UserPayload:       string(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("note search call failed: %w", err)
	}

	known := make(map[string]bool, len(notes))
	for _, note := range notes {
		known[note.ID] = true
	}

	var ids []string
	decoded := Decode(resp.Text)
	if rawIDs, ok := decoded["ids"].([]any); ok {
		for _, rawID := range rawIDs {
			if id, ok := rawID.(string); ok && known[id] {
				ids = append(ids, id)
			}
		}
	}

	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// decodeFields parses note fields out of a model response, falling back
// to empty fields when the payload cannot be recovered.
func (s *Service) decodeFields(raw string) *interfaces.NoteFields {
	var fields interfaces.NoteFields
	if !DecodeInto(raw, &fields) {
		s.logger.Warn().Msg("Could not decode note fields from model response, using empty fields")
		return &interfaces.NoteFields{}
	}

	normalizeFields(&fields)
	return &fields
}

// normalizeFields trims field whitespace and coerces unknown section
// types so downstream validation does not reject a whole note over one
// mislabeled section.
func normalizeFields(fields *interfaces.NoteFields) {
	fields.Subject = strings.TrimSpace(fields.Subject)
	fields.Title = strings.TrimSpace(fields.Title)
	fields.Summary = strings.TrimSpace(fields.Summary)

	sections := fields.Sections[:0]
	for _, section := range fields.Sections {
		section.Heading = strings.TrimSpace(section.Heading)
		section.Content = strings.TrimSpace(section.Content)
		if section.Heading == "" && section.Content == "" {
			continue
		}
		switch section.Type {
		case models.SectionDefinition, models.SectionExample, models.SectionTheory, models.SectionFormula:
		default:
			section.Type = models.SectionTheory
		}
		sections = append(sections, section)
	}
	fields.Sections = sections

	tags := fields.Tags[:0]
	for _, tag := range fields.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	fields.Tags = tags
}

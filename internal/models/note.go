// -----------------------------------------------------------------------
// Note - Structured study note produced by the ingestion pipeline
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// NoteType identifies the capture modality a note was created from.
type NoteType string

const (
	NoteTypeAudio NoteType = "audio"
	NoteTypePDF   NoteType = "pdf"
	NoteTypeText  NoteType = "text"
)

// SectionType classifies a note section for rendering and review.
type SectionType string

const (
	SectionDefinition SectionType = "definition"
	SectionExample    SectionType = "example"
	SectionTheory     SectionType = "theory"
	SectionFormula    SectionType = "formula"
)

// NoteSection is one typed block of note content. Insertion order is
// reading order; headings are not unique.
type NoteSection struct {
	Heading string      `json:"heading"`
	Content string      `json:"content"`
	Type    SectionType `json:"type"`
}

// Note is the structured record materialized at the end of a successful
// ingestion run. Notes are insert-only: once saved they are owned by the
// note store and never mutated by the pipeline.
type Note struct {
	ID      string    `json:"id" badgerhold:"key"`
	Title   string    `json:"title" validate:"required"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Type    NoteType  `json:"type" validate:"required,oneof=audio pdf text"`

	Summary  string        `json:"summary"`
	Sections []NoteSection `json:"sections"`
	Tags     []string      `json:"tags"`

	// RawContent carries the extracted source text verbatim for pdf/text
	// notes; OriginalTranscript does the same for audio notes.
	RawContent         string `json:"raw_content,omitempty"`
	OriginalTranscript string `json:"original_transcript,omitempty"`

	// Binary references point at the stored source artifact, when retained.
	PDFRef   string `json:"pdf_ref,omitempty"`
	AudioRef string `json:"audio_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NoteMeta is the compact projection sent to the model for semantic search.
type NoteMeta struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Meta returns the search projection of a note.
func (n *Note) Meta() NoteMeta {
	return NoteMeta{
		ID:      n.ID,
		Title:   n.Title,
		Summary: n.Summary,
		Tags:    n.Tags,
	}
}

// Validate checks the fields the pipeline is required to populate.
func (n *Note) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("note ID is required")
	}
	if n.Title == "" {
		return fmt.Errorf("note title is required")
	}
	switch n.Type {
	case NoteTypeAudio, NoteTypePDF, NoteTypeText:
	default:
		return fmt.Errorf("invalid note type: %q", n.Type)
	}
	return nil
}

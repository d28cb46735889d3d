package interfaces

import (
	"context"

	"github.com/ternarybob/memoro/internal/models"
)

// NoteStorage persists materialized notes. The pipeline only ever
// inserts; editing notes belongs to an external collaborator.
type NoteStorage interface {
	SaveNotes(ctx context.Context, notes []*models.Note) error
	GetNote(ctx context.Context, id string) (*models.Note, error)
	ListNotes(ctx context.Context, limit int) ([]*models.Note, error)
	CountNotes(ctx context.Context) (int, error)
}

// StructurerService turns unstructured capture text into typed note
// fields and answers study questions over note context.
type StructurerService interface {
	StructureTranscript(ctx context.Context, transcript string) (*NoteFields, error)
	StructureDocument(ctx context.Context, text string) (*NoteFields, error)
	QuickAnswer(ctx context.Context, question, noteContext string) (string, error)
	DeepAnswer(ctx context.Context, question, noteContext string) (string, error)
	FindRelevantNotes(ctx context.Context, query string, notes []models.NoteMeta) ([]string, error)
}

// NoteFields is the structured payload a model call produces for a note.
type NoteFields struct {
	Subject  string               `json:"subject"`
	Title    string               `json:"title"`
	Summary  string               `json:"summary"`
	Sections []models.NoteSection `json:"sections"`
	Tags     []string             `json:"tags"`
}

package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// NoteStorage persists notes in BadgerDB. Notes are insert-only records:
// the ingestion pipeline creates them and never modifies them afterwards.
type NoteStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.NoteStorage = (*NoteStorage)(nil)

// NewNoteStorage creates a new NoteStorage instance
func NewNoteStorage(db *BadgerDB, logger arbor.ILogger) *NoteStorage {
	return &NoteStorage{
		db:     db,
		logger: logger,
	}
}

// SaveNotes inserts a batch of materialized notes. The batch is what one
// ingestion job produced; a validation failure on any note rejects the
// whole batch before anything is written.
func (s *NoteStorage) SaveNotes(ctx context.Context, notes []*models.Note) error {
	for _, note := range notes {
		if err := note.Validate(); err != nil {
			return fmt.Errorf("invalid note: %w", err)
		}
	}

	for _, note := range notes {
		if note.CreatedAt.IsZero() {
			note.CreatedAt = time.Now()
		}
		if err := s.db.Store().Insert(note.ID, note); err != nil {
			return fmt.Errorf("failed to save note %s: %w", note.ID, err)
		}
	}

	s.logger.Info().Int("count", len(notes)).Msg("Notes saved")
	return nil
}

// GetNote retrieves a note by ID
func (s *NoteStorage) GetNote(ctx context.Context, id string) (*models.Note, error) {
	var note models.Note
	if err := s.db.Store().Get(id, &note); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("note not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &note, nil
}

// ListNotes returns notes ordered newest first, up to limit (0 = all).
func (s *NoteStorage) ListNotes(ctx context.Context, limit int) ([]*models.Note, error) {
	var notes []*models.Note
	if err := s.db.Store().Find(&notes, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})

	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

// CountNotes returns the total number of stored notes
func (s *NoteStorage) CountNotes(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Note{}, badgerhold.Where("ID").Ne(""))
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return int(count), nil
}

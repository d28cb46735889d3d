package common

import (
	"github.com/google/uuid"
)

// NewNoteID generates a unique note ID with the "note_" prefix
func NewNoteID() string {
	return "note_" + uuid.New().String()
}

// NewJobID generates a unique ingestion job ID with the "job_" prefix
func NewJobID() string {
	return "job_" + uuid.New().String()
}

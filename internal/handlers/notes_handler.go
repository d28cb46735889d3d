package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
)

// defaultNoteListLimit caps GET /api/notes when no limit is given.
const defaultNoteListLimit = 100

// NotesHandler serves stored notes.
type NotesHandler struct {
	store  interfaces.NoteStorage
	logger arbor.ILogger
}

// NewNotesHandler creates a new notes handler
func NewNotesHandler(store interfaces.NoteStorage, logger arbor.ILogger) *NotesHandler {
	return &NotesHandler{
		store:  store,
		logger: logger,
	}
}

// ListHandler handles GET /api/notes?limit=N.
func (h *NotesHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := defaultNoteListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notes, err := h.store.ListNotes(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list notes")
		WriteError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}

	count, err := h.store.CountNotes(r.Context())
	if err != nil {
		count = len(notes)
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"notes": notes,
		"count": count,
	})
}

// GetHandler handles GET /api/notes/{id}.
func (h *NotesHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "note id is required")
		return
	}

	note, err := h.store.GetNote(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "note not found")
		return
	}
	WriteJSON(w, http.StatusOK, note)
}

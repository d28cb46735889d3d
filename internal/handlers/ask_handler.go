// -----------------------------------------------------------------------
// Ask Handler - Q&A and semantic search over stored notes
// -----------------------------------------------------------------------

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// askContextNotes bounds how many recent notes feed a Q&A context.
const askContextNotes = 20

// AskHandler answers study questions and runs semantic note search.
type AskHandler struct {
	structurer interfaces.StructurerService
	store      interfaces.NoteStorage
	logger     arbor.ILogger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(structurer interfaces.StructurerService, store interfaces.NoteStorage, logger arbor.ILogger) *AskHandler {
	return &AskHandler{
		structurer: structurer,
		store:      store,
		logger:     logger,
	}
}

// AskRequest is the POST /api/ask body.
type AskRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode"` // "quick" (default) or "deep"
}

// AskHandler handles POST /api/ask.
func (h *AskHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req AskRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	noteContext, err := h.buildContext(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build note context")
		WriteError(w, http.StatusInternalServerError, "failed to load notes")
		return
	}

	var answer string
	switch req.Mode {
	case "deep":
		answer, err = h.structurer.DeepAnswer(r.Context(), req.Question, noteContext)
	default:
		answer, err = h.structurer.QuickAnswer(r.Context(), req.Question, noteContext)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Answer call failed")
		WriteError(w, http.StatusBadGateway, "could not answer the question")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"answer": answer,
		"mode":   req.Mode,
	})
}

// buildContext concatenates recent notes into the Q&A context block.
func (h *AskHandler) buildContext(ctx context.Context) (string, error) {
	notes, err := h.store.ListNotes(ctx, askContextNotes)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, note := range notes {
		fmt.Fprintf(&b, "## %s\n%s\n", note.Title, note.Summary)
		for _, section := range note.Sections {
			fmt.Fprintf(&b, "### %s\n%s\n", section.Heading, section.Content)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// SearchHandler handles POST /api/search: semantic note search over
// compact note metadata.
func (h *AskHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := h.store.ListNotes(r.Context(), 0)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list notes for search")
		WriteError(w, http.StatusInternalServerError, "failed to load notes")
		return
	}

	metas := make([]models.NoteMeta, len(notes))
	byID := make(map[string]*models.Note, len(notes))
	for i, note := range notes {
		metas[i] = note.Meta()
		byID[note.ID] = note
	}

	ids, err := h.structurer.FindRelevantNotes(r.Context(), req.Query, metas)
	if err != nil {
		h.logger.Error().Err(err).Msg("Note search call failed")
		WriteError(w, http.StatusBadGateway, "search failed")
		return
	}

	results := make([]*models.Note, 0, len(ids))
	for _, id := range ids {
		if note, ok := byID[id]; ok {
			results = append(results, note)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"notes": results,
		"count": len(results),
	})
}

// -----------------------------------------------------------------------
// Ingest Handler - Upload endpoints feeding the ingestion orchestrator
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/services/ingest"
)

// IngestHandler accepts PDF, image, audio, and transcript submissions.
type IngestHandler struct {
	orchestrator *ingest.Orchestrator
	logger       arbor.ILogger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(orchestrator *ingest.Orchestrator, logger arbor.ILogger) *IngestHandler {
	return &IngestHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// PDFHandler handles POST /api/ingest/pdf with a multipart "file" field.
func (h *IngestHandler) PDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	data, fileName, err := ReadUploadedFile(r, "file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := h.orchestrator.SubmitPDF(data, fileName)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.logger.Info().Str("job_id", jobID).Str("file", fileName).Msg("PDF upload accepted")
	WriteStarted(w, jobID)
}

// ImageHandler handles POST /api/ingest/image with a multipart "file" field.
func (h *IngestHandler) ImageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	data, fileName, err := ReadUploadedFile(r, "file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := h.orchestrator.SubmitImage(data, fileName)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.logger.Info().Str("job_id", jobID).Str("file", fileName).Msg("Image upload accepted")
	WriteStarted(w, jobID)
}

// AudioHandler handles POST /api/ingest/audio with a multipart "file"
// field. The recording's MIME type comes from the part header.
func (h *IngestHandler) AudioHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing \"file\" file field")
		return
	}
	defer file.Close()

	data, err := readAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	jobID, err := h.orchestrator.SubmitAudio(data, mimeType, header.Filename)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.logger.Info().Str("job_id", jobID).Str("file", header.Filename).Msg("Audio upload accepted")
	WriteStarted(w, jobID)
}

// TranscriptHandler handles POST /api/ingest/transcript for transcripts
// captured over the live websocket.
func (h *IngestHandler) TranscriptHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var body struct {
		Transcript string `json:"transcript"`
	}
	if err := DecodeBody(r, &body); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Transcript) == "" {
		WriteError(w, http.StatusBadRequest, "transcript is empty")
		return
	}

	jobID, err := h.orchestrator.SubmitTranscript(body.Transcript)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.logger.Info().Str("job_id", jobID).Msg("Transcript submission accepted")
	WriteStarted(w, jobID)
}

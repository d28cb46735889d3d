package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

type fakeChunker struct {
	chunks int
}

func (f *fakeChunker) Split(data []byte, pagesPerChunk int) []models.PDFChunk {
	count := f.chunks
	if count < 1 {
		count = 1
	}
	chunks := make([]models.PDFChunk, count)
	for i := range chunks {
		chunks[i] = models.PDFChunk{Data: []byte(fmt.Sprintf("chunk-%d", i)), Index: i, Total: count}
	}
	return chunks
}

type fakeExtractor struct {
	text     string
	imageErr error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte) interfaces.ExtractResult {
	return interfaces.ExtractResult{Text: f.text + " " + string(data), PageCount: 1}
}

func (f *fakeExtractor) ExtractImage(ctx context.Context, data []byte) (string, error) {
	if f.imageErr != nil {
		return "", f.imageErr
	}
	return f.text, nil
}

type fakeStructurer struct {
	mu            sync.Mutex
	fields        interfaces.NoteFields
	documentCalls int
	errOnCall     int // 1-based call index that fails; 0 disables
	err           error
	transcriptErr error
}

func (f *fakeStructurer) StructureTranscript(ctx context.Context, transcript string) (*interfaces.NoteFields, error) {
	if f.transcriptErr != nil {
		return nil, f.transcriptErr
	}
	fields := f.fields
	return &fields, nil
}

func (f *fakeStructurer) StructureDocument(ctx context.Context, text string) (*interfaces.NoteFields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documentCalls++
	if f.errOnCall != 0 && f.documentCalls == f.errOnCall {
		return nil, f.err
	}
	fields := f.fields
	return &fields, nil
}

func (f *fakeStructurer) QuickAnswer(ctx context.Context, question, noteContext string) (string, error) {
	return "", nil
}

func (f *fakeStructurer) DeepAnswer(ctx context.Context, question, noteContext string) (string, error) {
	return "", nil
}

func (f *fakeStructurer) FindRelevantNotes(ctx context.Context, query string, notes []models.NoteMeta) ([]string, error) {
	return []string{}, nil
}

func (f *fakeStructurer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.documentCalls
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return f.transcript, f.err
}

type memStore struct {
	mu       sync.Mutex
	saves    [][]*models.Note
	saveErr  error
	allNotes []*models.Note
}

func (m *memStore) SaveNotes(ctx context.Context, notes []*models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, notes)
	m.allNotes = append(m.allNotes, notes...)
	return nil
}

func (m *memStore) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return nil, fmt.Errorf("not found")
}

func (m *memStore) ListNotes(ctx context.Context, limit int) ([]*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allNotes, nil
}

func (m *memStore) CountNotes(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.allNotes), nil
}

func (m *memStore) savedBatches() [][]*models.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// harness bundles the orchestrator with its fakes and a transition log.
type harness struct {
	orchestrator *Orchestrator
	chunker      *fakeChunker
	extractor    *fakeExtractor
	structurer   *fakeStructurer
	transcriber  *fakeTranscriber
	store        *memStore

	mu          sync.Mutex
	transitions []models.IngestionJob
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		chunker:     &fakeChunker{chunks: 1},
		extractor:   &fakeExtractor{text: "extracted text"},
		structurer:  &fakeStructurer{fields: interfaces.NoteFields{Title: "Structured Title", Summary: "A summary."}},
		transcriber: &fakeTranscriber{transcript: "lecture transcript"},
		store:       &memStore{},
	}

	cfg := common.DefaultConfig().Ingest
	h.orchestrator = NewOrchestrator(
		h.chunker, h.extractor, h.structurer, h.transcriber, h.store,
		&cfg, 10*time.Second, common.GetLogger(),
	)
	h.orchestrator.transitionHook = func(job models.IngestionJob) {
		h.mu.Lock()
		h.transitions = append(h.transitions, job)
		h.mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.orchestrator.Start(ctx)
	t.Cleanup(func() {
		h.orchestrator.Stop()
		cancel()
	})
	return h
}

func (h *harness) waitTerminal(t *testing.T, jobID string) models.IngestionJob {
	t.Helper()
	var terminal models.IngestionJob
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		for _, job := range h.transitions {
			if job.ID == jobID && job.IsTerminal() {
				terminal = job
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "job should reach a terminal status")
	return terminal
}

func (h *harness) statuses(jobID string) []models.JobStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	var statuses []models.JobStatus
	for _, job := range h.transitions {
		if job.ID == jobID {
			statuses = append(statuses, job.Status)
		}
	}
	return statuses
}

func (h *harness) messages(jobID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var messages []string
	for _, job := range h.transitions {
		if job.ID == jobID {
			messages = append(messages, job.Message)
		}
	}
	return messages
}

func TestOrchestrator_AudioSuccessSequence(t *testing.T) {
	h := newHarness(t)

	jobID, err := h.orchestrator.SubmitAudio([]byte("audio-bytes"), "audio/webm", "lecture.webm")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusSuccess, terminal.Status)
	assert.Equal(t, []models.JobStatus{
		models.JobStatusProcessing,
		models.JobStatusOrganizing,
		models.JobStatusSuccess,
	}, h.statuses(jobID))

	batches := h.store.savedBatches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	note := batches[0][0]
	assert.Equal(t, models.NoteTypeAudio, note.Type)
	assert.Equal(t, "Structured Title", note.Title)
	assert.Equal(t, "lecture transcript", note.OriginalTranscript, "transcript must be retained verbatim")
}

func TestOrchestrator_AudioTranscriptionFailure(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = fmt.Errorf("speech service unavailable")

	jobID, err := h.orchestrator.SubmitAudio([]byte("audio"), "audio/webm", "x.webm")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusError, terminal.Status)
	assert.Equal(t, "Could not transcribe audio", terminal.Message)
	assert.Equal(t, []models.JobStatus{models.JobStatusProcessing, models.JobStatusError}, h.statuses(jobID))
	assert.Empty(t, h.store.savedBatches())
}

func TestOrchestrator_AudioStructuringFailure(t *testing.T) {
	h := newHarness(t)
	h.structurer.transcriptErr = fmt.Errorf("model timeout")

	jobID, err := h.orchestrator.SubmitAudio([]byte("audio"), "audio/webm", "x.webm")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusError, terminal.Status)
	assert.Equal(t, "Could not process audio", terminal.Message)
}

func TestOrchestrator_EmptyTranscriptRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator.SubmitTranscript("   ")
	assert.Error(t, err)
}

func TestOrchestrator_PDFMultiChunkEmitsAllNotesTogether(t *testing.T) {
	h := newHarness(t)
	h.chunker.chunks = 3 // 12 pages at 5 per chunk

	jobID, err := h.orchestrator.SubmitPDF([]byte("pdf-bytes"), "quantum_mechanics.pdf")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusSuccess, terminal.Status)
	assert.Equal(t, "Created 3 notes", terminal.Message)

	messages := h.messages(jobID)
	assert.Contains(t, messages, "Organizing section 1/3")
	assert.Contains(t, messages, "Organizing section 2/3")
	assert.Contains(t, messages, "Organizing section 3/3")

	batches := h.store.savedBatches()
	require.Len(t, batches, 1, "all notes must be emitted in a single save")
	require.Len(t, batches[0], 3)
	for i, note := range batches[0] {
		assert.Equal(t, models.NoteTypePDF, note.Type)
		assert.Equal(t, fmt.Sprintf("Structured Title (Part %d)", i+1), note.Title)
		assert.Contains(t, note.RawContent, fmt.Sprintf("chunk-%d", i))
	}
}

func TestOrchestrator_PDFSingleChunkHasNoPartSuffix(t *testing.T) {
	h := newHarness(t)
	h.chunker.chunks = 1

	jobID, err := h.orchestrator.SubmitPDF([]byte("pdf"), "notes.pdf")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusSuccess, terminal.Status)

	batches := h.store.savedBatches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "Structured Title", batches[0][0].Title)
}

func TestOrchestrator_PDFChunkFailureEmitsNothing(t *testing.T) {
	h := newHarness(t)
	h.chunker.chunks = 3
	h.structurer.errOnCall = 2
	h.structurer.err = fmt.Errorf("model rejected request")

	jobID, err := h.orchestrator.SubmitPDF([]byte("pdf"), "big.pdf")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusError, terminal.Status)
	assert.Equal(t, "Could not process PDF", terminal.Message)

	assert.Empty(t, h.store.savedBatches(), "a chunk failure must emit zero notes")
	assert.Equal(t, 2, h.structurer.calls(), "chunks after the failing one must not be processed")
}

func TestOrchestrator_PDFTitleFallsBackToFileName(t *testing.T) {
	h := newHarness(t)
	h.structurer.fields = interfaces.NoteFields{}

	jobID, err := h.orchestrator.SubmitPDF([]byte("pdf"), "organic_chemistry.pdf")
	require.NoError(t, err)

	h.waitTerminal(t, jobID)
	batches := h.store.savedBatches()
	require.Len(t, batches, 1)
	assert.Equal(t, "organic chemistry", batches[0][0].Title)
}

func TestOrchestrator_ImagePathSkipsOrganizing(t *testing.T) {
	h := newHarness(t)

	jobID, err := h.orchestrator.SubmitImage([]byte("png-bytes"), "whiteboard.png")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusSuccess, terminal.Status)
	assert.NotContains(t, h.statuses(jobID), models.JobStatusOrganizing,
		"the image path is single-stage and must not show organizing")

	batches := h.store.savedBatches()
	require.Len(t, batches, 1)
	assert.Equal(t, models.NoteTypeText, batches[0][0].Type)
	assert.Equal(t, "extracted text", batches[0][0].RawContent)
}

func TestOrchestrator_ImageOCRFailure(t *testing.T) {
	h := newHarness(t)
	h.extractor.imageErr = fmt.Errorf("unsupported image format")

	jobID, err := h.orchestrator.SubmitImage([]byte("bad"), "scan.bmp")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusError, terminal.Status)
	assert.Equal(t, "Could not read image", terminal.Message)
}

func TestOrchestrator_SaveFailureFailsJob(t *testing.T) {
	h := newHarness(t)
	h.store.saveErr = fmt.Errorf("disk full")

	jobID, err := h.orchestrator.SubmitImage([]byte("png"), "page.png")
	require.NoError(t, err)

	terminal := h.waitTerminal(t, jobID)
	assert.Equal(t, models.JobStatusError, terminal.Status)
	assert.True(t, strings.HasPrefix(terminal.Message, "Could not save"))
}

func TestOrchestrator_NewSubmissionSupersedesDisplay(t *testing.T) {
	h := newHarness(t)

	firstID, err := h.orchestrator.SubmitImage([]byte("one"), "one.png")
	require.NoError(t, err)
	h.waitTerminal(t, firstID)

	secondID, err := h.orchestrator.SubmitImage([]byte("two"), "two.png")
	require.NoError(t, err)
	h.waitTerminal(t, secondID)

	current, ok := h.orchestrator.Status()
	require.True(t, ok)
	assert.Equal(t, secondID, current.ID)
}

func TestOrchestrator_SweepExpiredDismissesTerminalStatus(t *testing.T) {
	h := newHarness(t)

	jobID, err := h.orchestrator.SubmitImage([]byte("png"), "page.png")
	require.NoError(t, err)
	h.waitTerminal(t, jobID)

	_, ok := h.orchestrator.Status()
	require.True(t, ok, "terminal status stays visible inside the display window")

	assert.False(t, h.orchestrator.SweepExpired(time.Now()), "not expired yet")
	assert.True(t, h.orchestrator.SweepExpired(time.Now().Add(time.Minute)))

	_, ok = h.orchestrator.Status()
	assert.False(t, ok, "dismissed status must no longer be visible")
}

func TestOrchestrator_SubmitAfterStopFails(t *testing.T) {
	h := newHarness(t)
	h.orchestrator.Stop()

	_, err := h.orchestrator.SubmitImage([]byte("png"), "late.png")
	assert.Error(t, err)
}

// -----------------------------------------------------------------------
// Ingestion Orchestrator - Background state machine for capture jobs
// One worker, one visible job, all-or-nothing PDF emission
// -----------------------------------------------------------------------

package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/models"
)

// taskQueueSize bounds how many submitted jobs may wait for the worker.
const taskQueueSize = 32

// Orchestrator sequences ingestion jobs: chunk/extract/transcribe,
// structure, then materialize notes. Jobs run one at a time on a single
// worker goroutine; at most one job's progress is visible at a time.
type Orchestrator struct {
	chunker     interfaces.PDFChunker
	extractor   interfaces.TextExtractor
	structurer  interfaces.StructurerService
	transcriber interfaces.Transcriber
	store       interfaces.NoteStorage
	logger      arbor.ILogger

	pagesPerChunk int
	displayWindow time.Duration

	mu      sync.Mutex
	current *models.IngestionJob
	stopped bool

	tasks chan func(context.Context)
	wg    sync.WaitGroup

	// transitionHook observes every status transition; used by tests.
	transitionHook func(models.IngestionJob)
}

// NewOrchestrator wires the pipeline services into an orchestrator.
// Call Start before submitting jobs.
func NewOrchestrator(
	chunker interfaces.PDFChunker,
	extractor interfaces.TextExtractor,
	structurerService interfaces.StructurerService,
	transcriber interfaces.Transcriber,
	store interfaces.NoteStorage,
	cfg *common.IngestConfig,
	displayWindow time.Duration,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		chunker:       chunker,
		extractor:     extractor,
		structurer:    structurerService,
		transcriber:   transcriber,
		store:         store,
		logger:        logger,
		pagesPerChunk: cfg.PagesPerChunk,
		displayWindow: displayWindow,
		tasks:         make(chan func(context.Context), taskQueueSize),
	}
}

// Start launches the worker goroutine. Submitted jobs run until the
// context is canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case task, ok := <-o.tasks:
				if !ok {
					return
				}
				task(ctx)
			}
		}
	}()
}

// Stop drains no further work and waits for the in-flight job.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.mu.Unlock()

	close(o.tasks)
	o.wg.Wait()
}

// SubmitAudio starts an ingestion job for an uploaded audio recording.
func (o *Orchestrator) SubmitAudio(audio []byte, mimeType, fileName string) (string, error) {
	job := o.newJob(models.SourceAudio, "Transcribing audio...")
	return o.submit(job, func(ctx context.Context) {
		transcript, err := o.transcriber.Transcribe(ctx, audio, mimeType)
		if err != nil {
			o.fail(job, "Could not transcribe audio", err)
			return
		}
		if strings.TrimSpace(transcript) == "" {
			o.fail(job, "Could not transcribe audio", fmt.Errorf("no speech detected in the recording"))
			return
		}
		o.structureAudio(ctx, job, transcript, fileName)
	})
}

// SubmitTranscript starts a structuring job for a captured transcript.
func (o *Orchestrator) SubmitTranscript(transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("transcript is empty")
	}
	job := o.newJob(models.SourceTranscript, "Processing transcript...")
	return o.submit(job, func(ctx context.Context) {
		o.structureAudio(ctx, job, transcript, "")
	})
}

// structureAudio is the shared organizing stage for live-captured and
// uploaded audio. The transcript is retained verbatim on the note.
func (o *Orchestrator) structureAudio(ctx context.Context, job *models.IngestionJob, transcript, fileName string) {
	o.setStatus(job, models.JobStatusOrganizing, "Organizing your note...", "")

	fields, err := o.structurer.StructureTranscript(ctx, transcript)
	if err != nil {
		o.fail(job, "Could not process audio", err)
		return
	}

	note := o.materialize(fields, models.NoteTypeAudio, defaultTitle(fileName, "Audio note"))
	note.OriginalTranscript = transcript

	if err := o.store.SaveNotes(ctx, []*models.Note{note}); err != nil {
		o.fail(job, "Could not save note", err)
		return
	}
	o.succeed(job, "Note created")
}

// SubmitPDF starts an ingestion job for an uploaded PDF. Chunks are
// processed strictly in order and their notes are emitted together; a
// failure on any chunk emits nothing.
func (o *Orchestrator) SubmitPDF(data []byte, fileName string) (string, error) {
	job := o.newJob(models.SourcePDF, "Reading PDF...")
	return o.submit(job, func(ctx context.Context) {
		chunks := o.chunker.Split(data, o.pagesPerChunk)

		notes := make([]*models.Note, 0, len(chunks))
		for i, chunk := range chunks {
			o.setStatus(job, models.JobStatusOrganizing,
				fmt.Sprintf("Organizing section %d/%d", i+1, len(chunks)), "")

			result := o.extractor.Extract(ctx, chunk.Data)
			fields, err := o.structurer.StructureDocument(ctx, result.Text)
			if err != nil {
				o.fail(job, "Could not process PDF", err)
				return
			}

			note := o.materialize(fields, models.NoteTypePDF, defaultTitle(fileName, "Imported document"))
			if len(chunks) > 1 {
				note.Title = fmt.Sprintf("%s (Part %d)", note.Title, i+1)
			}
			note.RawContent = result.Text
			notes = append(notes, note)
		}

		if err := o.store.SaveNotes(ctx, notes); err != nil {
			o.fail(job, "Could not save notes", err)
			return
		}
		if len(notes) == 1 {
			o.succeed(job, "Note created")
		} else {
			o.succeed(job, fmt.Sprintf("Created %d notes", len(notes)))
		}
	})
}

// SubmitImage starts an ingestion job for an uploaded image. The image
// path is single-stage: it never shows an organizing status.
func (o *Orchestrator) SubmitImage(data []byte, fileName string) (string, error) {
	job := o.newJob(models.SourceImage, "Reading image...")
	return o.submit(job, func(ctx context.Context) {
		text, err := o.extractor.ExtractImage(ctx, data)
		if err != nil {
			o.fail(job, "Could not read image", err)
			return
		}

		fields, err := o.structurer.StructureDocument(ctx, text)
		if err != nil {
			o.fail(job, "Could not process image", err)
			return
		}

		note := o.materialize(fields, models.NoteTypeText, defaultTitle(fileName, "Imported image"))
		note.RawContent = text

		if err := o.store.SaveNotes(ctx, []*models.Note{note}); err != nil {
			o.fail(job, "Could not save note", err)
			return
		}
		o.succeed(job, "Note created")
	})
}

// Status returns the currently visible job, if any.
func (o *Orchestrator) Status() (models.IngestionJob, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return models.IngestionJob{}, false
	}
	if o.current.ExpiredAt(time.Now(), o.displayWindow) {
		return models.IngestionJob{}, false
	}
	return *o.current, true
}

// SweepExpired drops a terminal job that has outlived the display
// window. Returns true when a job was dismissed.
func (o *Orchestrator) SweepExpired(now time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current != nil && o.current.ExpiredAt(now, o.displayWindow) {
		o.logger.Debug().Str("job_id", o.current.ID).Msg("Dismissing expired job status")
		o.current = nil
		return true
	}
	return false
}

// newJob creates a processing job and makes it the visible one,
// superseding whatever was displayed before.
func (o *Orchestrator) newJob(source models.SourceType, message string) *models.IngestionJob {
	return &models.IngestionJob{
		ID:         common.NewJobID(),
		SourceType: source,
		Status:     models.JobStatusProcessing,
		Message:    message,
		StartedAt:  time.Now(),
	}
}

// submit registers the job for display and queues its work.
func (o *Orchestrator) submit(job *models.IngestionJob, run func(context.Context)) (string, error) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return "", fmt.Errorf("orchestrator is stopped")
	}
	o.current = job
	o.mu.Unlock()
	o.notify(*job)

	select {
	case o.tasks <- run:
		o.logger.Info().
			Str("job_id", job.ID).
			Str("source", string(job.SourceType)).
			Msg("Ingestion job submitted")
		return job.ID, nil
	default:
		o.fail(job, "Too many jobs queued", fmt.Errorf("ingestion queue is full"))
		return "", fmt.Errorf("ingestion queue is full")
	}
}

// setStatus transitions a job. The job struct itself is always updated;
// whether that is visible depends on it still being the current job.
func (o *Orchestrator) setStatus(job *models.IngestionJob, status models.JobStatus, message, detail string) {
	o.mu.Lock()
	job.Status = status
	job.Message = message
	job.Detail = detail
	if job.IsTerminal() {
		now := time.Now()
		job.CompletedAt = &now
	}
	snapshot := *job
	o.mu.Unlock()

	o.notify(snapshot)
}

func (o *Orchestrator) succeed(job *models.IngestionJob, message string) {
	o.logger.Info().Str("job_id", job.ID).Str("message", message).Msg("Ingestion job succeeded")
	o.setStatus(job, models.JobStatusSuccess, message, "")
}

// fail marks the job terminal with a user-facing message; the raw error
// goes to the detail string and the log, never to the user verbatim
// alone.
func (o *Orchestrator) fail(job *models.IngestionJob, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	o.logger.Warn().Err(err).Str("job_id", job.ID).Str("message", message).Msg("Ingestion job failed")
	o.setStatus(job, models.JobStatusError, message, detail)
}

func (o *Orchestrator) notify(job models.IngestionJob) {
	if o.transitionHook != nil {
		o.transitionHook(job)
	}
}

// materialize builds a note from structured fields, falling back to the
// given title when the model produced none.
func (o *Orchestrator) materialize(fields *interfaces.NoteFields, noteType models.NoteType, fallbackTitle string) *models.Note {
	title := fields.Title
	if title == "" {
		title = fallbackTitle
	}
	return &models.Note{
		ID:       common.NewNoteID(),
		Title:    title,
		Subject:  fields.Subject,
		Date:     time.Now(),
		Type:     noteType,
		Summary:  fields.Summary,
		Sections: fields.Sections,
		Tags:     fields.Tags,
	}
}

// defaultTitle derives a human title from an uploaded file name.
func defaultTitle(fileName, fallback string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	base = strings.TrimSpace(strings.ReplaceAll(base, "_", " "))
	if base == "" || base == "." {
		return fallback
	}
	return base
}

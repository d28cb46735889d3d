// -----------------------------------------------------------------------
// App - Dependency wiring for the memoro service
// config -> logger -> storage -> services -> handlers
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/handlers"
	"github.com/ternarybob/memoro/internal/interfaces"
	"github.com/ternarybob/memoro/internal/services/ingest"
	"github.com/ternarybob/memoro/internal/services/llm"
	"github.com/ternarybob/memoro/internal/services/pdf"
	"github.com/ternarybob/memoro/internal/services/scheduler"
	"github.com/ternarybob/memoro/internal/services/structurer"
	"github.com/ternarybob/memoro/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB          *badger.BadgerDB
	NoteStorage interfaces.NoteStorage

	Provider     *llm.ProviderFactory
	Transcriber  interfaces.Transcriber
	Structurer   interfaces.StructurerService
	Orchestrator *ingest.Orchestrator
	Scheduler    *scheduler.Service

	IngestHandler  *handlers.IngestHandler
	NotesHandler   *handlers.NotesHandler
	AskHandler     *handlers.AskHandler
	StatusHandler  *handlers.StatusHandler
	CaptureHandler *handlers.CaptureHandler

	cancel context.CancelFunc
}

// New builds the full service from configuration and starts the
// background workers.
func New(config *common.Config) (*App, error) {
	logger := common.InitLogger(config)

	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	noteStorage := badger.NewNoteStorage(db, logger)

	displayWindow, err := config.StatusDisplayWindow()
	if err != nil {
		db.Close()
		return nil, err
	}

	provider := llm.NewProviderFactory(&config.LLM, logger)
	transcriber := llm.NewGeminiTranscriber(provider, &config.Speech, logger)
	structurerService := structurer.NewService(provider, &config.Ingest, logger)

	chunker := pdf.NewChunker(logger)
	extractor := pdf.NewExtractor(pdf.TesseractEngine{}, config.Ingest.OCRPageCap, logger)

	orchestrator := ingest.NewOrchestrator(
		chunker, extractor, structurerService, transcriber, noteStorage,
		&config.Ingest, displayWindow, logger,
	)
	schedulerService := scheduler.NewService(orchestrator, &config.Scheduler, logger)

	a := &App{
		Config:       config,
		Logger:       logger,
		DB:           db,
		NoteStorage:  noteStorage,
		Provider:     provider,
		Transcriber:  transcriber,
		Structurer:   structurerService,
		Orchestrator: orchestrator,
		Scheduler:    schedulerService,

		IngestHandler:  handlers.NewIngestHandler(orchestrator, logger),
		NotesHandler:   handlers.NewNotesHandler(noteStorage, logger),
		AskHandler:     handlers.NewAskHandler(structurerService, noteStorage, logger),
		StatusHandler:  handlers.NewStatusHandler(orchestrator, logger),
		CaptureHandler: handlers.NewCaptureHandler(orchestrator, logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	orchestrator.Start(ctx)
	if err := schedulerService.Start(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Str("provider", config.LLM.DefaultProvider).
		Str("storage", config.Storage.Badger.Path).
		Msg("Application initialized")
	return a, nil
}

// Close stops background work and releases resources in reverse order of
// creation.
func (a *App) Close() {
	a.Scheduler.Stop()
	a.Orchestrator.Stop()
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.Provider.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Provider close returned error")
	}
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Database close returned error")
	}
	a.Logger.Info().Msg("Application shut down")
}

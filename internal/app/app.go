package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/corvid-labs/lectern/internal/common"
	"github.com/corvid-labs/lectern/internal/handlers"
	"github.com/corvid-labs/lectern/internal/interfaces"
	"github.com/corvid-labs/lectern/internal/queue"
	"github.com/corvid-labs/lectern/internal/services/assessment"
	"github.com/corvid-labs/lectern/internal/services/chunker"
	"github.com/corvid-labs/lectern/internal/services/embeddings"
	"github.com/corvid-labs/lectern/internal/services/events"
	"github.com/corvid-labs/lectern/internal/services/ingest"
	"github.com/corvid-labs/lectern/internal/services/llm"
	"github.com/corvid-labs/lectern/internal/services/query"
	"github.com/corvid-labs/lectern/internal/services/scheduler"
	"github.com/corvid-labs/lectern/internal/services/synthesis"
	badgerstorage "github.com/corvid-labs/lectern/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService *scheduler.Service

	// Job execution
	QueueManager *queue.Manager
	WorkerPool   *queue.WorkerPool

	// LLM services
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService

	// RAG pipeline services
	Chunker          *chunker.Chunker
	IngestionService interfaces.IngestionService
	QueryService     interfaces.QueryService

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	DocumentHandler *handlers.DocumentHandler
	QueryHandler    *handlers.QueryHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// EventService must exist before the WebSocket handler and the
	// ingestion service, both of which attach to it.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger)

	if err := app.initQueue(); err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	// Start the worker pool only after the ingestion handlers are
	// registered, so a message surviving a restart is never received
	// before anything can process it.
	if err := app.WorkerPool.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}

	if err := app.SchedulerService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Str("llm_provider", cfg.LLM.DefaultProvider).
		Str("embed_model", app.LLMService.EmbedModelName()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badgerstorage.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initQueue initializes the durable ingestion queue and its worker pool
func (a *App) initQueue() error {
	manager, ok := a.StorageManager.(*badgerstorage.Manager)
	if !ok {
		return fmt.Errorf("queue requires badger storage")
	}

	queueMgr, err := queue.NewManager(manager.DB().Store().Badger(), queue.ConfigFromCommon(&a.Config.Queue))
	if err != nil {
		return fmt.Errorf("failed to create queue manager: %w", err)
	}

	a.QueueManager = queueMgr
	a.WorkerPool = queue.NewWorkerPool(queueMgr, a.Logger)

	a.Logger.Debug().
		Str("queue", a.Config.Queue.QueueName).
		Int("concurrency", a.Config.Queue.Concurrency).
		Msg("Queue layer initialized")

	return nil
}

// initServices wires the LLM client and the RAG pipeline services
func (a *App) initServices() error {
	llmService, err := llm.NewService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM service: %w", err)
	}
	a.LLMService = llmService

	a.EmbeddingService = embeddings.NewService(
		llmService,
		a.Config.Gemini.EmbedDimension,
		common.Duration(a.Config.Gemini.RateLimit, 250*time.Millisecond),
		a.Logger,
	)

	a.Chunker = chunker.New(a.Config.RAG.ChunkTargetSize, a.Config.RAG.ChunkOverlap)

	ingestService := ingest.NewService(
		a.StorageManager.DocumentStorage(),
		a.StorageManager.EmbeddingStorage(),
		a.EmbeddingService,
		a.Chunker,
		a.QueueManager,
		a.EventService,
		a.Logger,
	)
	ingestService.RegisterHandlers(a.WorkerPool)
	a.IngestionService = ingestService

	synthesizer := synthesis.NewSynthesizer(llmService, a.Logger)
	assessor := assessment.NewAssessor(llmService, a.Logger)

	a.QueryService = query.NewService(
		a.StorageManager.EmbeddingStorage(),
		a.EmbeddingService,
		synthesizer,
		assessor,
		a.Config.RAG.TopK,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(
		&a.Config.Scheduler,
		a.StorageManager.DocumentStorage(),
		a.IngestionService,
		a.QueueManager,
		a.Logger,
	)

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.StorageManager.DocumentStorage(), a.IngestionService, a.Logger)
	a.QueryHandler = handlers.NewQueryHandler(a.QueryService, a.Logger)
}

// Close shuts down all application components in reverse dependency order
func (a *App) Close() {
	a.Logger.Info().Msg("Shutting down application")

	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}

	if a.WorkerPool != nil {
		if err := a.WorkerPool.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Worker pool shutdown failed")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Event service shutdown failed")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("LLM service shutdown failed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage shutdown failed")
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
}

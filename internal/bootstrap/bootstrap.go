package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/acretu/smart-librarian/internal/config"
	"github.com/acretu/smart-librarian/internal/core/ports"
	"github.com/acretu/smart-librarian/internal/core/usecase"
	"github.com/acretu/smart-librarian/internal/corpus"
	"github.com/acretu/smart-librarian/internal/infrastructure/llm/openai"
	natsqueue "github.com/acretu/smart-librarian/internal/infrastructure/queue/nats"
	"github.com/acretu/smart-librarian/internal/infrastructure/resilience"
	"github.com/acretu/smart-librarian/internal/infrastructure/storage/localfs"
	"github.com/acretu/smart-librarian/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.PipelineMetrics

	Queue       *natsqueue.Queue
	Storage     *localfs.Storage
	Recommender ports.Recommender
	Transcriber ports.Transcriber
	MediaUC     ports.MediaProcessor

	closeFn func()
}

// New wires the full application graph for a service name ("api" or
// "worker"). Both binaries share the wiring; each uses the slice of the
// graph it needs.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	pipelineMetrics := metrics.NewPipelineMetrics(service)
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	client := openai.New(openai.Config{
		BaseURL:         cfg.OpenAIBaseURL,
		APIKey:          cfg.OpenAIAPIKey,
		ChatModel:       cfg.ChatModel,
		EmbedModel:      cfg.EmbedModel,
		ModerationModel: cfg.ModerationModel,
		SpeechModel:     cfg.SpeechModel,
		SpeechVoice:     cfg.SpeechVoice,
		TranscribeModel: cfg.TranscribeModel,
		ImageModel:      cfg.ImageModel,
		ImageSize:       cfg.ImageSize,
		Executor:        executor,
	})
	embedder := openai.NewEmbedder(client)
	moderation := openai.NewModeration(client)
	chatModel := openai.NewChatModel(client)
	transcriber := openai.NewTranscriber(client)
	synthesizer := openai.NewSpeechSynthesizer(client)
	imageGen := openai.NewImageGenerator(client)

	books, err := corpus.LoadBooks(cfg.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	cache, err := corpus.OpenEmbeddingCache(cfg.CacheDBPath)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	if err := cache.EnsureSchema(ctx); err != nil {
		cache.Close()
		return nil, fmt.Errorf("ensure embedding cache schema: %w", err)
	}
	snapshot, err := corpus.BuildSnapshot(ctx, books, embedder, cache, cfg.EmbedModel)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("build corpus snapshot: %w", err)
	}

	storage, err := localfs.New(cfg.MediaDir)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("init media storage: %w", err)
	}

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("init media queue: %w", err)
	}

	retriever := usecase.NewRetriever(embedder, snapshot, cfg.RetrievalTopK)
	selector := usecase.NewSelector(chatModel, snapshot, usecase.SelectorLimits{
		MaxToolRounds: cfg.SelectorMaxToolRounds,
	})
	recommendUC := usecase.NewRecommendUseCase(
		moderation,
		retriever,
		selector,
		snapshot,
		usecase.PipelineLimits{
			ModerationTimeout: time.Duration(cfg.ModerationTimeoutSeconds) * time.Second,
			RetrievalTimeout:  time.Duration(cfg.RetrievalTimeoutSeconds) * time.Second,
			SelectionTimeout:  time.Duration(cfg.SelectionTimeoutSeconds) * time.Second,
		},
		&pipelineObserver{metrics: pipelineMetrics, service: service},
	)
	mediaUC := usecase.NewMediaUseCase(imageGen, synthesizer, storage)

	return &App{
		Config:  cfg,
		Metrics: pipelineMetrics,

		Queue:       queue,
		Storage:     storage,
		Recommender: recommendUC,
		Transcriber: transcriber,
		MediaUC:     mediaUC,

		closeFn: func() {
			queue.Close()
			cache.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type pipelineObserver struct {
	metrics *metrics.PipelineMetrics
	service string
}

func (o *pipelineObserver) ObserveModeration(outcome string) {
	o.metrics.RecordModeration(o.service, outcome)
}

func (o *pipelineObserver) ObservePipeline(selectionOutcome string, candidates int, usedTool bool, duration time.Duration) {
	o.metrics.RecordPipeline(o.service, selectionOutcome, candidates, usedTool, duration)
}

func (o *pipelineObserver) ObserveGroundingViolation() {
	o.metrics.RecordGroundingViolation(o.service)
}

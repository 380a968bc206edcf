package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients/localblob"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients/openai"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients/whisperapi"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients/ytdlp"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/kafka"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/llm"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/outbox"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/service"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/stage"
	pg "github.com/romariotrain/clip-pipeline/internal/storage/postgres"
)

type config struct {
	databaseURL string

	openAIKey     string
	openAIBaseURL string
	openAIModel   string

	whisperBaseURL string
	whisperModel   string

	blobRoot string
	workDir  string

	kafkaBrokers []string
	kafkaTopic   string

	outboxInterval  time.Duration
	outboxBatchSize int

	maxRetries int
	workers    int
	batchLimit int
	interval   time.Duration

	// discoveryTopic включает периодический поиск новых кандидатов
	discoveryTopic    string
	discoveryInterval time.Duration
}

func loadConfig() (config, error) {
	_ = godotenv.Load()

	cfg := config{
		databaseURL:       os.Getenv("DATABASE_URL"),
		openAIKey:         os.Getenv("OPENAI_API_KEY"),
		openAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		openAIModel:       envStr("OPENAI_MODEL", "gpt-4o-mini"),
		whisperBaseURL:    os.Getenv("WHISPER_BASE_URL"),
		whisperModel:      envStr("WHISPER_MODEL", "whisper-1"),
		blobRoot:          envStr("BLOB_ROOT", "data/blobs"),
		workDir:           envStr("WORK_DIR", "data/work"),
		kafkaTopic:        envStr("KAFKA_TOPIC", "pipeline.job-events"),
		outboxInterval:    envDuration("OUTBOX_INTERVAL", time.Second),
		discoveryTopic:    os.Getenv("DISCOVERY_TOPIC"),
		discoveryInterval: envDuration("DISCOVERY_INTERVAL", time.Hour),
		interval:          envDuration("PIPELINE_INTERVAL", 30*time.Second),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.kafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	if cfg.maxRetries, err = envInt("PIPELINE_MAX_RETRIES", 3); err != nil {
		return cfg, err
	}
	if cfg.workers, err = envInt("PIPELINE_WORKERS", 4); err != nil {
		return cfg, err
	}
	if cfg.batchLimit, err = envInt("PIPELINE_BATCH_LIMIT", 50); err != nil {
		return cfg, err
	}
	if cfg.outboxBatchSize, err = envInt("OUTBOX_BATCH_SIZE", 100); err != nil {
		return cfg, err
	}

	switch {
	case cfg.databaseURL == "":
		return cfg, fmt.Errorf("DATABASE_URL is empty")
	case cfg.openAIKey == "":
		return cfg, fmt.Errorf("OPENAI_API_KEY is empty")
	case cfg.whisperBaseURL == "":
		return cfg, fmt.Errorf("WHISPER_BASE_URL is empty")
	case len(cfg.kafkaBrokers) == 0:
		return cfg, fmt.Errorf("KAFKA_BROKERS is empty")
	}
	return cfg, nil
}

func run(ctx context.Context, logger zerolog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := pg.Connect(ctx, cfg.databaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	repo := pg.NewJobRepo(db)

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.kafkaBrokers,
		Topic:   cfg.kafkaTopic,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()

	publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
		OutboxRepo: pg.NewOutboxRepo(db),
		Producer:   producer,
		Interval:   cfg.outboxInterval,
		BatchSize:  cfg.outboxBatchSize,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("outbox publisher: %w", err)
	}
	go func() {
		if err := publisher.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	genClient, err := openai.New(openai.Config{
		APIKey:  cfg.openAIKey,
		BaseURL: cfg.openAIBaseURL,
		Model:   cfg.openAIModel,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("openai client: %w", err)
	}

	orch, err := llm.NewOrchestrator(llm.Config{
		Client: genClient,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("llm orchestrator: %w", err)
	}
	defer orch.Close()

	transcriber, err := whisperapi.New(whisperapi.Config{
		BaseURL: cfg.whisperBaseURL,
		APIKey:  cfg.openAIKey,
		Model:   cfg.whisperModel,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("whisper client: %w", err)
	}

	source, err := ytdlp.New(ytdlp.Config{WorkDir: cfg.workDir, Logger: logger})
	if err != nil {
		return fmt.Errorf("ytdlp client: %w", err)
	}
	if err := source.CheckDependencies(); err != nil {
		return err
	}

	blobs, err := localblob.New(cfg.blobRoot)
	if err != nil {
		return fmt.Errorf("blob storage: %w", err)
	}

	runner, err := stage.NewRunner(stage.RunnerConfig{
		Repo:       repo,
		Logger:     logger,
		MaxRetries: &cfg.maxRetries,
		Workers:    cfg.workers,
		BatchLimit: cfg.batchLimit,
	})
	if err != nil {
		return fmt.Errorf("stage runner: %w", err)
	}

	// Порядок прохода повторяет порядок статусов, чтобы job за один тик
	// мог продвинуться на несколько стадий.
	stages := []stage.Handler{
		stage.NewCrawlStage(source, blobs),
		stage.NewTranscribeStage(transcriber, blobs),
		stage.NewAnalyzeStage(orch),
		stage.NewEditStage(orch),
		stage.NewReviewEntryStage(),
		stage.NewRerunStage(),
	}

	svc := service.New(repo, source, orch, logger)

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	var discoveryCh <-chan time.Time
	if cfg.discoveryTopic != "" {
		discoveryTicker := time.NewTicker(cfg.discoveryInterval)
		defer discoveryTicker.Stop()
		discoveryCh = discoveryTicker.C
	}

	logger.Info().
		Int("workers", cfg.workers).
		Int("max_retries", cfg.maxRetries).
		Dur("interval", cfg.interval).
		Msg("pipeline loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, h := range stages {
				if err := runner.RunStage(ctx, h); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					logger.Error().Str("stage", h.Name()).Err(err).Msg("stage pass failed")
				}
			}
		case <-discoveryCh:
			n, err := svc.DiscoverAndIngest(ctx, cfg.discoveryTopic, 3, 5)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Int("ingested", n).Msg("discovery pass ended with error")
				continue
			}
			logger.Info().Int("ingested", n).Msg("discovery pass done")
		}
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

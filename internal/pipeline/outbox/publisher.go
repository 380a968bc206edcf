package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/kafka"
	"github.com/romariotrain/clip-pipeline/internal/storage/postgres"
)

// Publisher реализует Outbox паттерн для надёжной публикации событий
// пайплайна в Kafka. Гарантирует at-least-once delivery семантику:
// consumer'ы (review UI, publish step) обязаны быть идемпотентными.
type Publisher struct {
	outboxRepo *postgres.OutboxRepo
	producer   *kafka.Producer
	interval   time.Duration
	batchSize  int
	logger     zerolog.Logger
}

// PublisherConfig содержит конфигурацию для создания Publisher
type PublisherConfig struct {
	OutboxRepo *postgres.OutboxRepo
	Producer   *kafka.Producer
	// Interval задает период опроса outbox таблицы. Default 1s.
	Interval time.Duration
	// BatchSize ограничивает размер одного batch'а. Default 100.
	BatchSize int
	Logger    zerolog.Logger
}

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository is required")
	}
	if cfg.Producer == nil {
		return nil, fmt.Errorf("kafka producer is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	return &Publisher{
		outboxRepo: cfg.OutboxRepo,
		producer:   cfg.Producer,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger.With().Str("component", "outbox_publisher").Logger(),
	}, nil
}

// Start запускает polling: каждые interval читает batch необработанных
// событий, публикует их в Kafka и помечает опубликованные как processed.
// Блокирует до отмены контекста.
func (p *Publisher) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("batch_size", p.batchSize).
		Msg("outbox publisher started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Err(ctx.Err()).Msg("outbox publisher stopped")
			return ctx.Err()

		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("failed to publish batch")
				// Продолжаем работать, не падаем
			}
		}
	}
}

// publishBatch обрабатывает один batch событий из outbox таблицы
func (p *Publisher) publishBatch(ctx context.Context) error {
	records, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var published, failed int

	for _, record := range records {
		eventLogger := p.logger.With().
			Str("event_id", record.EventID).
			Str("event_type", record.EventType).
			Str("aggregate_id", record.AggregateID).
			Int64("outbox_id", record.ID).
			Logger()

		// Ключ — aggregate id: события одного job попадают в одну
		// партицию и сохраняют порядок.
		if err := p.producer.Publish(ctx, record.AggregateID, record.Payload); err != nil {
			eventLogger.Error().Err(err).Msg("failed to publish event to kafka")
			failed++
			continue // пропускаем, попробуем в следующий раз
		}
		published++

		if err := p.outboxRepo.MarkProcessed(ctx, record.ID); err != nil {
			// Событие опубликовано, но не помечено — опубликуется повторно.
			// Это нормально для at-least-once delivery.
			eventLogger.Warn().Err(err).Msg("failed to mark event as processed")
		}
	}

	p.logger.Info().
		Int("total", len(records)).
		Int("published", published).
		Int("failed", failed).
		Msg("batch processing completed")

	return nil
}

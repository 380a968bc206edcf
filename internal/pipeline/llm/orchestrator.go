package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// Orchestrator переводит типизированные доменные запросы в вызовы
// генеративного клиента и возвращает типизированные результаты.
// Сам по себе не ретраит: ошибка вызова — это transient-ошибка стадии,
// ретраи принадлежат stage runner'у.
type Orchestrator struct {
	client      clients.GenerativeTextClient
	logger      zerolog.Logger
	chunkSize   int
	callTimeout time.Duration
	temperature float32
}

// Config содержит конфигурацию для создания Orchestrator
type Config struct {
	Client clients.GenerativeTextClient
	Logger zerolog.Logger
	// ChunkSize bounds one evaluation request. Default 10.
	ChunkSize int
	// CallTimeout is the per-dispatch deadline. Default 60s.
	CallTimeout time.Duration
	// Temperature for all dispatches. Explicit zero is honored
	// (deterministic sampling); nil selects the default of 0.2.
	Temperature *float32
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("generative text client is required")
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk_size cannot be negative, got: %d", cfg.ChunkSize)
	}
	if cfg.CallTimeout < 0 {
		return nil, fmt.Errorf("call_timeout cannot be negative, got: %v", cfg.CallTimeout)
	}

	temperature := float32(0.2)
	if cfg.Temperature != nil {
		if *cfg.Temperature < 0 {
			return nil, fmt.Errorf("temperature cannot be negative, got: %v", *cfg.Temperature)
		}
		temperature = *cfg.Temperature
	}

	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 10
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 60 * time.Second
	}

	return &Orchestrator{
		client:      cfg.Client,
		logger:      cfg.Logger.With().Str("component", "llm_orchestrator").Logger(),
		chunkSize:   cfg.ChunkSize,
		callTimeout: cfg.CallTimeout,
		temperature: temperature,
	}, nil
}

// Close releases the generative client handle. The orchestrator owns it for
// the process lifetime; nobody else may close it.
func (o *Orchestrator) Close() error {
	return o.client.Close()
}

// dispatch performs one generative call under the per-call deadline and maps
// transport failures into the domain error taxonomy.
func (o *Orchestrator) dispatch(ctx context.Context, op, prompt string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	start := time.Now()
	raw, err := o.client.Generate(callCtx, prompt, maxTokens, o.temperature)
	if err != nil {
		o.logger.Warn().Str("op", op).Dur("elapsed", time.Since(start)).Err(err).Msg("dispatch failed")
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			// клиент вернул чужой Canceled, наш контекст жив — считаем transient
			return "", domain.Transient(op, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrQuotaExceeded) {
			return "", err
		}
		return "", domain.Transient(op, err)
	}

	o.logger.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Int("response_len", len(raw)).Msg("dispatch ok")
	return raw, nil
}

// Analyze runs a free-text analysis prompt and returns the raw reply.
func (o *Orchestrator) Analyze(ctx context.Context, prompt string) (string, error) {
	return o.dispatch(ctx, "analyze", prompt, 2048)
}

// ExtractKeySegments pulls highlight segments out of a transcript.
func (o *Orchestrator) ExtractKeySegments(ctx context.Context, transcript string) (models.Segments, error) {
	raw, err := o.dispatch(ctx, "extract_key_segments", segmentsPrompt(transcript), 2048)
	if err != nil {
		return nil, err
	}
	return ParseSegments(raw), nil
}

// GenerateEditPlan builds a normalized edit plan from segments.
func (o *Orchestrator) GenerateEditPlan(ctx context.Context, segments models.Segments) (*models.EditPlan, error) {
	raw, err := o.dispatch(ctx, "generate_edit_plan", editPlanPrompt(segments), 2048)
	if err != nil {
		return nil, err
	}
	return ParseEditPlan(raw), nil
}

// GenerateMetadata produces publish metadata; never nil on success.
func (o *Orchestrator) GenerateMetadata(ctx context.Context, transcript string, segments models.Segments) (*models.VideoMetadata, error) {
	raw, err := o.dispatch(ctx, "generate_metadata", metadataPrompt(transcript, segments), 1024)
	if err != nil {
		return nil, err
	}
	return ParseMetadata(raw), nil
}

// GenerateSearchQueries produces up to n crawl queries for a topic.
func (o *Orchestrator) GenerateSearchQueries(ctx context.Context, topic string, n int) ([]string, error) {
	raw, err := o.dispatch(ctx, "generate_search_queries", searchQueriesPrompt(topic, n), 512)
	if err != nil {
		return nil, err
	}
	queries := ParseSearchQueries(raw)
	if len(queries) > n {
		queries = queries[:n]
	}
	return queries, nil
}

// ScoreVideo rates a transcript across quality dimensions.
func (o *Orchestrator) ScoreVideo(ctx context.Context, transcript string) (domain.SubScores, error) {
	raw, err := o.dispatch(ctx, "score_video", subScoresPrompt(transcript), 256)
	if err != nil {
		return domain.SubScores{}, err
	}
	return ParseSubScores(raw), nil
}

// GenerateQuiz builds a comprehension quiz. No fallback: a malformed
// response propagates so a fake quiz never reaches review.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, transcript string) (*models.Quiz, error) {
	raw, err := o.dispatch(ctx, "generate_quiz", quizPrompt(transcript), 2048)
	if err != nil {
		return nil, err
	}
	return ParseQuiz(raw)
}

// EvaluateVideos rates candidates in fixed-size chunks, dispatched
// sequentially to respect provider quota. A failed chunk contributes zero
// evaluations and later chunks still run; quota pressure halts further
// dispatch and surfaces the error alongside what was already collected.
// Candidate indexes in the result are positions in the full input slice.
func (o *Orchestrator) EvaluateVideos(ctx context.Context, candidates []clients.VideoCandidate) ([]models.Evaluation, error) {
	if len(candidates) == 0 {
		return []models.Evaluation{}, nil
	}

	out := make([]models.Evaluation, 0, len(candidates))
	var failedChunks int

	for offset := 0; offset < len(candidates); offset += o.chunkSize {
		end := offset + o.chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}
		chunk := candidates[offset:end]

		raw, err := o.dispatch(ctx, "evaluate_videos", evaluationPrompt(chunk), 2048)
		if err != nil {
			if errors.Is(err, domain.ErrQuotaExceeded) {
				// квота кончилась — дальше в этом проходе не стучимся
				return out, err
			}
			if errors.Is(err, context.Canceled) {
				return out, err
			}
			// изоляция по чанку: сосед не виноват
			failedChunks++
			o.logger.Warn().Int("offset", offset).Int("size", len(chunk)).Err(err).Msg("evaluation chunk dropped")
			continue
		}

		for _, e := range ParseEvaluations(raw, len(chunk)) {
			e.CandidateIndex += offset
			out = append(out, e)
		}
	}

	if failedChunks > 0 {
		o.logger.Info().Int("failed_chunks", failedChunks).Int("evaluations", len(out)).Msg("evaluation finished with dropped chunks")
	}
	return out, nil
}

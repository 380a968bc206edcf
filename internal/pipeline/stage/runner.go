package stage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/repository"
)

// Runner гоняет один проход стадии: выбирает jobs по прекондиции, отдает их
// ограниченному пулу воркеров и пишет результат обратно — по одному item'у,
// с изоляцией ошибок. Ретраи живут здесь, не в стадиях и не в оркестраторе.
type Runner struct {
	repo       repository.JobRepository
	logger     zerolog.Logger
	maxRetries int
	workers    int64
	batchLimit int
	clock      func() time.Time
}

// RunnerConfig содержит конфигурацию для создания Runner
type RunnerConfig struct {
	Repo   repository.JobRepository
	Logger zerolog.Logger
	// MaxRetries bounds transient failures AND needs_edit reruns per job.
	// Exceeding it forces failed. Explicit zero is honored (fail on the
	// first transient error); nil selects the default of 3.
	MaxRetries *int
	// Workers bounds per-stage concurrency. Default 4.
	Workers int
	// BatchLimit bounds one pass's item selection. Default 50.
	BatchLimit int
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Repo == nil {
		return nil, fmt.Errorf("job repository is required")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers cannot be negative, got: %d", cfg.Workers)
	}

	maxRetries := 3
	if cfg.MaxRetries != nil {
		if *cfg.MaxRetries < 0 {
			return nil, fmt.Errorf("max_retries cannot be negative, got: %d", *cfg.MaxRetries)
		}
		maxRetries = *cfg.MaxRetries
	}

	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 50
	}

	return &Runner{
		repo:       cfg.Repo,
		logger:     cfg.Logger.With().Str("component", "stage_runner").Logger(),
		maxRetries: maxRetries,
		workers:    int64(cfg.Workers),
		batchLimit: cfg.BatchLimit,
		clock:      time.Now,
	}, nil
}

// RunStage processes every eligible job for the handler, one worker per
// item. Per-item errors never abort the pass; quota pressure halts the
// launch of further items (the provider said stop, hammering on won't help).
func (r *Runner) RunStage(ctx context.Context, h Handler) error {
	jobs, err := r.repo.FindByStatus(ctx, h.From(), r.batchLimit)
	if err != nil {
		return fmt.Errorf("select jobs for stage %s: %w", h.Name(), err)
	}
	if len(jobs) == 0 {
		return nil
	}

	stageLogger := r.logger.With().Str("stage", h.Name()).Logger()
	stageLogger.Info().Int("eligible", len(jobs)).Msg("stage pass started")

	sem := semaphore.NewWeighted(r.workers)
	var quotaHit atomic.Bool

	for _, job := range jobs {
		if quotaHit.Load() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break // run cancelled, in-flight items finish below
		}

		go func(job *models.JobRecord) {
			defer sem.Release(1)
			if err := r.processOne(ctx, h, job); errors.Is(err, domain.ErrQuotaExceeded) {
				quotaHit.Store(true)
			}
		}(job)
	}

	// Дожидаемся in-flight воркеров даже при отмене: каждый item должен
	// дописаться (или быть брошен) целиком, а не наполовину.
	_ = sem.Acquire(context.Background(), r.workers)
	sem.Release(r.workers)

	if quotaHit.Load() {
		stageLogger.Warn().Msg("stage pass halted on provider quota")
	}
	return nil
}

// processOne executes one item and writes the outcome back. Returns the
// stage error for quota detection only; persistence problems are logged,
// not propagated — the next pass picks the item up again.
func (r *Runner) processOne(ctx context.Context, h Handler, job *models.JobRecord) error {
	// Идемпотентность: пока job лежал в выборке, его мог продвинуть
	// параллельный проход. Прекондиция решает.
	if job.Status != h.From() {
		return nil
	}

	jobLogger := r.logger.With().
		Str("stage", h.Name()).
		Str("job_id", job.ID.String()).
		Str("source_id", job.SourceID).
		Logger()

	from := job.Status
	execErr := h.Execute(ctx, job)

	switch {
	case execErr == nil:
		r.applySuccess(job, from, &jobLogger)

	case errors.Is(execErr, context.Canceled):
		// Отмена прохода — не ошибка item'а. Ничего не пишем.
		return nil

	case domain.IsTransient(execErr):
		job.Status = from // стадия не успела закончить — статус не двигается
		r.applyRetry(job, execErr, &jobLogger)

	default:
		// non-retriable: сразу в failed
		r.applyFailure(job, execErr, &jobLogger)
	}

	if err := domain.ValidateTransition(from, job.Status); err != nil {
		// баг стадии, а не данных; job не трогаем
		jobLogger.Error().Err(err).Msg("stage produced an illegal transition")
		return execErr
	}

	// Инвариант: review priority живет только в очереди на approval.
	if job.Status != domain.PendingApproval {
		job.ReviewPriority = nil
	}

	now := r.clock()
	job.UpdatedAt = now
	job.UpdatedBy = "pipeline/" + h.Name()

	var events []models.DomainEvent
	if job.Status != from {
		events = append(events, models.NewJobStatusChanged(job.ID, job.SourceID, from, job.Status))
	}

	if err := r.repo.Update(ctx, job, events...); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// кто-то записал новую версию — наш результат выбрасываем
			jobLogger.Warn().Msg("job advanced concurrently, write skipped")
		} else {
			jobLogger.Error().Err(err).Msg("job write-back failed")
		}
	}
	return execErr
}

func (r *Runner) applySuccess(job *models.JobRecord, from domain.Status, logger *zerolog.Logger) {
	if domain.ForwardProgress(from, job.Status) {
		job.RetryCount = 0
		job.ErrorMessage = ""
		logger.Info().Str("from", string(from)).Str("to", string(job.Status)).Msg("job advanced")
		return
	}

	if job.Status != from {
		// Возвратное ребро (needs_edit -> analyzed): прогресса нет, жжет
		// тот же retry-бюджет, что и transient-ошибки.
		job.RetryCount++
		if job.RetryCount > r.maxRetries {
			job.Status = domain.Failed
			job.ErrorMessage = fmt.Sprintf("edit rerun budget exhausted after %d attempts", r.maxRetries)
			logger.Warn().Msg("job failed: rerun budget exhausted")
			return
		}
		logger.Info().Int("retry_count", job.RetryCount).Msg("job sent back for rework")
	}
}

func (r *Runner) applyRetry(job *models.JobRecord, execErr error, logger *zerolog.Logger) {
	job.RetryCount++
	job.ErrorMessage = execErr.Error()
	if job.RetryCount > r.maxRetries {
		job.Status = domain.Failed
		logger.Warn().Err(execErr).Int("retry_count", job.RetryCount).Msg("job failed: retries exhausted")
		return
	}
	logger.Warn().Err(execErr).Int("retry_count", job.RetryCount).Msg("transient stage failure, will retry")
}

func (r *Runner) applyFailure(job *models.JobRecord, execErr error, logger *zerolog.Logger) {
	job.Status = domain.Failed
	job.ErrorMessage = execErr.Error()
	logger.Error().Err(execErr).Msg("job failed: non-retriable error")
}

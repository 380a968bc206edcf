package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

const jobColumns = `
	id, source_id, title, channel, status, retry_count,
	quality_score, review_priority, video_key, transcript,
	transcript_segments, segments, edit_plan, metadata, quiz,
	error_message, version, created_at, updated_at, updated_by`

type JobRepo struct {
	db         *sqlx.DB
	outboxRepo *OutboxRepo
}

func NewJobRepo(db *sqlx.DB) *JobRepo {
	return &JobRepo{db: db, outboxRepo: NewOutboxRepo(db)}
}

func (r *JobRepo) Create(ctx context.Context, job *models.JobRecord) error {
	const q = `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (:id, :source_id, :title, :channel, :status, :retry_count,
			:quality_score, :review_priority, :video_key, :transcript,
			:transcript_segments, :segments, :edit_plan, :metadata, :quiz,
			:error_message, :version, :created_at, :updated_at, :updated_by)
	`
	if _, err := r.db.NamedExecContext(ctx, q, job); err != nil {
		return fmt.Errorf("job create: %w", err)
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.JobRecord, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	var job models.JobRecord
	if err := r.db.GetContext(ctx, &job, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("job get by id: %w", err)
	}
	return &job, nil
}

func (r *JobRepo) FindByStatus(ctx context.Context, status domain.Status, limit int) ([]*models.JobRecord, error) {
	const q = `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`
	var jobs []*models.JobRecord
	if err := r.db.SelectContext(ctx, &jobs, q, status, limit); err != nil {
		return nil, fmt.Errorf("job find by status: %w", err)
	}
	return jobs, nil
}

func (r *JobRepo) FindActiveBySourceID(ctx context.Context, sourceID string) (*models.JobRecord, error) {
	const q = `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE source_id = $1
		  AND status NOT IN ($2, $3, $4)
		LIMIT 1
	`
	var job models.JobRecord
	err := r.db.GetContext(ctx, &job, q, sourceID, domain.Published, domain.Rejected, domain.Failed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("job find active by source: %w", err)
	}
	return &job, nil
}

// Update переписывает job и кладет его события в outbox одной транзакцией.
// Optimistic lock: промах по version — models.ErrConflict, ни одна строка
// не записана.
func (r *JobRepo) Update(ctx context.Context, job *models.JobRecord, events ...models.DomainEvent) error {
	const q = `
		UPDATE jobs SET
			title = :title,
			channel = :channel,
			status = :status,
			retry_count = :retry_count,
			quality_score = :quality_score,
			review_priority = :review_priority,
			video_key = :video_key,
			transcript = :transcript,
			transcript_segments = :transcript_segments,
			segments = :segments,
			edit_plan = :edit_plan,
			metadata = :metadata,
			quiz = :quiz,
			error_message = :error_message,
			version = :version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND version = :version
	`

	// 1. Начинаем транзакцию
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // откатится если не сделаем Commit

	// 2. Обновляем job по id+version
	res, err := tx.NamedExecContext(ctx, q, job)
	if err != nil {
		return fmt.Errorf("job update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("job update rows affected: %w", err)
	}
	if affected == 0 {
		// либо job удален, либо кто-то успел записать новую версию
		return models.ErrConflict
	}

	// 3. События — в outbox, в той же транзакции
	for _, event := range events {
		if err := r.outboxRepo.Add(ctx, tx, event); err != nil {
			return fmt.Errorf("add outbox: %w", err)
		}
	}

	// 4. Коммитим атомарно
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	job.Version++
	return nil
}

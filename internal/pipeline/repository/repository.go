package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// JobRepository persists job records. Update is атомарная запись: job и его
// события уходят в одной транзакции, с optimistic lock по Version
// (models.ErrConflict при промахе).
type JobRepository interface {
	Create(ctx context.Context, job *models.JobRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.JobRecord, error)
	// FindByStatus returns up to limit jobs in the given status, oldest first.
	FindByStatus(ctx context.Context, status domain.Status, limit int) ([]*models.JobRecord, error)
	// FindActiveBySourceID returns the one active (non-terminal) job for an
	// external source id, or models.ErrNotFound.
	FindActiveBySourceID(ctx context.Context, sourceID string) (*models.JobRecord, error)
	Update(ctx context.Context, job *models.JobRecord, events ...models.DomainEvent) error
}

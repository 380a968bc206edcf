package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// MemoryRepository — in-memory реализация для тестов и локальной разработки.
type MemoryRepository struct {
	mu     sync.RWMutex
	data   map[uuid.UUID]*models.JobRecord
	events []models.DomainEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[uuid.UUID]*models.JobRecord),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, job *models.JobRecord) error {
	if job == nil || job.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[job.ID]; exists {
		return models.ErrConflict
	}

	// Защитная копия, чтобы внешняя сторона не могла мутировать хранимый объект
	cp := *job
	r.data[job.ID] = &cp

	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.JobRecord, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.data[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	cp := *job
	return &cp, nil
}

func (r *MemoryRepository) FindByStatus(ctx context.Context, status domain.Status, limit int) ([]*models.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.JobRecord, 0)
	for _, job := range r.data {
		if job.Status == status {
			cp := *job
			out = append(out, &cp)
		}
	}

	// map не гарантирует порядок — сортируем как постгрес: oldest first
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) FindActiveBySourceID(ctx context.Context, sourceID string) (*models.JobRecord, error) {
	if sourceID == "" {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, job := range r.data {
		if job.SourceID == sourceID && job.Active() {
			cp := *job
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryRepository) Update(ctx context.Context, job *models.JobRecord, events ...models.DomainEvent) error {
	if job == nil || job.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.data[job.ID]
	if !ok {
		return models.ErrNotFound
	}
	if stored.Version != job.Version {
		return models.ErrConflict
	}

	job.Version++
	cp := *job
	r.data[job.ID] = &cp
	r.events = append(r.events, events...)

	return nil
}

// Events returns everything appended through Update, in order. Test helper.
func (r *MemoryRepository) Events() []models.DomainEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.DomainEvent(nil), r.events...)
}

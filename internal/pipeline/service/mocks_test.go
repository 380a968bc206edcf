package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Create(ctx context.Context, job *models.JobRecord) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *StoreMock) GetByID(ctx context.Context, id uuid.UUID) (*models.JobRecord, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.JobRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) FindByStatus(ctx context.Context, status domain.Status, limit int) ([]*models.JobRecord, error) {
	args := m.Called(ctx, status, limit)
	if v := args.Get(0); v != nil {
		return v.([]*models.JobRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) FindActiveBySourceID(ctx context.Context, sourceID string) (*models.JobRecord, error) {
	args := m.Called(ctx, sourceID)
	if v := args.Get(0); v != nil {
		return v.(*models.JobRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) Update(ctx context.Context, job *models.JobRecord, events ...models.DomainEvent) error {
	callArgs := make([]any, 0, len(events)+2)
	callArgs = append(callArgs, ctx, job)
	for _, e := range events {
		callArgs = append(callArgs, e)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

type SourceMock struct {
	mock.Mock
}

func (m *SourceMock) Search(ctx context.Context, query string, limit int) ([]clients.VideoCandidate, error) {
	args := m.Called(ctx, query, limit)
	if v := args.Get(0); v != nil {
		return v.([]clients.VideoCandidate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SourceMock) Download(ctx context.Context, videoID string) (string, error) {
	args := m.Called(ctx, videoID)
	return args.String(0), args.Error(1)
}

type PlannerMock struct {
	mock.Mock
}

func (m *PlannerMock) GenerateSearchQueries(ctx context.Context, topic string, n int) ([]string, error) {
	args := m.Called(ctx, topic, n)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PlannerMock) EvaluateVideos(ctx context.Context, candidates []clients.VideoCandidate) ([]models.Evaluation, error) {
	args := m.Called(ctx, candidates)
	if v := args.Get(0); v != nil {
		return v.([]models.Evaluation), args.Error(1)
	}
	return nil, args.Error(1)
}

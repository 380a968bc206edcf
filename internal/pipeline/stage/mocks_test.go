package stage

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

type LLMMock struct {
	mock.Mock
}

func (m *LLMMock) ExtractKeySegments(ctx context.Context, transcript string) (models.Segments, error) {
	args := m.Called(ctx, transcript)
	if v := args.Get(0); v != nil {
		return v.(models.Segments), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LLMMock) GenerateEditPlan(ctx context.Context, segments models.Segments) (*models.EditPlan, error) {
	args := m.Called(ctx, segments)
	if v := args.Get(0); v != nil {
		return v.(*models.EditPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LLMMock) GenerateMetadata(ctx context.Context, transcript string, segments models.Segments) (*models.VideoMetadata, error) {
	args := m.Called(ctx, transcript, segments)
	if v := args.Get(0); v != nil {
		return v.(*models.VideoMetadata), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LLMMock) GenerateQuiz(ctx context.Context, transcript string) (*models.Quiz, error) {
	args := m.Called(ctx, transcript)
	if v := args.Get(0); v != nil {
		return v.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LLMMock) ScoreVideo(ctx context.Context, transcript string) (domain.SubScores, error) {
	args := m.Called(ctx, transcript)
	return args.Get(0).(domain.SubScores), args.Error(1)
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

type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) Put(ctx context.Context, key string, r io.Reader) error {
	args := m.Called(ctx, key, r)
	return args.Error(0)
}

func (m *StorageMock) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

type TranscriberMock struct {
	mock.Mock
}

func (m *TranscriberMock) Transcribe(ctx context.Context, audioRef string) (*clients.TranscriptionResult, error) {
	args := m.Called(ctx, audioRef)
	if v := args.Get(0); v != nil {
		return v.(*clients.TranscriptionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

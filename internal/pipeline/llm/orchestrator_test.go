package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

func newTestOrchestrator(t *testing.T, client clients.GenerativeTextClient) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(Config{
		Client: client,
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return o
}

func candidates(n int) []clients.VideoCandidate {
	out := make([]clients.VideoCandidate, n)
	for i := range out {
		out[i] = clients.VideoCandidate{VideoID: "v", Title: "t", Channel: "c"}
	}
	return out
}

func TestNewOrchestrator_Validation(t *testing.T) {
	_, err := NewOrchestrator(Config{Logger: zerolog.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client is required")

	_, err = NewOrchestrator(Config{Client: new(GenerativeClientMock), ChunkSize: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_size")

	_, err = NewOrchestrator(Config{Client: new(GenerativeClientMock), CallTimeout: -time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call_timeout")
}

func TestNewOrchestrator_Defaults(t *testing.T) {
	o := newTestOrchestrator(t, new(GenerativeClientMock))

	assert.Equal(t, 10, o.chunkSize)
	assert.Equal(t, 60*time.Second, o.callTimeout)
	assert.Equal(t, float32(0.2), o.temperature)
}

func TestNewOrchestrator_ExplicitZeroTemperatureIsHonored(t *testing.T) {
	// Temperature=0 — детерминированный сэмплинг, валидная настройка;
	// дефолт 0.2 применяется только при nil.
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, float32(0)).
		Return(`["a"]`, nil).Once()

	o, err := NewOrchestrator(Config{
		Client:      client,
		Logger:      zerolog.Nop(),
		Temperature: float32Ptr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, float32(0), o.temperature)

	_, err = o.GenerateSearchQueries(context.Background(), "go concurrency", 1)
	require.NoError(t, err)
	client.AssertExpectations(t)

	_, err = NewOrchestrator(Config{Client: client, Temperature: float32Ptr(-0.5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature")
}

func float32Ptr(v float32) *float32 { return &v }

func TestExtractKeySegments_TransientOnClientError(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("connection reset")).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.ExtractKeySegments(context.Background(), "transcript")

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Nil(t, got)
	client.AssertExpectations(t)
}

func TestExtractKeySegments_GarbageYieldsEmptyList(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("sorry, I can't do that", nil).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.ExtractKeySegments(context.Background(), "transcript")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerateSearchQueries_CapsAtRequestedCount(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`["a","b","c","d"]`, nil).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.GenerateSearchQueries(context.Background(), "go concurrency", 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestGenerateQuiz_MalformedPropagates(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("not json", nil).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.GenerateQuiz(context.Background(), "transcript")

	require.Error(t, err)
	assert.True(t, domain.IsMalformed(err))
	assert.Nil(t, got)
}

func TestEvaluateVideos_ChunksSequentially(t *testing.T) {
	client := new(GenerativeClientMock)
	// 12 candidates -> chunks of 10 and 2; prompts carry chunk-local indexes.
	client.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "9.") && !strings.Contains(p, "10.")
	}), mock.Anything, mock.Anything).
		Return(`[{"candidate_index":0,"recommendation":"YES","score":90,"reasoning":"r"}]`, nil).Once()
	client.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "1.") && !strings.Contains(p, "2.")
	}), mock.Anything, mock.Anything).
		Return(`[{"candidate_index":1,"recommendation":"NO","score":10,"reasoning":"r"}]`, nil).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.EvaluateVideos(context.Background(), candidates(12))

	require.NoError(t, err)
	require.Len(t, got, 12)
	// Chunk-local indexes are rebased onto the full input.
	assert.Equal(t, models.RecommendYes, got[0].Recommendation)
	assert.Equal(t, models.RecommendMaybe, got[5].Recommendation)
	assert.Equal(t, 11, got[11].CandidateIndex)
	assert.Equal(t, models.RecommendNo, got[11].Recommendation)
	client.AssertExpectations(t)
}

func TestEvaluateVideos_FirstChunkFails(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("provider 500")).Once()
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`[{"candidate_index":0,"recommendation":"YES","score":88,"reasoning":"r"},
			{"candidate_index":1,"recommendation":"NO","score":12,"reasoning":"r"}]`, nil).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.EvaluateVideos(context.Background(), candidates(12))

	// Strict per-chunk isolation: the failed chunk contributes nothing,
	// the second chunk still runs.
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got[0].CandidateIndex)
	assert.Equal(t, 11, got[1].CandidateIndex)
	client.AssertExpectations(t)
}

func TestEvaluateVideos_MalformedChunkFallsBackToNeutral(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("total garbage", nil).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.EvaluateVideos(context.Background(), candidates(3))

	// The provider answered, the payload did not decode: every candidate in
	// the chunk still receives exactly one neutral evaluation.
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, i, e.CandidateIndex)
		assert.Equal(t, models.RecommendMaybe, e.Recommendation)
		assert.Equal(t, NeutralEvaluationScore, e.Score)
	}
}

func TestEvaluateVideos_QuotaHaltsDispatch(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", domain.ErrQuotaExceeded).Once()

	o := newTestOrchestrator(t, client)
	got, err := o.EvaluateVideos(context.Background(), candidates(25))

	// Первый же чанк уперся в квоту — дальше не стучимся.
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Empty(t, got)
	client.AssertNumberOfCalls(t, "Generate", 1)
}

func TestEvaluateVideos_EmptyInput(t *testing.T) {
	client := new(GenerativeClientMock)
	o := newTestOrchestrator(t, client)

	got, err := o.EvaluateVideos(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClose_ReleasesClient(t *testing.T) {
	client := new(GenerativeClientMock)
	client.On("Close").Return(nil).Once()

	o := newTestOrchestrator(t, client)
	require.NoError(t, o.Close())
	client.AssertExpectations(t)
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

func TestParseSegments_Valid(t *testing.T) {
	raw := "```json\n[{\"start_ms\":1000,\"end_ms\":5000,\"title\":\"intro\",\"keywords\":[\"go\"]}]\n```"
	got := ParseSegments(raw)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1000), got[0].StartMs)
	assert.Equal(t, int64(5000), got[0].EndMs)
	assert.Equal(t, "intro", got[0].Title)
}

func TestParseSegments_FallbackToEmptyList(t *testing.T) {
	// Fallback safety: garbage never becomes a panic or a nil.
	for _, raw := range []string{"not json", "{\"oops\":1}", "", "```json\nbroken\n```"} {
		got := ParseSegments(raw)
		require.NotNil(t, got, "input %q", raw)
		assert.Empty(t, got, "input %q", raw)
	}
}

func TestParseSegments_DropsInvertedIntervals(t *testing.T) {
	raw := `[{"start_ms":5000,"end_ms":1000,"title":"bad"},{"start_ms":0,"end_ms":2000,"title":"ok"}]`
	got := ParseSegments(raw)

	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Title)
}

func TestParseSearchQueries(t *testing.T) {
	assert.Equal(t, []string{"go worker pool", "go pipelines"},
		ParseSearchQueries(`["go worker pool","  go pipelines  ",""]`))
	assert.Empty(t, ParseSearchQueries("nope"))
}

func TestParseMetadata_Valid(t *testing.T) {
	raw := `{"title":"Goroutines in 60s","description":"d","tags":["go"],"category":"programming","difficulty":"intermediate"}`
	got := ParseMetadata(raw)

	require.NotNil(t, got)
	assert.Equal(t, "Goroutines in 60s", got.Title)
	assert.Equal(t, "programming", got.Category)
}

func TestParseMetadata_FallbackNeutralRecord(t *testing.T) {
	// Metadata must never be absent downstream.
	got := ParseMetadata("not json")

	require.NotNil(t, got)
	assert.Equal(t, fallbackTitle, got.Title)
	assert.Empty(t, got.Description)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
	assert.Equal(t, fallbackCategory, got.Category)
	assert.Equal(t, fallbackDifficulty, got.Difficulty)
}

func TestParseMetadata_FillsMissingFields(t *testing.T) {
	got := ParseMetadata(`{"title":"T"}`)

	require.NotNil(t, got)
	assert.Equal(t, "T", got.Title)
	assert.NotNil(t, got.Tags)
	assert.Equal(t, fallbackCategory, got.Category)
	assert.Equal(t, fallbackDifficulty, got.Difficulty)
}

func TestParseEditPlan_SortsAndRecomputesTotal(t *testing.T) {
	// Reported total of 1 is wrong and clip order is shuffled.
	raw := `{"strategy":"fast_cuts","total_duration_ms":1,"clips":[
		{"order_index":1,"start_ms":5000,"end_ms":9000},
		{"order_index":0,"start_ms":0,"end_ms":5000}]}`
	got := ParseEditPlan(raw)

	require.NotNil(t, got)
	require.Len(t, got.Clips, 2)
	assert.Equal(t, 0, got.Clips[0].OrderIndex)
	assert.Equal(t, 1, got.Clips[1].OrderIndex)
	assert.Equal(t, int64(9000), got.TotalDurationMs)
	assert.Equal(t, "fast_cuts", got.Strategy)
}

func TestParseEditPlan_FallbackEmptyPlan(t *testing.T) {
	got := ParseEditPlan("no plan here")

	require.NotNil(t, got)
	assert.Equal(t, "none", got.Strategy)
	assert.Empty(t, got.Clips)
	assert.Zero(t, got.TotalDurationMs)
}

func TestParseEvaluations_Cardinality(t *testing.T) {
	raw := `[{"candidate_index":1,"recommendation":"YES","score":90,"reasoning":"good"}]`
	got := ParseEvaluations(raw, 3)

	// Exactly N records, one per distinct index in [0,N).
	require.Len(t, got, 3)
	for i, e := range got {
		assert.Equal(t, i, e.CandidateIndex)
	}
	assert.Equal(t, models.RecommendMaybe, got[0].Recommendation)
	assert.Equal(t, models.RecommendYes, got[1].Recommendation)
	assert.Equal(t, 90, got[1].Score)
	assert.Equal(t, models.RecommendMaybe, got[2].Recommendation)
}

func TestParseEvaluations_FallbackWholeBatch(t *testing.T) {
	got := ParseEvaluations("not json", 4)

	require.Len(t, got, 4)
	for i, e := range got {
		assert.Equal(t, i, e.CandidateIndex)
		assert.Equal(t, models.RecommendMaybe, e.Recommendation)
		assert.Equal(t, NeutralEvaluationScore, e.Score)
		assert.Contains(t, e.Reasoning, "unparsable")
	}
}

func TestParseEvaluations_DropsForeignIndexes(t *testing.T) {
	// Индекс за пределами батча не должен портить чужую оценку.
	raw := `[
		{"candidate_index":7,"recommendation":"YES","score":99},
		{"candidate_index":-1,"recommendation":"YES","score":99},
		{"candidate_index":0,"recommendation":"NO","score":5},
		{"candidate_index":0,"recommendation":"YES","score":95}]`
	got := ParseEvaluations(raw, 2)

	require.Len(t, got, 2)
	assert.Equal(t, models.RecommendNo, got[0].Recommendation) // first wins, duplicate dropped
	assert.Equal(t, 5, got[0].Score)
	assert.Equal(t, models.RecommendMaybe, got[1].Recommendation)
}

func TestParseEvaluations_SanitizesRecommendationAndScore(t *testing.T) {
	raw := `[{"candidate_index":0,"recommendation":"yes","score":150},
		{"candidate_index":1,"recommendation":"whatever","score":-5}]`
	got := ParseEvaluations(raw, 2)

	require.Len(t, got, 2)
	assert.Equal(t, models.RecommendYes, got[0].Recommendation)
	assert.Equal(t, 100, got[0].Score)
	assert.Equal(t, models.RecommendMaybe, got[1].Recommendation)
	assert.Equal(t, 0, got[1].Score)
}

func TestParseSubScores(t *testing.T) {
	got := ParseSubScores(`{"content_relevance":80,"educational_value":90}`)
	require.NotNil(t, got.ContentRelevance)
	assert.Equal(t, 80, *got.ContentRelevance)
	assert.Nil(t, got.AudioClarity)

	// Undecodable: everything nil, composite lands on the midpoint.
	empty := ParseSubScores("garbage")
	assert.Equal(t, domain.NeutralSubScore, domain.CompositeScore(empty))
}

func TestParseQuiz_Valid(t *testing.T) {
	raw := "```json\n" + `{"questions":[{"question":"q1","options":["a","b","c"],"answer_index":2}]}` + "\n```"
	got, err := ParseQuiz(raw)

	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, 2, got.Questions[0].AnswerIndex)
}

func TestParseQuiz_NoFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "not json"},
		{name: "empty questions", raw: `{"questions":[]}`},
		{name: "blank question", raw: `{"questions":[{"question":" ","options":["a","b"],"answer_index":0}]}`},
		{name: "single option", raw: `{"questions":[{"question":"q","options":["a"],"answer_index":0}]}`},
		{name: "answer out of range", raw: `{"questions":[{"question":"q","options":["a","b"],"answer_index":5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuiz(tt.raw)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, domain.IsMalformed(err))
		})
	}
}

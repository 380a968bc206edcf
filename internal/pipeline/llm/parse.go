package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// Typed decoding of extracted payloads. The fallback policy is per
// operation: list shapes degrade to an empty list, metadata to a neutral
// record, evaluations to neutral per-candidate marks, the quiz to an error.
// A fallback is never an exception — callers always get a usable value,
// except for quizzes where a fabricated value would poison review.

// Neutral metadata record substituted on decode failure. Metadata must never
// be absent downstream.
const (
	fallbackTitle      = "Untitled clip"
	fallbackCategory   = "general"
	fallbackDifficulty = "beginner"
)

// NeutralEvaluationScore marks an unparseable batch: mid-range, MAYBE.
const NeutralEvaluationScore = 50

// ParseSegments decodes highlight segments from a raw reply.
// Fallback: empty list.
func ParseSegments(raw string) models.Segments {
	var out models.Segments
	if err := json.Unmarshal([]byte(ExtractPayload(raw)), &out); err != nil {
		return models.Segments{}
	}

	// отбрасываем мусорные интервалы, не падаем
	valid := make(models.Segments, 0, len(out))
	for _, s := range out {
		if s.StartMs < 0 || s.EndMs <= s.StartMs {
			continue
		}
		valid = append(valid, s)
	}
	return valid
}

// ParseSearchQueries decodes a list of search queries. Fallback: empty list.
func ParseSearchQueries(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(ExtractPayload(raw)), &out); err != nil {
		return []string{}
	}

	valid := make([]string, 0, len(out))
	for _, q := range out {
		if q = strings.TrimSpace(q); q != "" {
			valid = append(valid, q)
		}
	}
	return valid
}

// ParseMetadata decodes publish metadata. Fallback: a fixed neutral record.
func ParseMetadata(raw string) *models.VideoMetadata {
	var out models.VideoMetadata
	if err := json.Unmarshal([]byte(ExtractPayload(raw)), &out); err != nil || out.Title == "" {
		return &models.VideoMetadata{
			Title:      fallbackTitle,
			Tags:       []string{},
			Category:   fallbackCategory,
			Difficulty: fallbackDifficulty,
		}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Category == "" {
		out.Category = fallbackCategory
	}
	if out.Difficulty == "" {
		out.Difficulty = fallbackDifficulty
	}
	return &out
}

// ParseEditPlan decodes and normalizes an edit plan. Fallback: an empty plan
// (strategy "none", zero duration) — the valid "nothing worth clipping"
// signal.
func ParseEditPlan(raw string) *models.EditPlan {
	var out models.EditPlan
	if err := json.Unmarshal([]byte(ExtractPayload(raw)), &out); err != nil {
		return &models.EditPlan{Strategy: "none", Clips: []models.Clip{}}
	}
	return NormalizeEditPlan(&out)
}

// NormalizeEditPlan re-sorts clips by declared order index and recomputes the
// total duration from clip durations. Generative output order is not
// guaranteed and reported totals are routinely wrong.
func NormalizeEditPlan(p *models.EditPlan) *models.EditPlan {
	if p.Clips == nil {
		p.Clips = []models.Clip{}
	}
	sort.SliceStable(p.Clips, func(i, j int) bool {
		return p.Clips[i].OrderIndex < p.Clips[j].OrderIndex
	})

	var total int64
	for _, c := range p.Clips {
		total += c.DurationMs()
	}
	p.TotalDurationMs = total

	if p.Strategy == "" {
		p.Strategy = "none"
	}
	return p
}

// ParseEvaluations decodes candidate evaluations for a batch of batchSize.
// Invariant: exactly batchSize records come back, one per candidate index in
// [0, batchSize). Out-of-range or duplicate indexes from the model are
// dropped; missing candidates are filled with a neutral MAYBE. On a whole
// undecodable payload every candidate gets the neutral mark with a reasoning
// noting the parse failure.
func ParseEvaluations(raw string, batchSize int) []models.Evaluation {
	if batchSize <= 0 {
		return []models.Evaluation{}
	}

	var decoded []models.Evaluation
	err := json.Unmarshal([]byte(ExtractPayload(raw)), &decoded)

	byIndex := make(map[int]models.Evaluation, batchSize)
	if err == nil {
		for _, e := range decoded {
			if e.CandidateIndex < 0 || e.CandidateIndex >= batchSize {
				continue // чужой индекс не должен портить соседей
			}
			if _, dup := byIndex[e.CandidateIndex]; dup {
				continue
			}
			byIndex[e.CandidateIndex] = sanitizeEvaluation(e)
		}
	}

	reason := "no evaluation returned for candidate"
	if err != nil {
		reason = fmt.Sprintf("evaluation response unparsable: %v", err)
	}

	out := make([]models.Evaluation, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		if e, ok := byIndex[i]; ok {
			out = append(out, e)
			continue
		}
		out = append(out, models.Evaluation{
			CandidateIndex: i,
			Recommendation: models.RecommendMaybe,
			Score:          NeutralEvaluationScore,
			Reasoning:      reason,
		})
	}
	return out
}

func sanitizeEvaluation(e models.Evaluation) models.Evaluation {
	switch models.Recommendation(strings.ToUpper(string(e.Recommendation))) {
	case models.RecommendYes:
		e.Recommendation = models.RecommendYes
	case models.RecommendNo:
		e.Recommendation = models.RecommendNo
	default:
		e.Recommendation = models.RecommendMaybe
	}
	if e.Score < 0 {
		e.Score = 0
	}
	if e.Score > 100 {
		e.Score = 100
	}
	return e
}

// ParseSubScores decodes per-dimension quality ratings. Missing or
// undecodable dimensions stay nil and default to the neutral midpoint inside
// domain.CompositeScore.
func ParseSubScores(raw string) domain.SubScores {
	var out domain.SubScores
	if err := json.Unmarshal([]byte(ExtractPayload(raw)), &out); err != nil {
		return domain.SubScores{}
	}
	return out
}

// ParseQuiz decodes a quiz. No fallback: a synthesized quiz would corrupt
// the review flow, so a malformed response is the caller's problem.
func ParseQuiz(raw string) (*models.Quiz, error) {
	var out models.Quiz
	if err := json.Unmarshal([]byte(ExtractPayload(raw)), &out); err != nil {
		return nil, domain.Malformed("quiz", err)
	}
	if len(out.Questions) == 0 {
		return nil, domain.Malformed("quiz", fmt.Errorf("no questions"))
	}
	for i, q := range out.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, domain.Malformed("quiz", fmt.Errorf("question %d is empty", i))
		}
		if len(q.Options) < 2 {
			return nil, domain.Malformed("quiz", fmt.Errorf("question %d has %d options", i, len(q.Options)))
		}
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return nil, domain.Malformed("quiz", fmt.Errorf("question %d answer index %d out of range", i, q.AnswerIndex))
		}
	}
	return &out, nil
}

package stage

import (
	"context"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// AnalyzeStage извлекает highlight-сегменты, строит quiz и считает
// composite quality score. transcribed -> analyzed.
type AnalyzeStage struct {
	llm LLM
}

func NewAnalyzeStage(llm LLM) *AnalyzeStage {
	return &AnalyzeStage{llm: llm}
}

func (s *AnalyzeStage) Name() string        { return "analyze" }
func (s *AnalyzeStage) From() domain.Status { return domain.Transcribed }

func (s *AnalyzeStage) Execute(ctx context.Context, job *models.JobRecord) error {
	segments, err := s.llm.ExtractKeySegments(ctx, job.Transcript)
	if err != nil {
		return err
	}

	// Malformed quiz распространяется как ошибка стадии: фейковый quiz не
	// должен молча доехать до ревью.
	quiz, err := s.llm.GenerateQuiz(ctx, job.Transcript)
	if err != nil {
		return err
	}

	subs, err := s.llm.ScoreVideo(ctx, job.Transcript)
	if err != nil {
		return err
	}
	score := domain.CompositeScore(subs)

	job.Segments = segments
	job.Quiz = quiz
	job.QualityScore = &score
	job.Status = domain.Analyzed
	return nil
}

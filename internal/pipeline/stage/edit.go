package stage

import (
	"context"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// EditStage строит план монтажа и publish-метаданные.
// analyzed -> edited.
type EditStage struct {
	llm LLM
}

func NewEditStage(llm LLM) *EditStage {
	return &EditStage{llm: llm}
}

func (s *EditStage) Name() string        { return "edit" }
func (s *EditStage) From() domain.Status { return domain.Analyzed }

func (s *EditStage) Execute(ctx context.Context, job *models.JobRecord) error {
	plan, err := s.llm.GenerateEditPlan(ctx, job.Segments)
	if err != nil {
		return err
	}

	meta, err := s.llm.GenerateMetadata(ctx, job.Transcript, job.Segments)
	if err != nil {
		return err
	}

	job.EditPlan = plan
	job.Metadata = meta
	job.Status = domain.Edited
	return nil
}

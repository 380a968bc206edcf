package stage

import (
	"context"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// ReviewEntryStage routes an edited job into the human-review queue or
// straight to rejection, purely off the quality score.
// edited -> pending_approval | rejected.
type ReviewEntryStage struct{}

func NewReviewEntryStage() *ReviewEntryStage { return &ReviewEntryStage{} }

func (s *ReviewEntryStage) Name() string        { return "review_entry" }
func (s *ReviewEntryStage) From() domain.Status { return domain.Edited }

func (s *ReviewEntryStage) Execute(ctx context.Context, job *models.JobRecord) error {
	score := domain.NeutralSubScore
	if job.QualityScore != nil {
		score = *job.QualityScore
	}

	decision := domain.RouteByScore(score)
	job.Status = decision.Status
	if decision.Status == domain.PendingApproval {
		priority := decision.Priority
		job.ReviewPriority = &priority
	}
	return nil
}

// RerunStage отправляет job, который ревьюер вернул на доработку, обратно на
// вход edit-стадии: план и метаданные будут построены заново.
// needs_edit -> analyzed. Runner считает этот проход против retry-бюджета.
type RerunStage struct{}

func NewRerunStage() *RerunStage { return &RerunStage{} }

func (s *RerunStage) Name() string        { return "rerun" }
func (s *RerunStage) From() domain.Status { return domain.NeedsEdit }

func (s *RerunStage) Execute(ctx context.Context, job *models.JobRecord) error {
	job.EditPlan = nil
	job.Metadata = nil
	job.ReviewPriority = nil
	job.Status = domain.Analyzed
	return nil
}

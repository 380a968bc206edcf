package stage

import (
	"context"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// Handler is one pipeline stage. Execute mutates the job in place: fills the
// stage's fields and sets Status to the next state. It must not persist
// anything itself — write-back, retry bookkeeping and event emission belong
// to the Runner.
//
// Контракт: ошибка из Execute — это ошибка обработки ОДНОГО item'а; job
// остается на прежнем статусе (transient) либо уходит в failed
// (non-retriable или исчерпанные ретраи). Решает Runner по таксономии
// ошибок в domain.
type Handler interface {
	Name() string
	// From is the stage precondition: only jobs in this status are eligible.
	From() domain.Status
	Execute(ctx context.Context, job *models.JobRecord) error
}

// LLM is the slice of the orchestrator the stages consume.
type LLM interface {
	ExtractKeySegments(ctx context.Context, transcript string) (models.Segments, error)
	GenerateEditPlan(ctx context.Context, segments models.Segments) (*models.EditPlan, error)
	GenerateMetadata(ctx context.Context, transcript string, segments models.Segments) (*models.VideoMetadata, error)
	GenerateQuiz(ctx context.Context, transcript string) (*models.Quiz, error)
	ScoreVideo(ctx context.Context, transcript string) (domain.SubScores, error)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/repository"
)

// SearchPlanner is the slice of the LLM orchestrator discovery needs.
type SearchPlanner interface {
	GenerateSearchQueries(ctx context.Context, topic string, n int) ([]string, error)
	EvaluateVideos(ctx context.Context, candidates []clients.VideoCandidate) ([]models.Evaluation, error)
}

// Service владеет инвариантами job'а: id, начальный статус, таймстемпы,
// dedup по source id, легальность ручных (review) переходов.
type Service struct {
	repo    repository.JobRepository
	source  clients.VideoSourceClient
	planner SearchPlanner
	logger  zerolog.Logger
	clock   func() time.Time
	idGen   func() uuid.UUID
}

func New(repo repository.JobRepository, source clients.VideoSourceClient, planner SearchPlanner, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		source:  source,
		planner: planner,
		logger:  logger.With().Str("component", "job_service").Logger(),
		clock:   time.Now,
		idGen:   uuid.New,
	}
}

// GetJob returns a job by id, passing domain errors through so the transport
// layer can map them to HTTP.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*models.JobRecord, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*models.JobRecord, error) {
	if status == "" || limit <= 0 {
		return nil, models.ErrInvalidArgument
	}
	return s.repo.FindByStatus(ctx, status, limit)
}

// IngestCandidate creates a pending job for an external video.
// Dedup invariant: at most one active job per source id.
func (s *Service) IngestCandidate(ctx context.Context, candidate clients.VideoCandidate) (*models.JobRecord, error) {
	if candidate.VideoID == "" {
		return nil, models.ErrInvalidArgument
	}

	// 1. Проверяем, не занят ли source id активным job'ом
	existing, err := s.repo.FindActiveBySourceID(ctx, candidate.VideoID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		return nil, models.ErrDuplicateSource
	}

	now := s.clock()
	job := &models.JobRecord{
		ID:        s.idGen(),
		SourceID:  candidate.VideoID,
		Title:     candidate.Title,
		Channel:   candidate.Channel,
		Status:    domain.Pending,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: "ingest",
	}

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.Info().Str("job_id", job.ID.String()).Str("source_id", job.SourceID).Msg("candidate ingested")
	return job, nil
}

// Review operations: each is a validated manual transition.

func (s *Service) Approve(ctx context.Context, id uuid.UUID, reviewer string) (*models.JobRecord, error) {
	return s.changeStatus(ctx, id, domain.Approved, reviewer)
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, reviewer string) (*models.JobRecord, error) {
	return s.changeStatus(ctx, id, domain.Rejected, reviewer)
}

// RequestEdit sends an edited clip back for rework. The rerun itself happens
// on the next pipeline pass and burns the job's retry budget there.
func (s *Service) RequestEdit(ctx context.Context, id uuid.UUID, reviewer string) (*models.JobRecord, error) {
	return s.changeStatus(ctx, id, domain.NeedsEdit, reviewer)
}

func (s *Service) Publish(ctx context.Context, id uuid.UUID, actor string) (*models.JobRecord, error) {
	return s.changeStatus(ctx, id, domain.Published, actor)
}

func (s *Service) changeStatus(ctx context.Context, id uuid.UUID, to domain.Status, actor string) (*models.JobRecord, error) {
	if id == uuid.Nil || actor == "" {
		return nil, models.ErrInvalidArgument
	}

	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.Status == to {
		// уже там — ничего не делаем
		return job, nil
	}
	if err := domain.ValidateTransition(job.Status, to); err != nil {
		return nil, err
	}

	from := job.Status
	job.Status = to
	if to != domain.PendingApproval {
		job.ReviewPriority = nil
	}
	job.UpdatedAt = s.clock()
	job.UpdatedBy = actor

	event := models.NewJobStatusChanged(job.ID, job.SourceID, from, to)
	if err := s.repo.Update(ctx, job, event); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("job_id", job.ID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor", actor).
		Msg("job status changed")
	return job, nil
}

// DiscoverAndIngest генерирует поисковые запросы по теме, собирает
// кандидатов с платформы-источника, оценивает их батчами и заводит pending
// jobs для годных. Возвращает число заведенных jobs; ошибка оценки (квота и
// т.п.) отдается вместе с тем, что успели завести.
func (s *Service) DiscoverAndIngest(ctx context.Context, topic string, queryCount, perQuery int) (int, error) {
	if topic == "" || queryCount <= 0 || perQuery <= 0 {
		return 0, models.ErrInvalidArgument
	}

	queries, err := s.planner.GenerateSearchQueries(ctx, topic, queryCount)
	if err != nil {
		return 0, fmt.Errorf("generate search queries: %w", err)
	}

	// Собираем кандидатов, дедуплицируя по video id между запросами.
	seen := make(map[string]struct{})
	var candidates []clients.VideoCandidate
	for _, q := range queries {
		found, err := s.source.Search(ctx, q, perQuery)
		if err != nil {
			s.logger.Warn().Str("query", q).Err(err).Msg("search failed, query skipped")
			continue
		}
		for _, c := range found {
			if _, dup := seen[c.VideoID]; dup {
				continue
			}
			seen[c.VideoID] = struct{}{}
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	evaluations, evalErr := s.planner.EvaluateVideos(ctx, candidates)

	ingested := 0
	for _, e := range evaluations {
		if !worthIngesting(e) {
			continue
		}
		if _, err := s.IngestCandidate(ctx, candidates[e.CandidateIndex]); err != nil {
			if errors.Is(err, models.ErrDuplicateSource) {
				continue
			}
			s.logger.Warn().Str("source_id", candidates[e.CandidateIndex].VideoID).Err(err).Msg("ingest failed")
			continue
		}
		ingested++
	}

	if evalErr != nil {
		return ingested, fmt.Errorf("evaluate candidates: %w", evalErr)
	}
	return ingested, nil
}

// worthIngesting: явный YES либо уверенный MAYBE.
func worthIngesting(e models.Evaluation) bool {
	if e.Recommendation == models.RecommendYes {
		return true
	}
	return e.Recommendation == models.RecommendMaybe && e.Score >= domain.RejectThreshold
}

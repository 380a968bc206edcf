package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// JobStatusChanged is appended to the outbox on every status transition and
// is the contract the review UI and publish step consume from kafka.
type JobStatusChanged struct {
	eventID    uuid.UUID
	jobID      uuid.UUID
	sourceID   string
	from       domain.Status
	to         domain.Status
	occurredAt time.Time
}

func NewJobStatusChanged(jobID uuid.UUID, sourceID string, from, to domain.Status) *JobStatusChanged {
	return &JobStatusChanged{
		eventID:    uuid.New(),
		jobID:      jobID,
		sourceID:   sourceID,
		from:       from,
		to:         to,
		occurredAt: time.Now(),
	}
}

// Реализация интерфейса DomainEvent
func (e *JobStatusChanged) EventID() uuid.UUID     { return e.eventID }
func (e *JobStatusChanged) EventType() string      { return "JobStatusChanged" }
func (e *JobStatusChanged) AggregateID() uuid.UUID { return e.jobID }
func (e *JobStatusChanged) OccurredAt() time.Time  { return e.occurredAt }

// Геттеры для payload
func (e *JobStatusChanged) From() domain.Status { return e.from }
func (e *JobStatusChanged) To() domain.Status   { return e.to }

// Кастомная JSON сериализация
func (e *JobStatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID     `json:"event_id"`
		JobID      uuid.UUID     `json:"job_id"`
		SourceID   string        `json:"source_id"`
		From       domain.Status `json:"from"`
		To         domain.Status `json:"to"`
		OccurredAt time.Time     `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		JobID:      e.jobID,
		SourceID:   e.sourceID,
		From:       e.from,
		To:         e.to,
		OccurredAt: e.occurredAt,
	})
}

package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

type IngestRequest struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Channel string `json:"channel"`
}

func clientCandidate(req IngestRequest) clients.VideoCandidate {
	return clients.VideoCandidate{
		VideoID: req.VideoID,
		Title:   req.Title,
		Channel: req.Channel,
	}
}

type DiscoverRequest struct {
	Topic    string `json:"topic"`
	Queries  int    `json:"queries"`
	PerQuery int    `json:"per_query"`
}

type DiscoverResponse struct {
	Ingested int `json:"ingested"`
}

type JobResponse struct {
	ID             uuid.UUID `json:"id"`
	SourceID       string    `json:"source_id"`
	Title          string    `json:"title"`
	Channel        string    `json:"channel"`
	Status         string    `json:"status"`
	RetryCount     int       `json:"retry_count"`
	QualityScore   *int      `json:"quality_score,omitempty"`
	ReviewPriority string    `json:"review_priority,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toJobResponse(j *models.JobRecord) JobResponse {
	resp := JobResponse{
		ID:           j.ID,
		SourceID:     j.SourceID,
		Title:        j.Title,
		Channel:      j.Channel,
		Status:       string(j.Status),
		RetryCount:   j.RetryCount,
		QualityScore: j.QualityScore,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
	if j.ReviewPriority != nil {
		resp.ReviewPriority = string(*j.ReviewPriority)
	}
	return resp
}

func toJobResponses(jobs []*models.JobRecord) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out
}

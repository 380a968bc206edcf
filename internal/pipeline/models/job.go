package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
)

// JobRecord is the lifecycle of one crawled video: a single row owned by the
// pipeline, mutated only by stage handlers and review operations.
type JobRecord struct {
	ID       uuid.UUID `db:"id"`
	SourceID string    `db:"source_id"` // внешний id ролика на платформе-источнике
	Title    string    `db:"title"`
	Channel  string    `db:"channel"`

	Status     domain.Status `db:"status"`
	RetryCount int           `db:"retry_count"`

	QualityScore   *int             `db:"quality_score"`   // set after scoring, [0,100]
	ReviewPriority *domain.Priority `db:"review_priority"` // set iff status = pending_approval

	VideoKey           string             `db:"video_key"` // blob storage key of the raw video
	Transcript         string             `db:"transcript"`
	TranscriptSegments TranscriptSegments `db:"transcript_segments"`
	Segments           Segments           `db:"segments"`
	EditPlan           *EditPlan          `db:"edit_plan"`
	Metadata           *VideoMetadata     `db:"metadata"`
	Quiz               *Quiz              `db:"quiz"`

	ErrorMessage string `db:"error_message"`

	Version   int64     `db:"version"` // optimistic lock
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	UpdatedBy string    `db:"updated_by"`
}

// Active reports whether the job still occupies its source id: one active
// job per source id is the ingestion dedup invariant.
func (j *JobRecord) Active() bool {
	return !domain.IsTerminal(j.Status)
}

// TranscriptSegment is one timed span of recognized speech.
type TranscriptSegment struct {
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

type TranscriptSegments []TranscriptSegment

// Segment is a candidate highlight interval extracted from the transcript.
type Segment struct {
	StartMs  int64    `json:"start_ms"`
	EndMs    int64    `json:"end_ms"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"`
}

type Segments []Segment

// Clip is one cut of an edit plan, ordered by OrderIndex.
type Clip struct {
	OrderIndex int   `json:"order_index"`
	StartMs    int64 `json:"start_ms"`
	EndMs      int64 `json:"end_ms"`
}

func (c Clip) DurationMs() int64 {
	d := c.EndMs - c.StartMs
	if d < 0 {
		return 0
	}
	return d
}

// EditPlan describes how to assemble a short-form video out of clips.
// An empty plan (no clips, strategy "none") is the valid "nothing worth
// clipping" signal.
type EditPlan struct {
	Strategy        string `json:"strategy"`
	TotalDurationMs int64  `json:"total_duration_ms"`
	Clips           []Clip `json:"clips"`
}

// VideoMetadata is the AI-generated publish payload.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
}

// Recommendation is the verdict of a candidate evaluation.
type Recommendation string

const (
	RecommendYes   Recommendation = "YES"
	RecommendMaybe Recommendation = "MAYBE"
	RecommendNo    Recommendation = "NO"
)

// Evaluation rates one crawl candidate, referenced by its position in the
// request batch.
type Evaluation struct {
	CandidateIndex int            `json:"candidate_index"`
	Recommendation Recommendation `json:"recommendation"`
	Score          int            `json:"score"`
	Reasoning      string         `json:"reasoning"`
}

// QuizQuestion is one multiple-choice question generated from a transcript.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
	Explanation string   `json:"explanation,omitempty"`
}

type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

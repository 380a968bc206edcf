// Package clients declares the external collaborators the pipeline core
// depends on. Implementations live under subpackages or outside this repo;
// the core only ever sees these interfaces.
package clients

import (
	"context"
	"io"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// VideoCandidate is a search hit on the source platform, consumed as
// evaluation input.
type VideoCandidate struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	ViewCount   int64  `json:"view_count"`
}

type VideoSourceClient interface {
	Search(ctx context.Context, query string, limit int) ([]VideoCandidate, error)
	// Download fetches the video and returns a local file path.
	Download(ctx context.Context, videoID string) (string, error)
}

type TranscriptionResult struct {
	Text     string
	Segments models.TranscriptSegments
}

type TranscriptionClient interface {
	Transcribe(ctx context.Context, audioRef string) (*TranscriptionResult, error)
}

// GenerativeTextClient is the single capability the orchestrator wraps.
// The handle may hold live provider state; Close releases it at shutdown.
type GenerativeTextClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
	Close() error
}

// BlobStorage stores raw videos, clips and thumbnails by opaque key.
// The pipeline never interprets the bytes.
type BlobStorage interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

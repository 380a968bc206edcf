package stage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// TranscribeStage прогоняет видео через speech-to-text. Клиенту нужен
// локальный файл, поэтому blob сначала выгружается во временный.
// crawled -> transcribed.
type TranscribeStage struct {
	transcriber clients.TranscriptionClient
	storage     clients.BlobStorage
}

func NewTranscribeStage(transcriber clients.TranscriptionClient, storage clients.BlobStorage) *TranscribeStage {
	return &TranscribeStage{transcriber: transcriber, storage: storage}
}

func (s *TranscribeStage) Name() string        { return "transcribe" }
func (s *TranscribeStage) From() domain.Status { return domain.Crawled }

func (s *TranscribeStage) Execute(ctx context.Context, job *models.JobRecord) error {
	localPath, err := s.fetchVideo(ctx, job.VideoKey)
	if err != nil {
		return err
	}
	defer os.Remove(localPath)

	res, err := s.transcriber.Transcribe(ctx, localPath)
	if err != nil {
		return classifyExternal("transcribe", err)
	}
	if res.Text == "" {
		// без речи резать нечего; ретраить бессмысленно
		return fmt.Errorf("transcription produced no speech for %s", job.VideoKey)
	}

	job.Transcript = res.Text
	job.TranscriptSegments = res.Segments
	job.Status = domain.Transcribed
	return nil
}

// fetchVideo выгружает blob во временный файл и возвращает его путь.
// Удаление файла — на вызывающем.
func (s *TranscribeStage) fetchVideo(ctx context.Context, key string) (string, error) {
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		return "", classifyExternal("blob get", err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "transcribe-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create temp video: %w", err)
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", classifyExternal("blob read", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp video: %w", err)
	}
	return tmp.Name(), nil
}

package stage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

// CrawlStage скачивает исходное видео и кладет его в blob storage.
// pending -> crawled.
type CrawlStage struct {
	source  clients.VideoSourceClient
	storage clients.BlobStorage
}

func NewCrawlStage(source clients.VideoSourceClient, storage clients.BlobStorage) *CrawlStage {
	return &CrawlStage{source: source, storage: storage}
}

func (s *CrawlStage) Name() string        { return "crawl" }
func (s *CrawlStage) From() domain.Status { return domain.Pending }

func (s *CrawlStage) Execute(ctx context.Context, job *models.JobRecord) error {
	localPath, err := s.source.Download(ctx, job.SourceID)
	if err != nil {
		return classifyExternal("download", err)
	}
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open downloaded video: %w", err)
	}
	defer f.Close()

	key := "raw/" + job.ID.String() + ".mp4"
	if err := s.storage.Put(ctx, key, f); err != nil {
		return classifyExternal("blob put", err)
	}

	job.VideoKey = key
	job.Status = domain.Crawled
	return nil
}

// classifyExternal wraps an external-call failure as transient unless the
// error already carries its own classification.
func classifyExternal(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrQuotaExceeded) || domain.IsTransient(err) {
		return err
	}
	return domain.Transient(op, err)
}

// Package ytdlp implements clients.VideoSourceClient by shelling out to the
// yt-dlp binary.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
)

type Config struct {
	// Binary overrides the yt-dlp executable name, default "yt-dlp".
	Binary string
	// WorkDir receives downloaded files; created on demand.
	WorkDir string
	Logger  zerolog.Logger
}

type Client struct {
	binary  string
	workDir string
	logger  zerolog.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}
	return &Client{
		binary:  cfg.Binary,
		workDir: cfg.WorkDir,
		logger:  cfg.Logger.With().Str("component", "ytdlp_client").Logger(),
	}, nil
}

// CheckDependencies fails fast at startup when the binary is missing.
func (c *Client) CheckDependencies() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", c.binary)
	}
	return nil
}

type searchHit struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	Uploader    string `json:"uploader"`
	ViewCount   int64  `json:"view_count"`
}

// Search использует псевдо-URL ytsearchN:query; каждая строка stdout —
// отдельный JSON-объект ролика.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]clients.VideoCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	args := []string{
		"--dump-json",
		"--flat-playlist",
		"--no-download",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	}

	stdout, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var out []clients.VideoCandidate
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var hit searchHit
		if err := json.Unmarshal(line, &hit); err != nil {
			c.logger.Warn().Err(err).Msg("skipping unparseable search hit")
			continue
		}
		channel := hit.Channel
		if channel == "" {
			channel = hit.Uploader
		}
		out = append(out, clients.VideoCandidate{
			VideoID:     hit.ID,
			Title:       hit.Title,
			Description: hit.Description,
			Channel:     channel,
			ViewCount:   hit.ViewCount,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan search output: %w", err)
	}
	return out, nil
}

// Download fetches one video into the work dir and returns the local path.
func (c *Client) Download(ctx context.Context, videoID string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", fmt.Errorf("video id is required")
	}
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}

	target := filepath.Join(c.workDir, videoID+".mp4")
	args := []string{
		"--no-playlist",
		"--restrict-filenames",
		"-f", "mp4/bestvideo*+bestaudio/best",
		"-o", target,
		videoID,
	}

	if _, err := c.run(ctx, args); err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("download finished but %s is missing: %w", target, err)
	}
	return target, nil
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %w: %s", c.binary, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

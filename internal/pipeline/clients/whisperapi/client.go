// Package whisperapi implements clients.TranscriptionClient against a
// whisper-compatible transcription HTTP endpoint.
package whisperapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/clients"
	"github.com/romariotrain/clip-pipeline/internal/pipeline/models"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	HTTPTimeout time.Duration
	Logger      zerolog.Logger
}

func validateConfig(cfg Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if cfg.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.HTTPTimeout <= 0 {
		// Транскрипция длинных роликов — минуты, не секунды.
		cfg.HTTPTimeout = 10 * time.Minute
	}
}

type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
	baseURL    string
	apiKey     string
	model      string
}

func New(cfg Config) (*Client, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid whisper config: %w", err)
	}
	setDefaults(&cfg)

	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     cfg.Logger.With().Str("component", "whisper_client").Logger(),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}, nil
}

type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe uploads the media file at audioRef and returns the recognized
// text with per-segment timings.
func (c *Client) Transcribe(ctx context.Context, audioRef string) (*clients.TranscriptionResult, error) {
	f, err := os.Open(audioRef)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(audioRef))
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}
	_ = writer.WriteField("model", c.model)
	_ = writer.WriteField("response_format", "verbose_json")
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read transcription response: %w", err)
	}

	var parsed verboseTranscription
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode transcription response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("transcription status %d: %s", resp.StatusCode, msg)
	}

	result := &clients.TranscriptionResult{Text: strings.TrimSpace(parsed.Text)}
	for _, s := range parsed.Segments {
		result.Segments = append(result.Segments, models.TranscriptSegment{
			StartMs: int64(s.Start * 1000),
			EndMs:   int64(s.End * 1000),
			Text:    strings.TrimSpace(s.Text),
		})
	}
	return result, nil
}

// Package openai implements clients.GenerativeTextClient over the
// chat-completions HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-pipeline/internal/pipeline/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	HTTPTimeout time.Duration
	Logger      zerolog.Logger
}

func validateConfig(cfg Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return fmt.Errorf("model is required")
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 90 * time.Second
	}
}

type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
	apiKey     string
	baseURL    string
	model      string
}

func New(cfg Config) (*Client, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid openai config: %w", err)
	}
	setDefaults(&cfg)

	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     cfg.Logger.With().Str("component", "openai_client").Logger(),
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if quotaStatus(resp.StatusCode, parsed) {
			return "", domain.ErrQuotaExceeded
		}
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("chat completion status %d: %s", resp.StatusCode, msg)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// quotaStatus: 429 и insufficient_quota считаем исчерпанием квоты,
// остальные ошибки провайдера — обычные.
func quotaStatus(status int, resp chatResponse) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if resp.Error == nil {
		return false
	}
	return resp.Error.Type == "insufficient_quota" || resp.Error.Code == "insufficient_quota"
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Package ai implements the drafting service client over the Anthropic
// Messages API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nhle/mailcache/internal/drafting"
	"github.com/nhle/mailcache/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// maxErrorBody caps how much of an error response is kept in the error.
const maxErrorBody = 512

// Client generates summaries, replies and analyses for messages.
type Client struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	log       *zap.Logger
}

var _ drafting.Drafter = (*Client)(nil)

// NewClient creates a client from configuration.
func NewClient(apiKey string, cfg model.AIConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}

	httpClient := &http.Client{}
	if cfg.TimeoutSec > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	return &Client{
		apiKey:    apiKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, 1),
		log:       log,
	}
}

// Summarize returns a short summary of msg.
func (c *Client) Summarize(ctx context.Context, msg model.Message) (string, error) {
	return c.complete(ctx, summarySystem, messagePrompt(msg, summaryBodyLimit))
}

// Reply drafts a reply to msg that follows intent.
func (c *Client) Reply(ctx context.Context, msg model.Message, intent string) (string, error) {
	return c.complete(ctx, replySystem, replyPrompt(msg, intent))
}

// Sentiment classifies msg as one of the Sentiment* labels.
func (c *Client) Sentiment(ctx context.Context, msg model.Message) (string, error) {
	text, err := c.complete(ctx, sentimentSystem, messagePrompt(msg, sentimentBodyLimit))
	if err != nil {
		return "", err
	}
	return normalizeSentiment(text), nil
}

// ActionItems lists the tasks msg asks of the reader.
func (c *Client) ActionItems(ctx context.Context, msg model.Message) (string, error) {
	return c.complete(ctx, actionItemsSystem, messagePrompt(msg, actionItemsBodyLimit))
}

// complete makes a single request to the Messages API and returns the
// concatenated text blocks.
func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrapf(drafting.ErrRateLimited, "waiting for request slot: %v", err)
	}

	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages: []apiMessage{{
			Role:    "user",
			Content: []apiContentBlock{{Type: "text", Text: prompt}},
		}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "marshaling request")
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", errors.Wrap(err, "creating request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(drafting.ErrUnavailable, "calling Claude API: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(drafting.ErrUnavailable, "reading response: %v", err)
	}

	c.log.Debug("drafting request done",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, respBody)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", errors.Wrapf(drafting.ErrUnavailable, "decoding response: %v", err)
	}

	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", errors.Wrap(drafting.ErrUnavailable, "response has no text")
	}
	return text, nil
}

// statusError maps a non-200 response to a drafting error kind.
func statusError(status int, body []byte) error {
	kind := drafting.ErrUnavailable
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = drafting.ErrAuth
	case http.StatusTooManyRequests:
		kind = drafting.ErrRateLimited
	}

	var apiErr apiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return errors.Wrapf(kind, "API error (%d): %s", status, apiErr.Error.Message)
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return errors.Wrapf(kind, "API error (%d): %s", status, string(body))
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

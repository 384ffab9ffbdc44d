// Package extraction derives fields of study, a concept graph and a concept
// map diagram from article text using an OpenAI-compatible chat service.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/persistorai/conceptmap/internal/metrics"
	"github.com/persistorai/conceptmap/internal/models"
)

const (
	defaultTimeout     = 120 * time.Second
	defaultBackoffBase = 500 * time.Millisecond
	maxReplyBytes      = 10 << 20 // 10 MB
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient sends a conversation and returns the assistant's reply text.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ChatConfig configures an OpenAIClient.
type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  uint64
	BackoffBase time.Duration
}

// OpenAIClient is a ChatClient for any /v1/chat/completions endpoint.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxRetries  uint64
	backoffBase time.Duration
	client      *http.Client
	breaker     *breaker
}

// NewOpenAIClient creates an OpenAIClient from cfg.
func NewOpenAIClient(cfg ChatConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	backoff := cfg.BackoffBase
	if backoff <= 0 {
		backoff = defaultBackoffBase
	}

	return &OpenAIClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxRetries:  cfg.MaxRetries,
		backoffBase: backoff,
		client:      &http.Client{Timeout: timeout},
		breaker:     newBreaker(),
	}
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// statusError is a non-200 reply from the chat service.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chat completion API returned status %d", e.code)
}

// Chat posts messages and returns choices[0].message.content. Failures wrap
// models.ErrUpstreamUnavailable. Consecutive failures open a circuit breaker
// that fails fast until the cooldown passes.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := c.breaker.allow(); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}

	reply, err := c.chatWithRetry(ctx, messages)
	if err != nil {
		if ctx.Err() == nil {
			c.breaker.recordFailure()
		}

		return "", fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
	}

	c.breaker.recordSuccess()

	return reply, nil
}

func (c *OpenAIClient) chatWithRetry(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	var reply string

	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoffBase))

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		out, err := c.doChat(ctx, body)
		if err != nil {
			var se *statusError
			if ctx.Err() == nil && (!errors.As(err, &se) || retryableStatus(se.code)) {
				return retry.RetryableError(err)
			}

			return err
		}

		reply = out

		return nil
	})

	return reply, err
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *OpenAIClient) doChat(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("extraction", "error").Inc()

		return "", fmt.Errorf("calling chat completion API: %w", err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues("extraction", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.

		return "", &statusError{code: resp.StatusCode}
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	return result.Choices[0].Message.Content, nil
}

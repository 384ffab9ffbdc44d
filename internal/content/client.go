// Package content fetches raw articles from the external content provider.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/metrics"
	"github.com/persistorai/conceptmap/internal/models"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultBackoffBase = 250 * time.Millisecond
	maxBodyBytes       = 10 << 20 // 10 MB
)

// Config configures a content provider Client.
type Config struct {
	BaseURL    string
	Host       string
	APIKey     string
	Timeout    time.Duration
	MaxRetries uint64

	// BackoffBase is the first retry delay; it doubles on each attempt.
	BackoffBase time.Duration
}

// Client talks to a RapidAPI-style article provider.
type Client struct {
	baseURL     string
	host        string
	apiKey      string
	maxRetries  uint64
	backoffBase time.Duration
	client      *http.Client
	log         *logrus.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config, log *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	backoff := cfg.BackoffBase
	if backoff <= 0 {
		backoff = defaultBackoffBase
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		host:        cfg.Host,
		apiKey:      cfg.APIKey,
		maxRetries:  cfg.MaxRetries,
		backoffBase: backoff,
		client:      &http.Client{Timeout: timeout},
		log:         log,
	}
}

type contentResponse struct {
	Content *string `json:"content"`
}

type infoResponse struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Exists reports whether the provider knows the article. Any non-200 answer
// counts as "does not exist". A transport failure that survives retries
// matches models.ErrUpstreamUnavailable.
func (c *Client) Exists(ctx context.Context, articleID string) (bool, error) {
	_, err := c.get(ctx, articlePath(articleID))
	if err == nil {
		return true, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	var se *statusError
	if !errors.As(err, &se) {
		c.log.WithError(err).WithField("article_id", articleID).Warn("content provider unreachable")

		return false, fmt.Errorf("%w: checking %q: %w", models.ErrUpstreamUnavailable, articleID, err)
	}

	return false, nil
}

// FetchContent returns the article's body text.
func (c *Client) FetchContent(ctx context.Context, articleID string) (string, error) {
	body, err := c.get(ctx, articlePath(articleID)+"/content")
	if err != nil {
		return "", fmt.Errorf("%w: fetching content for %q: %w", models.ErrUpstreamUnavailable, articleID, err)
	}

	var resp contentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding content for %q: %w", models.ErrUpstreamUnavailable, articleID, err)
	}

	if resp.Content == nil {
		return "", fmt.Errorf("%w: content response for %q has no content field", models.ErrUpstreamUnavailable, articleID)
	}

	return *resp.Content, nil
}

// FetchInfo returns the article's title and canonical URL.
func (c *Client) FetchInfo(ctx context.Context, articleID string) (models.ArticleInfo, error) {
	body, err := c.get(ctx, articlePath(articleID))
	if err != nil {
		return models.ArticleInfo{}, fmt.Errorf("%w: fetching info for %q: %w", models.ErrUpstreamUnavailable, articleID, err)
	}

	var resp infoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.ArticleInfo{}, fmt.Errorf("%w: decoding info for %q: %w", models.ErrUpstreamUnavailable, articleID, err)
	}

	return models.ArticleInfo(resp), nil
}

func articlePath(articleID string) string {
	return "/article/" + url.PathEscape(articleID)
}

// statusError is a non-200 reply from the provider.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("content provider returned status %d", e.code)
}

// get performs a GET with bounded exponential retries on transient failures.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte

	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoffBase))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		out, err := c.getOnce(ctx, path)
		if err != nil {
			if isTransient(ctx, err) {
				return retry.RetryableError(err)
			}

			return err
		}

		body = out

		return nil
	})

	return body, err
}

func (c *Client) getOnce(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("content", "error").Inc()

		return nil, fmt.Errorf("calling content provider: %w", err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues("content", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.

		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading content provider response: %w", err)
	}

	return body, nil
}

// isTransient reports whether a failed request is worth retrying: rate
// limiting, gateway errors and transport failures, but never a cancelled
// caller.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	return true
}

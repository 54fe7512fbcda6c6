// Package catalog provides a client for the remote catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osanai/playdeck/internal/domain/track"
)

// ErrNoStream indicates that the catalog has no playable URL for the item.
var ErrNoStream = errors.New("catalog returned no stream URL")

// streamCacheEntry represents a cached stream resolution.
type streamCacheEntry struct {
	url       string
	expiresAt time.Time
}

// Client is a catalog service client. It implements the session's stream
// resolution contract: one item source reference in, one playable URL out.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration

	// Cache for resolved stream URLs
	streamCache map[string]*streamCacheEntry
	cacheMu     sync.RWMutex
}

// Config represents catalog client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// streamResponse represents the response from the stream endpoint.
type streamResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"` // Seconds the URL stays valid (0 = no expiry)
}

// apiError represents an error response from the catalog service.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: timeout},
		maxRetries:  3,
		retryDelay:  time.Second,
		streamCache: make(map[string]*streamCacheEntry),
	}, nil
}

// Resolve produces a playable stream URL for the track's source reference.
// Implements the session resolver contract: single-shot from the caller's
// point of view; transport-level failures are retried internally.
func (c *Client) Resolve(ctx context.Context, trk track.Track) (string, error) {
	if trk.Source == "" {
		return "", errors.Newf("track %s has no source reference", trk.ID)
	}

	// Check cache first
	c.cacheMu.RLock()
	if entry, ok := c.streamCache[trk.Source]; ok {
		if entry.expiresAt.IsZero() || time.Now().Before(entry.expiresAt) {
			c.cacheMu.RUnlock()
			zlog.Debug().Msgf("catalog: stream cache hit: source=%s", trk.Source)
			return entry.url, nil
		}
	}
	c.cacheMu.RUnlock()

	var resolved streamResponse
	err := c.retry(ctx, func() error {
		return c.fetchStream(ctx, trk.Source, &resolved)
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve stream for %s", trk.ID)
	}
	if resolved.URL == "" {
		return "", errors.Wrapf(ErrNoStream, "source %s", trk.Source)
	}

	// Cache the result
	entry := &streamCacheEntry{url: resolved.URL}
	if resolved.ExpiresIn > 0 {
		entry.expiresAt = time.Now().Add(time.Duration(resolved.ExpiresIn) * time.Second)
	}
	c.cacheMu.Lock()
	c.streamCache[trk.Source] = entry
	c.cacheMu.Unlock()

	return resolved.URL, nil
}

// fetchStream performs one stream endpoint request.
func (c *Client) fetchStream(ctx context.Context, source string, out *streamResponse) error {
	reqURL := c.baseURL + "/v1/items/" + url.PathEscape(source) + "/stream"

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return errors.Newf("catalog API error %d: %s (status %d)", apiErr.Code, apiErr.Message, resp.StatusCode)
		}
		return errors.Newf("catalog returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

// retry executes fn up to maxRetries times with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.CombineErrors(ctx.Err(), lastErr)
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit and server errors are retryable; client errors are not.
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "status 500") ||
		strings.Contains(errStr, "status 502") ||
		strings.Contains(errStr, "status 503") ||
		strings.Contains(errStr, "failed to send request")
}

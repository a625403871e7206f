package edgar

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/filingdash/filingdash/internal/model"
	"github.com/filingdash/filingdash/internal/util"
)

// SEC endpoint roots.
const (
	BaseURL     = "https://data.sec.gov"
	ArchivesURL = "https://www.sec.gov/Archives"
)

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// retryableStatus lists the transient status codes retried on GET requests.
// 403 is included because SEC answers it for unidentified or throttled
// clients, and a paced retry often clears it.
var retryableStatus = map[int]bool{
	http.StatusForbidden:           true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// StatusError reports a non-2xx response after retries are exhausted.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusForbidden {
		return fmt.Sprintf("unexpected status: %s (SEC rejects unidentified clients; check the User-Agent configuration)", e.Status)
	}
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// Client issues GET requests to the SEC endpoints with the mandatory
// identifying headers, bounded timeouts, and retry on transient failures.
// Every call is idempotent; nothing beyond network I/O happens here.
type Client struct {
	meta        *http.Client
	docs        *http.Client
	userAgent   string
	maxRetries  int
	backoffBase time.Duration
	baseURL     string
	archivesURL string
	robots      *util.RobotsGate
}

// NewClient creates a client from the HTTP configuration.
func NewClient(cfg model.HTTPConfig) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 4
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 600 * time.Millisecond
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	archivesURL := cfg.ArchivesURL
	if archivesURL == "" {
		archivesURL = ArchivesURL
	}

	var robots *util.RobotsGate
	if cfg.CheckRobots {
		robots = util.NewRobotsGate(cfg.UserAgent, cfg.MetaTimeout)
	}

	return &Client{
		meta:        &http.Client{Timeout: cfg.MetaTimeout},
		docs:        &http.Client{Timeout: cfg.DocTimeout},
		userAgent:   cfg.UserAgent,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		baseURL:     baseURL,
		archivesURL: archivesURL,
		robots:      robots,
	}
}

// GetJSON fetches a metadata endpoint and decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, c.meta, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// GetDocument fetches a filing document from the archives host.
func (c *Client) GetDocument(ctx context.Context, url string) ([]byte, error) {
	if c.robots != nil && !c.robots.Allowed(ctx, url) {
		return nil, fmt.Errorf("fetch %s: disallowed by robots.txt", url)
	}
	return c.get(ctx, c.docs, url)
}

// get runs the retry loop: up to maxRetries attempts with a multiplicative
// backoff that doubles per attempt. The last failure is propagated rather
// than silently returning empty data.
func (c *Client) get(ctx context.Context, httpClient *http.Client, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase << uint(attempt-1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			fetchSleepFunc(backoff)
		}

		body, err := c.getOnce(ctx, httpClient, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !retryableStatus[statusErr.Code] {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (c *Client) getOnce(ctx context.Context, httpClient *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	// Setting Accept-Encoding by hand disables the transport's transparent
	// decompression, so the encodings it advertises are handled here.
	var reader io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer func() { _ = fl.Close() }()
		reader = fl
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

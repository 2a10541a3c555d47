package cdx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultHost is the Wayback Machine host serving both the CDX API and
// archived snapshots.
const DefaultHost = "web.archive.org"

// Options configures the CDX client.
type Options struct {
	// Scheme is "https" or "http".
	// Default: https
	Scheme string

	// Host is the archive host.
	// Default: web.archive.org
	Host string

	// Timeout for a single index request.
	// Default: 120s
	Timeout time.Duration

	// RetryAttempts is the maximum number of attempts per request.
	// Default: 3
	RetryAttempts int

	// RetryDelay is the fixed delay between attempts.
	// Default: 5s
	RetryDelay time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Scheme:        "https",
		Host:          DefaultHost,
		Timeout:       120 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    5 * time.Second,
	}
}

// StatusError is a non-2xx response from the index API.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cdx: unexpected status: %s", e.Status)
}

// Client queries the CDX index API.
type Client struct {
	client *http.Client
	opts   Options
	log    *slog.Logger
}

// NewClient creates a new CDX client with the given options.
func NewClient(opts Options, log *slog.Logger) *Client {
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Timeout == 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Second
	}

	return &Client{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		log:    log,
	}
}

// FetchIndex retrieves the archive index for a domain. Results are
// collapsed by URL key, so each archived URL appears once with its
// capture window and variant counts. Only captures with one of the
// given status codes are considered.
//
// The returned header list is the field order the API answered with,
// normally identical to IndexFields.
func (c *Client) FetchIndex(ctx context.Context, domain string, limit int, statusCodes []int) ([]Record, []string, error) {
	q := url.Values{}
	q.Set("url", domain)
	q.Set("matchType", "prefix")
	q.Set("output", "json")
	q.Set("fl", strings.Join(IndexFields, ","))
	q.Set("collapse", "urlkey")
	q.Set("limit", strconv.Itoa(limit))
	for _, code := range statusCodes {
		q.Add("filter", "statuscode:"+strconv.Itoa(code))
	}

	endpoint := fmt.Sprintf("%s://%s/cdx/search/cdx?%s", c.opts.Scheme, c.opts.Host, q.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, nil, fmt.Errorf("cdx: parse index response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	headers := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, recordFromRow(headers, row))
	}

	c.log.Debug("fetched archive index", "domain", domain, "records", len(records))
	return records, headers, nil
}

// get performs a GET with the client's retry policy: transport errors
// and 5xx responses are retried with a fixed delay, everything else
// fails immediately.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 1 {
			c.log.Debug("retrying index request", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.opts.RetryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("cdx: create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode, Status: resp.Status}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		return body, nil
	}

	return nil, fmt.Errorf("cdx: request failed after %d attempts: %w", c.opts.RetryAttempts, lastErr)
}

// SnapshotURL builds the URL of an archived capture. The im_ modifier
// asks the archive for the raw payload without the toolbar injection.
func SnapshotURL(scheme, host, timestamp, original string) string {
	return fmt.Sprintf("%s://%s/web/%sim_/%s", scheme, host, timestamp, original)
}

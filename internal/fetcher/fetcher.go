package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"gocloud.dev/blob"

	"github.com/CyberFazaN/wayback-fetcher/internal/progress"
)

// MaxWorkers is the upper bound on pool size.
const MaxWorkers = 64

// Options configures the fetch pool.
type Options struct {
	// Workers is the number of parallel download workers (1-64).
	Workers int

	// Retries is the maximum number of attempts per task (>= 1).
	Retries int

	// RetryDelay is the fixed sleep between attempts of one task. It
	// blocks only the owning worker.
	RetryDelay time.Duration

	// Reporter is an optional progress reporter.
	Reporter *progress.Reporter

	// Logger receives per-task debug and warning events.
	Logger *slog.Logger

	// Client overrides the HTTP client, mainly for tests. The default
	// client carries no global timeout; attempts are bounded by the
	// task's own timeout.
	Client *http.Client
}

// StatusError is a non-2xx response from a download source.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: unexpected status: %s", e.Status)
}

// terminalError wraps failures that must never be retried regardless of
// their underlying type.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// retryable reports whether an attempt failure is worth retrying:
// request timeouts, connection-level errors and 5xx responses are;
// 4xx and anything explicitly terminal are not.
func retryable(err error) bool {
	var te *terminalError
	if errors.As(err, &te) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	// Transport-level failure: timeout, refused connection, reset.
	return true
}

// Fetch downloads every task into the bucket with a bounded worker
// pool and returns one result per task, index-aligned with the input.
// It blocks until all tasks have finished; a failing task never cancels
// the others.
func Fetch(ctx context.Context, bucket *blob.Bucket, tasks []Task, opts Options) []Result {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Workers > MaxWorkers {
		opts.Workers = MaxWorkers
	}
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: opts.Workers,
				MaxIdleConns:        opts.Workers * 2,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	results := make([]Result, len(tasks))

	workCh := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				results[idx] = fetchOne(ctx, client, bucket, tasks[idx], opts)
			}
		}()
	}

	for i := range tasks {
		workCh <- i
	}
	close(workCh)

	wg.Wait()
	return results
}

// fetchOne runs the attempt loop for a single task.
func fetchOne(ctx context.Context, client *http.Client, bucket *blob.Bucket, t Task, opts Options) Result {
	if opts.Reporter != nil {
		opts.Reporter.TaskStarted()
	}

	var lastErr error
	attempt := 0
	for attempt < opts.Retries {
		attempt++

		data, err := fetchBytes(ctx, client, t)
		if err == nil {
			if werr := bucket.WriteAll(ctx, t.Key, data, nil); werr != nil {
				lastErr = fmt.Errorf("write %s: %w", t.Key, werr)
				break
			}

			sum := sha256.Sum256(data)
			opts.Logger.Debug("saved", "url", t.URL, "key", t.Key)
			if opts.Reporter != nil {
				opts.Reporter.TaskCompleted(int64(len(data)))
			}
			return Result{
				URL:      t.URL,
				Key:      t.Key,
				BaseKey:  t.BaseKey,
				Role:     t.Role,
				Sum:      hex.EncodeToString(sum[:]),
				Size:     int64(len(data)),
				Attempts: attempt,
				OK:       true,
			}
		}

		lastErr = err
		if attempt == opts.Retries || !retryable(err) {
			break
		}

		opts.Logger.Debug("retrying download", "url", t.URL, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(opts.RetryDelay):
			continue
		}
		break
	}

	opts.Logger.Warn("download failed", "url", t.URL, "attempts", attempt, "error", lastErr)
	if opts.Reporter != nil {
		opts.Reporter.TaskFailed()
	}
	return Result{
		URL:      t.URL,
		BaseKey:  t.BaseKey,
		Role:     t.Role,
		Attempts: attempt,
		Err:      fmt.Sprintf("%v, attempts: %d", lastErr, attempt),
	}
}

// fetchBytes performs one fetch attempt bounded by the task's timeout.
func fetchBytes(ctx context.Context, client *http.Client, t Task) ([]byte, error) {
	attemptCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, &terminalError{fmt.Errorf("create request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

package fetcher

import (
	"time"

	"github.com/CyberFazaN/wayback-fetcher/internal/cdx"
	"github.com/CyberFazaN/wayback-fetcher/internal/layout"
)

// RoleCurrent marks the variant fetched live from the origin rather
// than from the archive. Archive variants use their capture timestamp
// as the role.
const RoleCurrent = "current"

// Task is one file to download. Immutable once built.
type Task struct {
	// URL is the source to fetch.
	URL string

	// Key is the destination key in the output bucket.
	Key string

	// BaseKey is Key without the role suffix. Variants of the same URL
	// share it; the deduplicator groups on it.
	BaseKey string

	// Role identifies which variant this is: a 14-digit capture
	// timestamp or RoleCurrent.
	Role string

	// Timeout bounds each fetch attempt.
	Timeout time.Duration
}

// Result is the outcome of one task. OK is true iff the file was
// persisted and hashed, in which case Err is empty; otherwise Key and
// Sum are empty and Err carries the last error.
type Result struct {
	URL      string
	Key      string
	BaseKey  string
	Role     string
	Sum      string
	Size     int64
	Attempts int
	Err      string
	OK       bool
}

// BuildOptions configures task building for a set of target records.
type BuildOptions struct {
	// Scheme is "https" or "http", used for archive snapshot URLs.
	Scheme string

	// ArchiveHost is the archive host. Default: cdx.DefaultHost.
	ArchiveHost string

	// First, Last and Current select which variants to download.
	First, Last, Current bool

	// Structured mirrors URL hierarchies under Root instead of
	// flattening into single filenames.
	Structured bool

	// Root is the key prefix destination keys are built under.
	Root string

	// ArchiveTimeout bounds snapshot fetch attempts, OriginTimeout
	// bounds live origin fetch attempts.
	ArchiveTimeout time.Duration
	OriginTimeout  time.Duration
}

// BuildTasks expands target records into download tasks. Each record
// yields up to one task per selected variant; when a record has a
// single capture, the first and last variants are the same snapshot and
// only the first task is built.
func BuildTasks(records []cdx.Record, opts BuildOptions) []Task {
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.ArchiveHost == "" {
		opts.ArchiveHost = cdx.DefaultHost
	}

	var tasks []Task
	for _, r := range records {
		base := layout.Base(r.Original, opts.Root, opts.Structured)

		if opts.First {
			tasks = append(tasks, Task{
				URL:     cdx.SnapshotURL(opts.Scheme, opts.ArchiveHost, r.Timestamp, r.Original),
				Key:     layout.Resolve(r.Original, opts.Root, opts.Structured, r.Timestamp),
				BaseKey: base,
				Role:    r.Timestamp,
				Timeout: opts.ArchiveTimeout,
			})
		}
		if opts.Last && (!opts.First || r.EndTimestamp != r.Timestamp) {
			tasks = append(tasks, Task{
				URL:     cdx.SnapshotURL(opts.Scheme, opts.ArchiveHost, r.EndTimestamp, r.Original),
				Key:     layout.Resolve(r.Original, opts.Root, opts.Structured, r.EndTimestamp),
				BaseKey: base,
				Role:    r.EndTimestamp,
				Timeout: opts.ArchiveTimeout,
			})
		}
		if opts.Current {
			tasks = append(tasks, Task{
				URL:     r.Original,
				Key:     layout.Resolve(r.Original, opts.Root, opts.Structured, RoleCurrent),
				BaseKey: base,
				Role:    RoleCurrent,
				Timeout: opts.OriginTimeout,
			})
		}
	}
	return tasks
}

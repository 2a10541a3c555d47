// Package fetcher runs the download phase: a bounded pool of workers
// fetching archive snapshots and origin files into a bucket.
//
// # Tasks and results
//
// Every variant to download is one Task with its own URL, destination
// key and timeout. Tasks are independent; the pool makes no ordering
// guarantees, but every task gets exactly one Result and a failing task
// never cancels its siblings.
//
// # Retries
//
// A failed attempt is retried only when the failure looks transient:
// a request timeout, a connection-level error, or a 5xx response. The
// worker sleeps a fixed delay between attempts. Client errors (4xx) and
// write failures fail the task immediately.
//
// # Worker pool
//
// Workers receive task indices from a channel and each writes the
// result into its own slot of a pre-sized slice, so no locking is
// needed around result collection. Fetch returns only after every task
// has finished.
package fetcher

// Package progress provides progress reporting for download runs.
//
// This package outputs human-readable progress information to stderr,
// including completion percentage, per-task counters, and transfer
// speed.
//
// # Usage
//
//	reporter := progress.NewReporter(Options{
//	    TotalTasks: len(tasks),
//	    Workers:    cfg.Workers,
//	    Domain:     cfg.Domain,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as tasks run
//	reporter.TaskStarted()
//	reporter.TaskCompleted(size)
//
// # Output Format
//
//	[wayfetch] Downloading 1532 files for example.com | Workers: 8
//	[wayfetch] Progress: 45.2% | 687 ok | 5 failed | 8 in-progress | 832 pending | 1.13 GB | 1.2 MB/s
//	[wayfetch] Done: 1520 ok | 12 failed | 2.48 GB
//	[wayfetch] Total time: 18m 32s | Average speed: 2.28 MB/s
package progress

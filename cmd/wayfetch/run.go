package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gocloud.dev/blob/fileblob"

	"github.com/CyberFazaN/wayback-fetcher/internal/cdx"
	"github.com/CyberFazaN/wayback-fetcher/internal/config"
	"github.com/CyberFazaN/wayback-fetcher/internal/dedup"
	"github.com/CyberFazaN/wayback-fetcher/internal/fetcher"
	"github.com/CyberFazaN/wayback-fetcher/internal/filter"
	"github.com/CyberFazaN/wayback-fetcher/internal/progress"
	"github.com/CyberFazaN/wayback-fetcher/internal/report"
)

// filesPrefix is the key prefix downloaded files live under, keeping
// them apart from the metadata dumps at the bucket root.
const filesPrefix = "files"

func run(args []string, stdin io.Reader) int {
	_ = godotenv.Load()

	cfg := config.Default()

	if path := configPathFromArgs(args); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
		cfg = loaded
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	fs := flag.NewFlagSet("wayfetch", flag.ContinueOnError)

	fs.String("config", "", "Path to a YAML config file")

	for _, name := range []string{"l", "limit"} {
		fs.IntVar(&cfg.Limit, name, cfg.Limit, "Maximum number of index records to request")
	}
	extensions := fs.String("e", strings.Join(cfg.Extensions, ","), "Comma-separated list of file extensions to download")
	mimetypes := fs.String("m", strings.Join(cfg.Mimetypes, ","), "Comma-separated list of mimetypes to download")
	for _, name := range []string{"r", "regex"} {
		fs.StringVar(&cfg.Regex, name, cfg.Regex, "Regex matched against URL paths")
	}
	statusCodes := fs.String("sc", joinInts(cfg.StatusCodes), "Comma-separated list of HTTP status codes to index")

	for _, name := range []string{"df", "download-first"} {
		fs.BoolVar(&cfg.First, name, cfg.First, "Download the first archived version of each file")
	}
	for _, name := range []string{"dl", "download-last"} {
		fs.BoolVar(&cfg.Last, name, cfg.Last, "Download the last archived version of each file")
	}
	for _, name := range []string{"dc", "download-current"} {
		fs.BoolVar(&cfg.Current, name, cfg.Current, "Download the current version of each file from the live site")
	}
	downloadFirstLast := fs.Bool("dfl", false, "Shorthand for -df -dl")
	downloadWhole := fs.Bool("dw", false, "Shorthand for -df -dl -dc")

	for _, name := range []string{"s", "structured"} {
		fs.BoolVar(&cfg.Structured, name, cfg.Structured, "Mirror the site's directory structure instead of flat filenames")
	}
	for _, name := range []string{"t", "threads"} {
		fs.IntVar(&cfg.Workers, name, cfg.Workers, "Number of parallel download workers (1-64)")
	}

	bothTimeouts := fs.Duration("dt", 0, "Set both download timeouts at once")
	fs.DurationVar(&cfg.ArchiveTimeout, "dtw", cfg.ArchiveTimeout, "Timeout for archive snapshot downloads")
	fs.DurationVar(&cfg.OriginTimeout, "dto", cfg.OriginTimeout, "Timeout for live site downloads")
	for _, name := range []string{"dr", "retries"} {
		fs.IntVar(&cfg.Retries, name, cfg.Retries, "Maximum number of attempts per download")
	}
	fs.DurationVar(&cfg.RetryDelay, "drd", cfg.RetryDelay, "Delay between attempts of one download")

	for _, name := range []string{"dd", "deduplicate"} {
		fs.BoolVar(&cfg.Deduplicate, name, cfg.Deduplicate, "Delete redundant copies of identical content after downloading")
	}
	for _, name := range []string{"o", "output"} {
		fs.StringVar(&cfg.OutputDir, name, cfg.OutputDir, "Output directory (default output/<domain>_<date>)")
	}
	for _, name := range []string{"of", "format"} {
		fs.StringVar(&cfg.Format, name, cfg.Format, "Metadata format: csv, json or both")
	}
	fs.StringVar(&cfg.ArchiveHost, "archive-host", cfg.ArchiveHost, "Archive host")
	fs.StringVar(&cfg.Scheme, "scheme", cfg.Scheme, "URL scheme for archive requests")
	fs.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show download progress")
	for _, name := range []string{"v", "verbose"} {
		fs.BoolVar(&cfg.Verbose, name, cfg.Verbose, "Enable debug logging")
	}

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: wayfetch [options] <domain>

Fetch the Wayback Machine index for a domain, dump it as CSV/JSON
metadata, and optionally download archived and current versions of the
indexed files.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if fs.NArg() > 0 {
		cfg.Domain = fs.Arg(0)
	}
	if *downloadFirstLast {
		cfg.First, cfg.Last = true, true
	}
	if *downloadWhole {
		cfg.First, cfg.Last, cfg.Current = true, true, true
	}
	if *bothTimeouts > 0 {
		cfg.ArchiveTimeout = *bothTimeouts
		cfg.OriginTimeout = *bothTimeouts
	}
	cfg.Extensions = splitList(*extensions)
	cfg.Mimetypes = splitList(*mimetypes)

	codes, err := parseIntList(*statusCodes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: parse -sc: %v\n", err)
		return ExitInvalidArgs
	}
	cfg.StatusCodes = codes

	cfg.Normalize(time.Now())
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[wayfetch] Received interrupt, shutting down...")
		cancel()
	}()

	return fetchDomain(ctx, cfg, log, stdin)
}

func fetchDomain(ctx context.Context, cfg config.Config, log *slog.Logger, stdin io.Reader) int {
	bucket, err := fileblob.OpenBucket(cfg.OutputDir, &fileblob.Options{CreateDir: true})
	if err != nil {
		log.Error("open output directory", "dir", cfg.OutputDir, "error", err)
		return ExitStorageError
	}
	defer bucket.Close()

	client := cdx.NewClient(cdx.Options{
		Scheme:        cfg.Scheme,
		Host:          cfg.ArchiveHost,
		Timeout:       cfg.ArchiveTimeout,
		RetryAttempts: cfg.Retries,
		RetryDelay:    cfg.RetryDelay,
	}, log)

	log.Info("fetching archive index", "domain", cfg.Domain, "limit", cfg.Limit)
	records, headers, err := client.FetchIndex(ctx, cfg.Domain, cfg.Limit, cfg.StatusCodes)
	if err != nil {
		log.Error("fetch archive index", "domain", cfg.Domain, "error", err)
		return ExitIndexError
	}
	if len(records) == 0 {
		log.Info("the archive index is empty, nothing to do", "domain", cfg.Domain)
		return ExitSuccess
	}
	if len(headers) == 0 {
		headers = cdx.IndexFields
	}

	criteria := filter.Criteria{
		Extensions: cfg.Extensions,
		Mimetypes:  cfg.Mimetypes,
	}
	if cfg.Regex != "" {
		criteria.Pattern = regexp.MustCompile(cfg.Regex)
	}
	targets, multi := filter.Apply(records, criteria)

	formats, err := report.ParseFormats(cfg.Format)
	if err != nil {
		log.Error("parse format", "error", err)
		return ExitInvalidArgs
	}

	if err := report.Save(ctx, bucket, "full-index", headers, rows(records), formats); err != nil {
		log.Error("save index metadata", "error", err)
		return ExitStorageError
	}
	if !criteria.Empty() && len(targets) > 0 {
		if err := report.Save(ctx, bucket, "download-targets", headers, rows(targets), formats); err != nil {
			log.Error("save target metadata", "error", err)
			return ExitStorageError
		}
	}
	if len(multi) > 0 {
		if err := report.Save(ctx, bucket, "multiple-versions", headers, rows(multi), formats); err != nil {
			log.Error("save multi-version metadata", "error", err)
			return ExitStorageError
		}
	}

	log.Info("archive index saved",
		"records", len(records),
		"targets", len(targets),
		"multi_version", len(multi),
		"dir", cfg.OutputDir,
	)

	if !cfg.Download() {
		return ExitSuccess
	}
	if len(targets) == 0 {
		log.Warn("no records match the download filters, nothing to download")
		return ExitSuccess
	}
	if criteria.Empty() && !confirm(stdin, fmt.Sprintf("[wayfetch] No filters given: download all %d indexed files? [y/N] ", len(targets))) {
		log.Info("download cancelled")
		return ExitSuccess
	}

	tasks := fetcher.BuildTasks(targets, fetcher.BuildOptions{
		Scheme:         cfg.Scheme,
		ArchiveHost:    cfg.ArchiveHost,
		First:          cfg.First,
		Last:           cfg.Last,
		Current:        cfg.Current,
		Structured:     cfg.Structured,
		Root:           filesPrefix,
		ArchiveTimeout: cfg.ArchiveTimeout,
		OriginTimeout:  cfg.OriginTimeout,
	})

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			TotalTasks: len(tasks),
			Workers:    cfg.Workers,
			Domain:     cfg.Domain,
		})
		reporter.Start()
	}

	results := fetcher.Fetch(ctx, bucket, tasks, fetcher.Options{
		Workers:    cfg.Workers,
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Reporter:   reporter,
		Logger:     log,
	})

	if reporter != nil {
		reporter.Stop()
	}

	var failed []map[string]string
	for _, r := range results {
		if !r.OK {
			failed = append(failed, map[string]string{"URL": r.URL, "Error": r.Err})
		}
	}
	if len(failed) > 0 {
		if err := report.Save(ctx, bucket, "unsuccessful-downloads", []string{"URL", "Error"}, failed, formats); err != nil {
			log.Error("save failure metadata", "error", err)
			return ExitStorageError
		}
	}

	log.Info("download finished",
		"tasks", len(tasks),
		"ok", len(results)-len(failed),
		"failed", len(failed),
	)

	if cfg.Deduplicate {
		toDelete := dedup.Plan(results)
		failures := dedup.Delete(ctx, bucket, toDelete, log)
		log.Info("deduplication finished",
			"scheduled", len(toDelete),
			"deleted", len(toDelete)-len(failures),
			"failed", len(failures),
		)
	}

	return ExitSuccess
}

// configPathFromArgs pre-scans for -config so the file can seed flag
// defaults before the flag set parses the rest.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		if name != "-config" && name != "--config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// confirm prints a prompt and reads one line. Anything starting with
// "y" (or its Cyrillic counterpart) counts as yes; the default is no.
func confirm(stdin io.Reader, prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)

	var line string
	if _, err := fmt.Fscanln(stdin, &line); err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(line, "y") || strings.HasPrefix(line, "д")
}

func rows(records []cdx.Record) []map[string]string {
	out := make([]map[string]string, len(records))
	for i, r := range records {
		out[i] = r.Row()
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	got := splitList("pdf, docx,,txt ")
	if len(got) != 3 || got[0] != "pdf" || got[1] != "docx" || got[2] != "txt" {
		t.Errorf("unexpected split result %v", got)
	}
}

func TestParseIntList(t *testing.T) {
	got, err := parseIntList("200, 301")
	if err != nil {
		t.Fatalf("parseIntList: %v", err)
	}
	if len(got) != 2 || got[0] != 200 || got[1] != 301 {
		t.Errorf("unexpected codes %v", got)
	}

	if _, err := parseIntList("200,abc"); err == nil {
		t.Error("expected error for non-numeric code")
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	if got := configPathFromArgs([]string{"-config", "cfg.yaml", "example.com"}); got != "cfg.yaml" {
		t.Errorf("expected cfg.yaml, got %q", got)
	}
	if got := configPathFromArgs([]string{"--config=other.yaml"}); got != "other.yaml" {
		t.Errorf("expected other.yaml, got %q", got)
	}
	if got := configPathFromArgs([]string{"-v", "example.com"}); got != "" {
		t.Errorf("expected empty path, got %q", got)
	}
}

func TestConfirm(t *testing.T) {
	if !confirm(strings.NewReader("yes\n"), "? ") {
		t.Error("expected yes to confirm")
	}
	if !confirm(strings.NewReader("да\n"), "? ") {
		t.Error("expected Cyrillic yes to confirm")
	}
	if confirm(strings.NewReader("no\n"), "? ") {
		t.Error("expected no to decline")
	}
	if confirm(strings.NewReader("\n"), "? ") {
		t.Error("expected empty input to decline")
	}
}

func TestRunMissingDomain(t *testing.T) {
	if code := run(nil, strings.NewReader("")); code != ExitInvalidArgs {
		t.Errorf("expected exit code %d, got %d", ExitInvalidArgs, code)
	}
}

func TestRunBadFlag(t *testing.T) {
	if code := run([]string{"-t", "100", "example.com"}, strings.NewReader("")); code != ExitInvalidArgs {
		t.Errorf("expected exit code %d for out-of-range workers, got %d", ExitInvalidArgs, code)
	}
}

// fakeArchive serves a minimal CDX endpoint plus snapshot bodies under
// /web/<timestamp>im_/<original>.
func fakeArchive(t *testing.T, index [][]string, snapshots map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cdx/search/cdx" {
			header := []string{"original", "mimetype", "timestamp", "endtimestamp", "groupcount", "uniqcount"}
			if err := json.NewEncoder(w).Encode(append([][]string{header}, index...)); err != nil {
				t.Errorf("encode index: %v", err)
			}
			return
		}
		if body, ok := snapshots[r.URL.Path]; ok {
			w.Write([]byte(body))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunEndToEnd(t *testing.T) {
	index := [][]string{
		{"http://example.com/docs/a.txt", "text/plain", "20200101000000", "20210101000000", "5", "2"},
		{"http://example.com/docs/b.txt", "text/plain", "20200601000000", "20200601000000", "1", "1"},
		{"http://example.com/img/logo.png", "image/png", "20200101000000", "20200101000000", "1", "1"},
	}
	snapshots := map[string]string{
		"/web/20200101000000im_/http://example.com/docs/a.txt": "a v1",
		"/web/20210101000000im_/http://example.com/docs/a.txt": "a v2",
		"/web/20200601000000im_/http://example.com/docs/b.txt": "b v1",
	}
	srv := fakeArchive(t, index, snapshots)

	outDir := filepath.Join(t.TempDir(), "out")
	host := strings.TrimPrefix(srv.URL, "http://")

	code := run([]string{
		"-archive-host", host,
		"-scheme", "http",
		"-o", outDir,
		"-e", "txt",
		"-dfl",
		"-progress=false",
		"example.com",
	}, strings.NewReader(""))
	if code != ExitSuccess {
		t.Fatalf("run failed with exit code %d", code)
	}

	// The png record is filtered out, a.txt yields first and last
	// snapshots, b.txt has a single capture so first covers it.
	expect := map[string]string{
		"files/docs_a-20200101000000.txt": "a v1",
		"files/docs_a-20210101000000.txt": "a v2",
		"files/docs_b-20200601000000.txt": "b v1",
	}
	for key, want := range expect {
		data, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(key)))
		if err != nil {
			t.Fatalf("read %s: %v", key, err)
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", key, data, want)
		}
	}

	for _, name := range []string{"full-index.csv", "full-index.json", "download-targets.csv", "multiple-versions.csv"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected metadata file %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "unsuccessful-downloads.csv")); err == nil {
		t.Error("expected no failure report for a clean run")
	}
}

func TestRunIndexOnly(t *testing.T) {
	index := [][]string{
		{"http://example.com/a.txt", "text/plain", "20200101000000", "20200101000000", "1", "1"},
	}
	srv := fakeArchive(t, index, nil)

	outDir := filepath.Join(t.TempDir(), "out")
	host := strings.TrimPrefix(srv.URL, "http://")

	code := run([]string{
		"-archive-host", host,
		"-scheme", "http",
		"-o", outDir,
		"example.com",
	}, strings.NewReader(""))
	if code != ExitSuccess {
		t.Fatalf("run failed with exit code %d", code)
	}

	if _, err := os.Stat(filepath.Join(outDir, "full-index.csv")); err != nil {
		t.Errorf("expected index metadata: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "files")); err == nil {
		t.Error("expected no downloads for an index-only run")
	}
}

func TestRunUnfilteredDownloadDeclined(t *testing.T) {
	index := [][]string{
		{"http://example.com/a.txt", "text/plain", "20200101000000", "20200101000000", "1", "1"},
	}
	srv := fakeArchive(t, index, nil)

	outDir := filepath.Join(t.TempDir(), "out")
	host := strings.TrimPrefix(srv.URL, "http://")

	// No filters plus a download flag triggers the confirmation
	// prompt; an empty answer declines.
	code := run([]string{
		"-archive-host", host,
		"-scheme", "http",
		"-o", outDir,
		"-df",
		"-progress=false",
		"example.com",
	}, strings.NewReader("no\n"))
	if code != ExitSuccess {
		t.Fatalf("run failed with exit code %d", code)
	}

	if _, err := os.Stat(filepath.Join(outDir, "files")); err == nil {
		t.Error("expected no downloads after declining the prompt")
	}
}

func TestRunIndexFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	outDir := filepath.Join(t.TempDir(), "out")
	host := strings.TrimPrefix(srv.URL, "http://")

	code := run([]string{
		"-archive-host", host,
		"-scheme", "http",
		"-o", outDir,
		"example.com",
	}, strings.NewReader(""))
	if code != ExitIndexError {
		t.Fatalf("expected exit code %d, got %d", ExitIndexError, code)
	}
}

package fetcher

import (
	"testing"
	"time"

	"github.com/CyberFazaN/wayback-fetcher/internal/cdx"
)

var target = cdx.Record{
	Original:     "http://example.com/a/b.txt",
	Mimetype:     "text/plain",
	Timestamp:    "20090101000000",
	EndTimestamp: "20230601000000",
	GroupCount:   5,
	UniqueCount:  2,
}

func TestBuildTasksAllVariants(t *testing.T) {
	tasks := BuildTasks([]cdx.Record{target}, BuildOptions{
		Scheme:         "https",
		First:          true,
		Last:           true,
		Current:        true,
		Root:           "files",
		ArchiveTimeout: 120 * time.Second,
		OriginTimeout:  60 * time.Second,
	})

	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	first, last, current := tasks[0], tasks[1], tasks[2]

	if first.URL != "https://web.archive.org/web/20090101000000im_/http://example.com/a/b.txt" {
		t.Errorf("unexpected first URL: %s", first.URL)
	}
	if first.Key != "files/a_b-20090101000000.txt" {
		t.Errorf("unexpected first key: %s", first.Key)
	}
	if first.Timeout != 120*time.Second {
		t.Errorf("archive task must use the archive timeout, got %v", first.Timeout)
	}

	if last.Role != "20230601000000" {
		t.Errorf("unexpected last role: %s", last.Role)
	}

	if current.URL != "http://example.com/a/b.txt" {
		t.Errorf("current task must fetch the origin URL, got %s", current.URL)
	}
	if current.Role != RoleCurrent {
		t.Errorf("unexpected current role: %s", current.Role)
	}
	if current.Timeout != 60*time.Second {
		t.Errorf("origin task must use the origin timeout, got %v", current.Timeout)
	}

	for _, task := range tasks {
		if task.BaseKey != "files/a_b.txt" {
			t.Errorf("all variants must share a base key, got %s", task.BaseKey)
		}
	}
}

func TestBuildTasksSingleCapture(t *testing.T) {
	rec := target
	rec.EndTimestamp = rec.Timestamp

	tasks := BuildTasks([]cdx.Record{rec}, BuildOptions{First: true, Last: true, Root: "files"})
	if len(tasks) != 1 {
		t.Fatalf("first and last are the same snapshot, expected 1 task, got %d", len(tasks))
	}

	// Without the first variant selected, last must still be fetched.
	tasks = BuildTasks([]cdx.Record{rec}, BuildOptions{Last: true, Root: "files"})
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Role != rec.EndTimestamp {
		t.Errorf("expected the last snapshot, got role %s", tasks[0].Role)
	}
}

func TestBuildTasksStructured(t *testing.T) {
	tasks := BuildTasks([]cdx.Record{target}, BuildOptions{Current: true, Structured: true, Root: "files"})
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Key != "files/a/b-current.txt" {
		t.Errorf("unexpected structured key: %s", tasks[0].Key)
	}
}

func TestBuildTasksHostAndScheme(t *testing.T) {
	tasks := BuildTasks([]cdx.Record{target}, BuildOptions{
		Scheme:      "http",
		ArchiveHost: "archive.test:8080",
		First:       true,
		Root:        "files",
	})
	if tasks[0].URL != "http://archive.test:8080/web/20090101000000im_/http://example.com/a/b.txt" {
		t.Errorf("unexpected snapshot URL: %s", tasks[0].URL)
	}
}

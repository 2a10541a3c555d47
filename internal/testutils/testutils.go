//go:build integration

// Package testutils provides shared test infrastructure for integration tests.
package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ArchiveFixture describes a fake archive: the index rows the CDX
// endpoint returns and the snapshot bodies the replay endpoint serves.
type ArchiveFixture struct {
	// IndexRows are CDX data rows (without the header row), in the
	// field order original,mimetype,timestamp,endtimestamp,groupcount,uniqcount.
	IndexRows [][]string

	// Snapshots maps SnapshotKey(timestamp, original) to the archived body.
	Snapshots map[string][]byte
}

// SnapshotKey builds the lookup key for an archived body.
func SnapshotKey(timestamp, original string) string {
	return timestamp + " " + original
}

// StartArchiveServer starts an HTTP server that mimics the archive:
// it answers CDX queries under /cdx/search/cdx and replays snapshots
// under /web/<timestamp>im_/<original>.
func StartArchiveServer(t *testing.T, fixture ArchiveFixture) *httptest.Server {
	t.Helper()

	header := []string{"original", "mimetype", "timestamp", "endtimestamp", "groupcount", "uniqcount"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cdx/search/cdx" {
			rows := append([][]string{header}, fixture.IndexRows...)
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(rows); err != nil {
				t.Errorf("encode index: %v", err)
			}
			return
		}

		// /web/<timestamp>im_/<original> -- the original keeps its
		// own scheme and host, so it still contains "://".
		rest, ok := strings.CutPrefix(r.URL.Path, "/web/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		timestamp, original, ok := strings.Cut(rest, "im_/")
		if !ok {
			http.NotFound(w, r)
			return
		}
		body, ok := fixture.Snapshots[SnapshotKey(timestamp, original)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NginxEnv contains connection information for an nginx test origin.
type NginxEnv struct {
	Container testcontainers.Container
	BaseURL   string
}

// Close terminates the nginx container.
func (e *NginxEnv) Close(ctx context.Context) error {
	if e.Container != nil {
		return e.Container.Terminate(ctx)
	}
	return nil
}

// StartNginxContainer starts an nginx container serving the given
// files (path under the web root -> content) as the live origin site.
func StartNginxContainer(t *testing.T, ctx context.Context, files map[string][]byte) *NginxEnv {
	t.Helper()

	var containerFiles []testcontainers.ContainerFile
	for name, content := range files {
		containerFiles = append(containerFiles, testcontainers.ContainerFile{
			Reader:            strings.NewReader(string(content)),
			ContainerFilePath: "/usr/share/nginx/html/" + strings.TrimPrefix(name, "/"),
			FileMode:          0o644,
		})
	}

	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		Files:        containerFiles,
		WaitingFor:   wait.ForListeningPort("80/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start nginx container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "80")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	return &NginxEnv{
		Container: container,
		BaseURL:   fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}

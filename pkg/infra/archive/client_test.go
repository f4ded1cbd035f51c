package archive_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/onnxify/pkg/infra/archive"
)

func newArchiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tags/3.0.0.tar.gz":
			w.Header().Set("Content-Type", "application/gzip")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("fake archive content"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Probe(t *testing.T) {
	ctx := context.Background()
	server := newArchiveServer(t)
	client := archive.NewClient(archive.WithHTTPClient(server.Client()))

	t.Run("existing archive", func(t *testing.T) {
		status, err := client.Probe(ctx, server.URL+"/tags/3.0.0.tar.gz")
		gt.NoError(t, err)
		gt.Value(t, status).Equal(http.StatusOK)
	})

	t.Run("missing archive", func(t *testing.T) {
		status, err := client.Probe(ctx, server.URL+"/tags/main.tar.gz")
		gt.NoError(t, err)
		gt.Value(t, status).Equal(http.StatusNotFound)
	})

	t.Run("unreachable host", func(t *testing.T) {
		_, err := client.Probe(ctx, "http://127.0.0.1:1/tags/3.0.0.tar.gz")
		gt.Error(t, err)
	})
}

func TestClient_Download(t *testing.T) {
	ctx := context.Background()
	server := newArchiveServer(t)
	client := archive.NewClient(archive.WithHTTPClient(server.Client()))

	t.Run("writes body to file", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "archive.tar.gz")
		n, err := client.Download(ctx, server.URL+"/tags/3.0.0.tar.gz", dst)
		gt.NoError(t, err)
		gt.Value(t, n).Equal(int64(len("fake archive content")))

		content, err := os.ReadFile(dst)
		gt.NoError(t, err)
		gt.String(t, string(content)).Equal("fake archive content")
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "archive.tar.gz")
		_, err := client.Download(ctx, server.URL+"/heads/missing.tar.gz", dst)
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("unexpected status code")

		_, statErr := os.Stat(dst)
		gt.Value(t, os.IsNotExist(statErr)).Equal(true)
	})
}

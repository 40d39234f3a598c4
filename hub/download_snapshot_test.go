package hub

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type treeEntryJSON struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Oid  string `json:"oid"`
}

func snapshotServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/ns/repo/tree/main", func(w http.ResponseWriter, r *http.Request) {
		entries := make([]treeEntryJSON, 0, len(files))
		for path, content := range files {
			entries = append(entries, treeEntryJSON{Path: path, Type: "file", Size: int64(len(content)), Oid: "oid-" + path})
		}
		json.NewEncoder(w).Encode(entries)
	})
	for path, content := range files {
		content := content
		mux.HandleFunc("/ns/repo/resolve/main/"+path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("ETag", `"etag-`+path+`"`)
			w.Header().Set("X-Repo-Commit", "commit1")
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(content))
		})
	}
	return httptest.NewServer(mux)
}

func TestDownloadSnapshotFiltersAndWritesAllMatches(t *testing.T) {
	files := map[string]string{
		"config.json":          `{"a":1}`,
		"model.safetensors":    "binary-weights",
		"tokenizer/vocab.json": `{"v":1}`,
	}
	srv := snapshotServer(t, files)
	defer srv.Close()

	client := testClient(t, srv.URL, t.TempDir())
	destDir := t.TempDir()

	progress := NewProgress()
	_, err := client.DownloadSnapshot(context.Background(), KindModel, RepoId{Namespace: "ns", Name: "repo"}, "main", destDir, SnapshotOptions{
		Globs:    []string{"*.json", "tokenizer/*.json"},
		Progress: progress,
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(destDir, "config.json"))
	assert.FileExists(t, filepath.Join(destDir, "tokenizer", "vocab.json"))
	_, err = os.Stat(filepath.Join(destDir, "model.safetensors"))
	assert.True(t, os.IsNotExist(err), "model.safetensors should have been excluded by the glob filter")

	total, completed, _ := progress.Snapshot()
	assert.Equal(t, completed, total)
}

func TestDownloadSnapshotCancelledMidListReturnsNoError(t *testing.T) {
	// "a.json" sorts first; cancelling once its body has been read to the
	// end models cancellation requested partway through the file list,
	// after a.json is delivered and before "b.json" is ever fetched.
	ctx, cancel := context.WithCancel(context.Background())

	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/ns/repo/tree/main", func(w http.ResponseWriter, r *http.Request) {
		entries := []treeEntryJSON{
			{Path: "a.json", Type: "file", Size: 2, Oid: "oid-a"},
			{Path: "b.json", Type: "file", Size: 2, Oid: "oid-b"},
		}
		json.NewEncoder(w).Encode(entries)
	})
	mux.HandleFunc("/ns/repo/resolve/main/a.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"etag-a"`)
		w.Header().Set("X-Repo-Commit", "commit1")
		w.Header().Set("Content-Length", "2")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	})
	mux.HandleFunc("/ns/repo/resolve/main/b.json", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("b.json should never be fetched once cancellation was requested after a.json")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := testClient(t, srv.URL, t.TempDir())
	client.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		resp, err := http.DefaultTransport.RoundTrip(r)
		// The probe (Range: bytes=0-0) also reads a.json's body; only the
		// GET that fetches the file triggers the cancellation.
		if err == nil && r.URL.Path == "/ns/repo/resolve/main/a.json" && r.Header.Get("Range") != "bytes=0-0" {
			resp.Body = cancelOnEOF{ReadCloser: resp.Body, cancel: cancel}
		}
		return resp, err
	})}
	destDir := t.TempDir()

	path, err := client.DownloadSnapshot(ctx, KindModel, RepoId{Namespace: "ns", Name: "repo"}, "main", destDir, SnapshotOptions{})
	require.NoError(t, err)
	assert.Equal(t, destDir, path)
	assert.FileExists(t, filepath.Join(destDir, "a.json"))
}

// cancelOnEOF calls cancel once the wrapped body has been read to its end.
type cancelOnEOF struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b cancelOnEOF) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err == io.EOF {
		b.cancel()
	}
	return n, err
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

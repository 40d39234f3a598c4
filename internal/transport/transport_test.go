package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportProbeSendsRangeAndDiscardsBody(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.Header().Set("Content-Range", "bytes 0-0/10")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("0"))
	}))
	defer srv.Close()

	xport := NewHTTPTransport(nil)
	res, err := xport.Probe(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "bytes=0-0", gotRange)
	assert.Equal(t, http.StatusPartialContent, res.StatusCode)
}

func TestHTTPTransportGetReturnsOpenBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	xport := NewHTTPTransport(nil)
	res, err := xport.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestHTTPTransportListTreeFollowsPagination(t *testing.T) {
	page1 := []TreeEntry{{Path: "a.json", Type: "file", Size: 10, Oid: "oid1"}}
	page2 := []TreeEntry{{Path: "b.json", Type: "file", Size: 20, Oid: "oid2"}}

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/page1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<`+srv.URL+`/page2>; rel="next"`)
		json.NewEncoder(w).Encode(toRaw(page1))
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(toRaw(page2))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	xport := NewHTTPTransport(nil)
	entries, err := xport.ListTree(context.Background(), srv.URL+"/page1", nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.json", entries[0].Path)
	assert.Equal(t, "b.json", entries[1].Path)
}

func toRaw(entries []TreeEntry) []map[string]any {
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{"path": e.Path, "type": e.Type, "size": e.Size, "oid": e.Oid}
	}
	return out
}

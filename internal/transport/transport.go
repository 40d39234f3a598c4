// Package transport defines the external collaborators the core consumes:
// a Metadata Transport that answers HEAD/GET requests for repository
// files, and a minimal HTTP-backed implementation sufficient to drive it.
// Endpoint schemas for the rest of the hub's REST surface (inference,
// discussions, billing, ...) are out of scope here, per spec §1.
package transport

import (
	"context"
	"io"
	"net/http"
)

// ProbeResult is what a HEAD-style probe of a file returns.
type ProbeResult struct {
	StatusCode int
	Header     http.Header
}

// GetResult is what a GET of a file's bytes returns: a status code, the
// relevant headers, and a body the caller must close.
type GetResult struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// TreeEntry is one entry in a revision's file listing.
type TreeEntry struct {
	Path string
	Type string // "file" or "directory"
	Size int64
	Oid  string
}

// MetadataTransport is the external collaborator that answers HEAD/GET/tree
// requests against the hub's HTTP surface. HTTPTransport below implements
// it; the hub package constructs an HTTPTransport directly rather than
// accepting another implementation.
type MetadataTransport interface {
	// Probe issues a HEAD-like request (e.g. Range: bytes=0-0) against url
	// and returns the response status/headers without the body.
	Probe(ctx context.Context, url string, headers map[string]string) (ProbeResult, error)
	// Get issues a GET against url and returns the response with an open
	// body the caller must close.
	Get(ctx context.Context, url string, headers map[string]string) (GetResult, error)
	// ListTree returns every file path in a revision, used by the
	// snapshot download operation.
	ListTree(ctx context.Context, treeURL string, headers map[string]string) ([]TreeEntry, error)
}

// HTTPTransport is the default MetadataTransport backed by net/http.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport returns an HTTPTransport using client, or
// http.DefaultClient if client is nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client}
}

func (t *HTTPTransport) do(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return t.Client.Do(req)
}

// Probe issues a GET with "Range: bytes=0-0" (mirroring the reference
// client, which treats this as its HEAD-equivalent to also pick up
// redirect-resolved headers) and discards the body.
func (t *HTTPTransport) Probe(ctx context.Context, url string, headers map[string]string) (ProbeResult, error) {
	h := cloneHeaders(headers)
	h["Range"] = "bytes=0-0"
	resp, err := t.do(ctx, http.MethodGet, url, h)
	if err != nil {
		return ProbeResult{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return ProbeResult{StatusCode: resp.StatusCode, Header: resp.Header}, nil
}

// Get issues a GET and returns the response with its body left open.
func (t *HTTPTransport) Get(ctx context.Context, url string, headers map[string]string) (GetResult, error) {
	resp, err := t.do(ctx, http.MethodGet, url, headers)
	if err != nil {
		return GetResult{}, err
	}
	return GetResult{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// ListTree fetches the JSON array of {path, type, size, oid} entries at
// treeURL. Pagination (Link: rel="next") is followed transparently.
func (t *HTTPTransport) ListTree(ctx context.Context, treeURL string, headers map[string]string) ([]TreeEntry, error) {
	var all []TreeEntry
	url := treeURL
	for url != "" {
		resp, err := t.do(ctx, http.MethodGet, url, headers)
		if err != nil {
			return nil, err
		}
		entries, next, err := decodeTreePage(resp)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
		url = next
	}
	return all, nil
}

func cloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Package hub implements the Hub File Cache and Download Engine: a local,
// content-addressed cache of remote repository files that stays
// bit-compatible with the cache layout used by the reference huggingface_hub
// client, plus a resumable download engine that streams files into it.
package hub

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-vault/model-cache/internal/auth"
)

// RepoKind is one of the three repository kinds the hub hosts.
type RepoKind string

const (
	KindModel   RepoKind = "model"
	KindDataset RepoKind = "dataset"
	KindSpace   RepoKind = "space"

	// DefaultRevision is the symbolic ref used when a caller does not pin
	// one explicitly.
	DefaultRevision = "main"
)

// pluralPrefix returns the fixed plural directory prefix used in the cache
// layout for this kind (spec §3: RepoKind).
func (k RepoKind) pluralPrefix() (string, error) {
	switch k {
	case KindModel:
		return "models", nil
	case KindDataset:
		return "datasets", nil
	case KindSpace:
		return "spaces", nil
	default:
		return "", fmt.Errorf("unknown repo kind %q", k)
	}
}

// urlPrefix returns the path segment the metadata transport uses to
// distinguish non-model repo kinds ("models" has no prefix historically).
func (k RepoKind) urlPrefix() string {
	switch k {
	case KindDataset:
		return "datasets/"
	case KindSpace:
		return "spaces/"
	default:
		return ""
	}
}

// RepoId is a (namespace, name) pair, stringified as "namespace/name".
type RepoId struct {
	Namespace string
	Name      string
}

// String renders the canonical "namespace/name" form.
func (r RepoId) String() string {
	return r.Namespace + "/" + r.Name
}

// ParseRepoId parses "namespace/name" into a RepoId, splitting on the first
// "/" only, so a name containing further slashes stays intact in Name.
func ParseRepoId(s string) (RepoId, error) {
	i := strings.IndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return RepoId{}, fmt.Errorf("invalid repo id %q: want namespace/name", s)
	}
	return RepoId{Namespace: s[:i], Name: s[i+1:]}, nil
}

// Client is the entry point for cache-aware downloads from the hub.
type Client struct {
	endpoint   string
	token      string
	cacheRoot  string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries  int
	retryDelay  time.Duration
	concurrency int
}

// Option configures a Client constructed via NewClient.
type Option func(*Client)

// WithToken overrides the bearer token otherwise discovered from the
// environment (see internal/auth).
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithUserAgent overrides the default User-Agent string sent with every
// request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient overrides the *http.Client used for all metadata and
// content requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger overrides the structured logger used throughout the package.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMaxRetries overrides the default bounded-retry attempt count used by
// the download engine (default 3, per spec §4.6).
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay overrides the delay between retry attempts (default 1s).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithConcurrency overrides the default degree of in-flight file transfers
// for batch operations (default 3, per spec §5).
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

// WithEndpoint overrides the hub endpoint otherwise read from $HF_ENDPOINT
// (default "https://huggingface.co").
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithCacheDir fixes the cache root directory as precedence level 1 of
// the Cache Location Resolver (spec §4.1, "explicit caller-supplied
// directory"); it is still resolved through that chain's tilde-expansion,
// not used as a literal path.
func WithCacheDir(dir string) Option {
	return func(c *Client) { c.cacheRoot = dir }
}

// NewClient builds a Client. The cache root is resolved per the §4.1
// precedence chain, with WithCacheDir supplying precedence level 1 (still
// subject to that chain's tilde-expansion) instead of bypassing it; the
// token is resolved per the chain in internal/auth unless WithToken is
// supplied.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		endpoint:    defaultEndpoint(),
		userAgent:   "go-vault-model-cache/1.0",
		httpClient:  http.DefaultClient,
		logger:      slog.Default(),
		maxRetries:  3,
		retryDelay:  time.Second,
		concurrency: 3,
	}
	for _, o := range opts {
		o(c)
	}
	// ResolveCacheRoot applies tilde-expansion to an explicit c.cacheRoot
	// too (spec §4.1 precedence level 1 is not exempt from it) and falls
	// through to the env/home-based defaults when c.cacheRoot is empty.
	root, err := ResolveCacheRoot(c.cacheRoot)
	if err != nil {
		return nil, newFSError("resolve cache root", err)
	}
	c.cacheRoot = root
	if c.token == "" {
		c.token = auth.ResolveToken()
	}
	return c, nil
}

// CacheRoot returns the resolved cache root directory.
func (c *Client) CacheRoot() string { return c.cacheRoot }

func defaultEndpoint() string {
	if e := os.Getenv("HF_ENDPOINT"); e != "" {
		return e
	}
	return "https://huggingface.co"
}

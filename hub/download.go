package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/go-vault/model-cache/internal/transport"
)

// downloadChunkSize is the buffered read/write size used while streaming a
// file body into the staging file (spec §4.6 step 5 implementation hint:
// ~64 KiB).
const downloadChunkSize = 64 * 1024

// DownloadOptions configures a single Download call.
type DownloadOptions struct {
	// Force bypasses the cache-hit short circuit and always re-probes and
	// re-fetches the file.
	Force bool
	// InBackground prefers a background-capable transfer mode where the
	// platform exposes one. The core has no such distinction; this flag is
	// accepted for API parity and otherwise has no effect (spec §9).
	InBackground bool
	// Progress, if non-nil, is mutated in place as the download proceeds.
	Progress *Progress
}

// Download resolves (kind, repo, revision, filename) to local bytes at
// destination, downloading and caching it if necessary, per spec §4.6.
func (c *Client) Download(ctx context.Context, kind RepoKind, repo RepoId, revision, filename, destination string, opts DownloadOptions) (string, error) {
	layout, err := NewLayout(c.cacheRoot, kind, repo)
	if err != nil {
		return "", err
	}
	blobs := NewBlobStore(layout)
	snaps := NewSnapshotLinker(layout)
	xport := transport.NewHTTPTransport(c.httpClient)

	if !opts.Force {
		if commit, ok := layout.ResolveRevision(revision); ok {
			snapPath := layout.SnapshotPath(commit, filename)
			if _, statErr := os.Stat(snapPath); statErr == nil {
				if err := snaps.CopyOut(commit, filename, destination); err != nil {
					return "", err
				}
				if opts.Progress != nil {
					if info, statErr := os.Stat(destination); statErr == nil {
						opts.Progress.complete(info.Size())
					}
				}
				c.logger.Info("hub: cache hit", "repo", repo.String(), "revision", revision, "file", filename)
				return destination, nil
			}
		}
	}

	url := c.buildFileURL(kind, repo, revision, filename)
	headers := c.baseHeaders()

	var commit, rawEtag string
	var expectedSize int64
	var hasSize bool
	var deliverFrom string

	attempt := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(newCancelled())
		}

		probe, err := xport.Probe(ctx, url, headers)
		if err != nil {
			return err // transient network error, retryable
		}
		record := fileRecordFromHeaders(probe.StatusCode, probe.Header)
		if !record.Exists {
			if probe.StatusCode >= 400 && probe.StatusCode != http.StatusNotFound {
				// Other failure statuses are http_error; isTerminalOtherwise
				// decides whether they are retried.
				return newHTTPError(probe.StatusCode, "unexpected status during probe")
			}
			return backoff.Permanent(newNotFound(fmt.Sprintf("%s not found at revision %s", filename, revision)))
		}
		if record.Revision != nil {
			commit = *record.Revision
		}
		if record.Etag != nil {
			rawEtag = *record.Etag
		}
		if record.Size != nil {
			expectedSize = *record.Size
			hasSize = true
		}
		if commit == "" {
			commit = revision
		}

		stagingEtag := rawEtag
		if stagingEtag == "" {
			stagingEtag = uuid.NewString()
		}
		incompletePath, err := layout.IncompletePath(stagingEtag)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := os.MkdirAll(filepath.Dir(incompletePath), 0o777); err != nil {
			return backoff.Permanent(newFSError("create blobs directory", err))
		}

		resumeOffset, err := prepareStaging(incompletePath, expectedSize, hasSize)
		if err != nil {
			return backoff.Permanent(newFSError("prepare staging file", err))
		}

		if opts.Progress != nil {
			opts.Progress.setTotal(expectedSize)
			// setCompleted, not add: this closure re-runs on every retry
			// attempt, and resumeOffset is recomputed from disk each time,
			// so a cumulative add would re-count the same bytes on every
			// retry instead of just seeding the current attempt's starting
			// point.
			opts.Progress.setCompleted(resumeOffset)
		}

		getHeaders := cloneStringMap(headers)
		if resumeOffset > 0 {
			getHeaders["Range"] = fmt.Sprintf("bytes=%d-", resumeOffset)
		}
		resp, err := xport.Get(ctx, url, getHeaders)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		written, err := streamToStaging(ctx, resp, incompletePath, resumeOffset, opts.Progress)
		if err != nil {
			if IsCancelled(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		if hasSize && written != expectedSize {
			return backoff.Permanent(newSizeMismatch(expectedSize, written))
		}

		// From here, the transfer itself has succeeded. Per spec §7, every
		// remaining step is a cache write whose failure is soft: the bytes
		// are still delivered to destination, but the cache is left for a
		// future call to repair. deliverFrom always holds a path with the
		// complete, verified bytes.
		deliverFrom = incompletePath
		if blobPath, merr := blobs.MaterializeFromPath(incompletePath, stagingEtag); merr != nil {
			c.logger.Warn("hub: soft blob install failure", "repo", repo.String(), "err", merr)
		} else {
			deliverFrom = blobPath
			if _, serr := snaps.Install(commit, filename, stagingEtag); serr != nil {
				c.logger.Warn("hub: soft snapshot install failure", "repo", repo.String(), "err", serr)
			}
		}
		if revision != commit {
			if err := layout.WriteRef(revision, commit); err != nil {
				c.logger.Warn("hub: soft ref-write failure", "ref", revision, "err", err)
			}
		}
		return nil
	}

	if err := c.retry(ctx, attempt); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o777); err != nil {
		return "", newFSError("create destination directory", err)
	}
	if err := copyFile(deliverFrom, destination); err != nil {
		return "", newFSError("copy downloaded bytes to destination", err)
	}
	return destination, nil
}

// retry wraps fn in the bounded retry policy from spec §4.6: at most
// c.maxRetries attempts with c.retryDelay between them. A backoff.Permanent
// error (terminal kinds: not_found, cancelled, invalid_etag, auth failures)
// is never retried. A failure while ctx is cancelled is reported as the
// cancelled kind.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxRetries-1)), ctx)
	err := backoff.Retry(func() error {
		err := fn()
		if err != nil && isTerminalOtherwise(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	// A transport call aborted by ctx surfaces as a plain context error.
	if err != nil && ctx.Err() != nil && !IsCancelled(err) {
		return newCancelled()
	}
	return err
}

// isRetryableHTTPStatus reports whether err is an http_error whose status
// is eligible for retry (everything except 401/403/404, per spec §7).
func isRetryableHTTPStatus(err error) bool {
	var ce *CacheError
	if !errors.As(err, &ce) || ce.Kind != ErrHTTP {
		return true // not an http_error at all; let the other check decide
	}
	switch ce.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return true
	}
}

// isTerminalOtherwise reports whether err is one of the kinds §7 marks
// terminal regardless of HTTP status: not_found, cancelled, invalid_etag,
// or a non-retryable http_error.
func isTerminalOtherwise(err error) bool {
	var ce *CacheError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind {
	case ErrNotFound, ErrCancelled, ErrInvalidEtag:
		return true
	case ErrHTTP:
		return !isRetryableHTTPStatus(err)
	default:
		return false
	}
}

// prepareStaging decides the resume offset for incompletePath per spec
// §4.6 step 3: if an existing file's size is in (0, expectedSize), resume
// from there; otherwise truncate/create fresh and resume from zero.
func prepareStaging(incompletePath string, expectedSize int64, hasSize bool) (int64, error) {
	info, err := os.Stat(incompletePath)
	if err == nil && info.Size() > 0 && hasSize && info.Size() < expectedSize {
		return info.Size(), nil
	}
	f, err := os.OpenFile(incompletePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	f.Close()
	return 0, nil
}

// streamToStaging reads resp's body and appends it to incompletePath,
// handling the 200-during-resume reset rule from spec §4.6 step 4, and
// returns the total number of bytes the staging file holds afterward.
func streamToStaging(ctx context.Context, resp transport.GetResult, incompletePath string, resumeOffset int64, progress *Progress) (int64, error) {
	fullBody := resp.StatusCode == http.StatusOK
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusPartialContent:
		// Append from resumeOffset, as prepared.
	default:
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return 0, newHTTPError(resp.StatusCode, "unexpected status during fetch")
		}
		// Any other 2xx carries a full body exactly like 200 (spec §4.6 step
		// 4): the server did not honor the Range request.
		fullBody = true
	}

	if fullBody && resumeOffset > 0 {
		// Server ignored the Range request; restart from zero.
		resumeOffset = 0
		progress.resetCompleted()
		f, err := os.OpenFile(incompletePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return 0, err
		}
		f.Close()
	}

	f, err := os.OpenFile(incompletePath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	written := resumeOffset
	buf := make([]byte, downloadChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return written, newCancelled()
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			if progress != nil {
				progress.add(int64(n))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, readErr
		}
	}
	return written, nil
}

func (c *Client) baseHeaders() map[string]string {
	h := map[string]string{"User-Agent": c.userAgent}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

func (c *Client) buildFileURL(kind RepoKind, repo RepoId, revision, filename string) string {
	if revision == "" {
		revision = DefaultRevision
	}
	return fmt.Sprintf("%s/%s%s/resolve/%s/%s", c.endpoint, kind.urlPrefix(), repo.String(), revision, filename)
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

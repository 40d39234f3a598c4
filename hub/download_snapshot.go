package hub

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-vault/model-cache/internal/transport"
)

// SnapshotOptions configures a DownloadSnapshot call.
type SnapshotOptions struct {
	// Globs restricts the files fetched to paths matching at least one
	// POSIX fnmatch pattern (FilterByGlobs). An empty list keeps every
	// file in the revision.
	Globs []string
	// Force bypasses each file's cache-hit short circuit.
	Force bool
	// Progress, if non-nil, is advanced as an outer, pro-rata aggregate
	// across every file in the snapshot (spec §4.6 "Snapshot download").
	Progress *Progress
}

// DownloadSnapshot materializes every file of (kind, repo, revision) that
// matches opts.Globs under destinationDir, preserving the repository's
// relative path layout, and returns destinationDir.
//
// Files are fetched sequentially, never in parallel, so that opts.Progress
// advances in a stable, predictable order (spec §5 "sequential file
// downloads for snapshots to preserve progress ordering"). BatchDownload is
// the operation that runs transfers with bounded parallelism (errgroup);
// this operation deliberately does not.
func (c *Client) DownloadSnapshot(ctx context.Context, kind RepoKind, repo RepoId, revision, destinationDir string, opts SnapshotOptions) (string, error) {
	treeURL, err := c.buildTreeURL(kind, repo, revision)
	if err != nil {
		return "", err
	}
	xport := transport.NewHTTPTransport(c.httpClient)
	entries, err := xport.ListTree(ctx, treeURL, c.baseHeaders())
	if err != nil {
		return "", err
	}

	var paths []string
	sizes := make(map[string]int64, len(entries))
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		paths = append(paths, e.Path)
		sizes[e.Path] = e.Size
	}
	paths = FilterByGlobs(paths, opts.Globs)

	var total int64
	for _, p := range paths {
		total += sizes[p]
	}
	if opts.Progress != nil {
		opts.Progress.setTotal(total)
	}

	for _, filename := range paths {
		if err := ctx.Err(); err != nil {
			// Cancellation mid-list returns early without error
			// (spec §4.6 "Snapshot download").
			return destinationDir, nil
		}

		dest := filepath.Join(destinationDir, filepath.FromSlash(filename))
		fileProgress := NewProgress()
		_, err := c.Download(ctx, kind, repo, revision, filename, dest, DownloadOptions{
			Force:    opts.Force,
			Progress: fileProgress,
		})
		if err != nil {
			if IsCancelled(err) {
				return destinationDir, nil
			}
			return "", err
		}
		if opts.Progress != nil {
			_, completed, _ := fileProgress.Snapshot()
			opts.Progress.add(completed)
		}
	}

	return destinationDir, nil
}

func (c *Client) buildTreeURL(kind RepoKind, repo RepoId, revision string) (string, error) {
	if revision == "" {
		revision = DefaultRevision
	}
	prefix, err := kind.pluralPrefix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/api/%s/%s/tree/%s?recursive=true", c.endpoint, prefix, repo.String(), revision), nil
}

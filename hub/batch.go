package hub

import (
	"context"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// BatchOptions configures a BatchDownload call.
type BatchOptions struct {
	Force bool
	// Progress, if non-nil, is advanced once per completed file by that
	// file's byte count; unlike DownloadSnapshot's progress, ordering
	// across files is not guaranteed.
	Progress *Progress
}

// BatchDownload fetches an explicit list of files from (kind, repo,
// revision) concurrently, bounded by the client's configured concurrency
// (spec §5 "Parallelism controls... bound in-flight file operations by a
// configurable degree"). Unlike DownloadSnapshot, file order and completion
// order are not guaranteed, so callers that need stable progress ordering
// should use DownloadSnapshot instead.
//
// Returns the destination path for each filename, in the same order as
// filenames, or the first error encountered. That error cancels the
// context passed to the other transfers, so those in flight and those not
// yet started end early.
func (c *Client) BatchDownload(ctx context.Context, kind RepoKind, repo RepoId, revision string, filenames []string, destinationDir string, opts BatchOptions) ([]string, error) {
	destinations := make([]string, len(filenames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, filename := range filenames {
		i, filename := i, filename
		dest := filepath.Join(destinationDir, filepath.FromSlash(filename))
		destinations[i] = dest
		g.Go(func() error {
			fileProgress := NewProgress()
			_, err := c.Download(gctx, kind, repo, revision, filename, dest, DownloadOptions{
				Force:    opts.Force,
				Progress: fileProgress,
			})
			if err != nil {
				return err
			}
			if opts.Progress != nil {
				_, completed, _ := fileProgress.Snapshot()
				opts.Progress.add(completed)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return destinations, nil
}

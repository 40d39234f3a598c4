package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/go-vault/model-cache/hub"
)

func newSnapshotCmd(ro *rootOpts) *cobra.Command {
	var revision, out string
	var globs []string
	var force bool

	cmd := &cobra.Command{
		Use:   "snapshot <repo>",
		Short: "Download every matching file of a revision into a destination directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := hub.ParseRepoId(args[0])
			if err != nil {
				return err
			}
			kind, err := ro.repoKind()
			if err != nil {
				return err
			}
			client, err := ro.newClient()
			if err != nil {
				return err
			}

			destination := out
			if destination == "" {
				destination = repo.Name
			}

			progress := hub.NewProgress()
			bar := progressbar.DefaultBytes(-1, fmt.Sprintf("snapshot %s", repo.String()))
			done := make(chan struct{})
			go watchProgress(progress, bar, done)

			path, err := client.DownloadSnapshot(cmd.Context(), kind, repo, revision, destination, hub.SnapshotOptions{
				Globs:    globs,
				Force:    force,
				Progress: progress,
			})
			close(done)
			bar.Close()
			if err != nil {
				return err
			}
			total, _, _ := progress.Snapshot()
			fmt.Printf("snapshot %s (%s) written to %s\n", repo.String(), humanize.Bytes(uint64(total)), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&revision, "revision", hub.DefaultRevision, "branch, tag, or commit to resolve")
	cmd.Flags().StringVar(&out, "out", "", "destination directory (defaults to the repo name)")
	cmd.Flags().StringSliceVar(&globs, "glob", nil, "POSIX fnmatch pattern to keep (repeatable); default keeps every file")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the cache and re-fetch every file")

	return cmd
}

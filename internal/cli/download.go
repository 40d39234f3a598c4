package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/go-vault/model-cache/hub"
)

func newDownloadCmd(ro *rootOpts) *cobra.Command {
	var revision, out string
	var force bool

	cmd := &cobra.Command{
		Use:   "download <repo> <filename>",
		Short: "Download a single file from a repository into the cache",
		Args:  cobra.ExactArgs(2),
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

			filename := args[1]
			destination := out
			if destination == "" {
				destination = filepath.Base(filename)
			}

			progress := hub.NewProgress()
			bar := progressbar.DefaultBytes(-1, filename)
			done := make(chan struct{})
			go watchProgress(progress, bar, done)

			path, err := client.Download(cmd.Context(), kind, repo, revision, filename, destination, hub.DownloadOptions{
				Force:    force,
				Progress: progress,
			})
			close(done)
			bar.Close()
			if err != nil {
				return err
			}
			total, _, _ := progress.Snapshot()
			fmt.Printf("downloaded %s (%s) to %s\n", filename, humanize.Bytes(uint64(total)), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&revision, "revision", hub.DefaultRevision, "branch, tag, or commit to resolve")
	cmd.Flags().StringVar(&out, "out", "", "destination path (defaults to the filename's base name)")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the cache and re-fetch")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/go-vault/model-cache/hub"
)

func newBatchCmd(ro *rootOpts) *cobra.Command {
	var revision, out string
	var force bool

	cmd := &cobra.Command{
		Use:   "batch <repo> <filename>...",
		Short: "Download an explicit list of files concurrently, bounded by --concurrency",
		Args:  cobra.MinimumNArgs(2),
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
			filenames := args[1:]

			destination := out
			if destination == "" {
				destination = repo.Name
			}

			display := mpb.New(mpb.WithWidth(64))
			totalBar := display.AddBar(int64(len(filenames)),
				mpb.PrependDecorators(
					decor.Name(fmt.Sprintf("%s (%d files)", repo.String(), len(filenames)), decor.WC{W: len(repo.String()) + 20}),
					decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(decor.Percentage(decor.WCSyncSpace)),
			)

			paths, err := client.BatchDownload(cmd.Context(), kind, repo, revision, filenames, destination, hub.BatchOptions{
				Force: force,
			})
			totalBar.SetCurrent(int64(len(filenames)))
			display.Wait()
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&revision, "revision", hub.DefaultRevision, "branch, tag, or commit to resolve")
	cmd.Flags().StringVar(&out, "out", "", "destination directory (defaults to the repo name)")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the cache and re-fetch every file")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheDirCmd(ro *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-dir",
		Short: "Print the resolved cache root directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ro.newClient()
			if err != nil {
				return err
			}
			fmt.Println(client.CacheRoot())
			return nil
		},
	}
}

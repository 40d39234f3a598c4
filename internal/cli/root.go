// Package cli wires the hub package into a cobra command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-vault/model-cache/hub"
)

// rootOpts holds the flags shared by every subcommand.
type rootOpts struct {
	cacheDir    string
	token       string
	endpoint    string
	repoType    string
	maxRetries  int
	retryDelay  time.Duration
	concurrency int
}

// Execute builds and runs the hfcache command tree.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	ro := &rootOpts{}

	root := &cobra.Command{
		Use:           "hfcache",
		Short:         "Inspect and populate the local hub file cache",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&ro.cacheDir, "cache-dir", "", "cache root directory (defaults to the standard resolver chain)")
	root.PersistentFlags().StringVar(&ro.token, "token", "", "bearer token (defaults to the standard token discovery chain)")
	root.PersistentFlags().StringVar(&ro.endpoint, "endpoint", "", "hub endpoint (defaults to $HF_ENDPOINT or https://huggingface.co)")
	root.PersistentFlags().StringVar(&ro.repoType, "repo-type", "model", "repository kind: model, dataset, or space")
	root.PersistentFlags().IntVar(&ro.maxRetries, "max-retries", 3, "maximum fetch attempts before giving up")
	root.PersistentFlags().DurationVar(&ro.retryDelay, "retry-delay", time.Second, "delay between retry attempts")
	root.PersistentFlags().IntVar(&ro.concurrency, "concurrency", 3, "bound on in-flight file transfers for batch operations")

	root.AddCommand(newDownloadCmd(ro))
	root.AddCommand(newSnapshotCmd(ro))
	root.AddCommand(newBatchCmd(ro))
	root.AddCommand(newCacheDirCmd(ro))
	root.AddCommand(newWhoamiCmd(ro))

	return root
}

func (ro *rootOpts) newClient() (*hub.Client, error) {
	opts := []hub.Option{
		hub.WithMaxRetries(ro.maxRetries),
		hub.WithRetryDelay(ro.retryDelay),
		hub.WithConcurrency(ro.concurrency),
		hub.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	}
	if ro.cacheDir != "" {
		opts = append(opts, hub.WithCacheDir(ro.cacheDir))
	}
	if ro.token != "" {
		opts = append(opts, hub.WithToken(ro.token))
	}
	if ro.endpoint != "" {
		opts = append(opts, hub.WithEndpoint(ro.endpoint))
	}
	client, err := hub.NewClient(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "construct hub client")
	}
	return client, nil
}

func (ro *rootOpts) repoKind() (hub.RepoKind, error) {
	switch ro.repoType {
	case "model", "":
		return hub.KindModel, nil
	case "dataset":
		return hub.KindDataset, nil
	case "space":
		return hub.KindSpace, nil
	default:
		return "", fmt.Errorf("unknown --repo-type %q: want model, dataset, or space", ro.repoType)
	}
}

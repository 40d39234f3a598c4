// Command hfcache is a thin CLI wrapper around the hub package: download a
// single file or a full revision snapshot into the local content-addressed
// cache, print where the cache root lives, or show which token would be
// used for authenticated requests.
package main

import (
	"fmt"
	"os"

	"github.com/go-vault/model-cache/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hfcache:", err)
		os.Exit(1)
	}
}

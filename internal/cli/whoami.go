package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-vault/model-cache/internal/auth"
)

func newWhoamiCmd(ro *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show which token (if any) would be used for authenticated requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ro.token
			if token == "" {
				token = auth.ResolveToken()
			}
			if token == "" {
				fmt.Println("no token found")
				return nil
			}
			fmt.Println("token:", maskToken(token))
			return nil
		},
	}
}

// maskToken keeps the request auditable in logs/terminal output without
// printing a credential in full.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}

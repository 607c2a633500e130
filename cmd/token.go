package cmd

import (
	"github.com/spf13/cobra"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint, inspect and request guest tokens",
	Long: `Commands for working with guest tokens.

mint and inspect work offline with the configured signing secret,
request asks a running guestgate server (--server) for a token.`,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg"},
	Short:   "Show or validate the effective configuration",
	Long: `Settings are merged in this order, later sources win:

  defaults < config file (--config or ./guestgate.yaml) < environment < flags

Environment variables use the names of the original deployment, for example
GUEST_TOKEN_SECRET_FILE, JWT_USERNAME_HEADER, SUPERSET_API_DOMAIN or PORT.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darmiel/guestgate/internal/policy"
	"github.com/darmiel/guestgate/internal/secret"
)

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Loads and validates the configuration. In local signing mode the signing
secret is also read once to make sure it is usable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			fmt.Printf("%s configuration is invalid: %v\n", redCross, err)
			return fmt.Errorf("configuration invalid")
		}

		sel := policy.NewSelector(cfg.GuestToken)
		if sel.LocalSigningEnabled() {
			secrets := secret.NewProvider(cfg.GuestToken.SecretFile, cfg.GuestToken.Secret)
			if _, err := secrets.Resolve(cmd.Context()); err != nil {
				fmt.Printf("%s signing secret is not usable: %v\n", redCross, err)
				return fmt.Errorf("configuration invalid")
			}
		}

		fmt.Printf("%s configuration is valid (mode: %s)\n", greenCheck, bold(sel.Mode().String()))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

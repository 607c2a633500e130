package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/guestgate/internal/core"
)

var (
	mintIdentity    string
	mintDashboardID string
	mintRLS         []string
)

var tokenMintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Sign a guest token locally",
	Long: `Signs a guest token with the configured secret without starting a server.
This is useful to test an embedding setup. The token is printed to stdout.`,
	Example: `  guestgate token mint --secret-file ./secret --identity alice --dashboard abc-123
  guestgate token mint --secret dev --identity alice --dashboard abc-123 --rls "region = 'EU'"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		if !cfg.GuestToken.HasSecret() {
			return fmt.Errorf("no signing secret configured (use --secret-file or --secret)")
		}

		rls, err := parseRLS(mintRLS)
		if err != nil {
			return err
		}

		sig, _ := f.Signer(cfg)
		token, err := sig.Sign(cmd.Context(), mintIdentity, mintDashboardID, rls)
		if err != nil {
			return err
		}

		log.Info().
			Str("mode", core.ModeLocalSigning.String()).
			Str("expires_at", token.ExpiresAt.Format(time.RFC3339)).
			Msg("Signed guest token")
		fmt.Println(token.Value)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenMintCmd)

	tokenMintCmd.Flags().StringVar(&mintIdentity, "identity", "", "Username embedded into the token")
	tokenMintCmd.Flags().StringVar(&mintDashboardID, "dashboard", "", "Dashboard the token grants access to")
	tokenMintCmd.Flags().StringArrayVar(&mintRLS, "rls", nil, "RLS clause or JSON rule (repeatable)")

	_ = tokenMintCmd.MarkFlagRequired("identity")
	_ = tokenMintCmd.MarkFlagRequired("dashboard")
}

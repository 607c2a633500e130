package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/pkg/client"
)

var (
	requestDashboardID string
	requestRLS         []string
	requestIdentity    string
	requestDomain      string
	requestUsername    string
	requestPassword    string
)

var tokenRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a guest token from a running server",
	Example: `  guestgate token request --server http://localhost:3001 --dashboard abc-123 --identity alice
  guestgate token request --server http://localhost:3001 --dashboard abc-123 \
    --superset-domain https://superset.example.com --superset-username admin --superset-password ...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rls, err := parseRLS(requestRLS)
		if err != nil {
			return err
		}

		var opts []client.Option
		if requestIdentity != "" {
			opts = append(opts, client.WithIdentity(viper.GetString(config.UsernameHeaderKey), requestIdentity))
		}
		cli, err := f.GetClient(opts...)
		if err != nil {
			return err
		}

		log.Debug().Msg("Requesting guest token from server...")
		token, correlation, err := cli.IssueGuestToken(cmd.Context(), client.GuestTokenOptions{
			DashboardID:      requestDashboardID,
			RLS:              rls,
			SupersetDomain:   requestDomain,
			SupersetUsername: requestUsername,
			SupersetPassword: requestPassword,
		})
		if err != nil {
			return logError(err, correlation, "failed to request guest token")
		}

		log.Info().Str("correlation_id", correlation).Msg("Received guest token")
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenRequestCmd)

	flags := tokenRequestCmd.Flags()
	flags.StringVar(&requestDashboardID, "dashboard", "", "Dashboard to request a token for")
	flags.StringArrayVar(&requestRLS, "rls", nil, "RLS clause or JSON rule (repeatable)")
	flags.StringVar(&requestIdentity, "identity", "", "Identity sent in the username header")
	flags.StringVar(&requestDomain, "superset-domain", "", "Superset base URL (upstream mode)")
	flags.StringVar(&requestUsername, "superset-username", "", "Superset username (upstream mode)")
	flags.StringVar(&requestPassword, "superset-password", "", "Superset password (upstream mode)")

	_ = tokenRequestCmd.MarkFlagRequired("dashboard")
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/darmiel/guestgate/internal/secret"
	"github.com/darmiel/guestgate/internal/signer"
)

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect [token]",
	Short: "Verify a locally signed guest token and show its claims",
	Long: `Verifies the signature, expiry and audience of a guest token with the
configured secret and prints its claims. Reads the token from stdin if no
argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}

		raw, err := readTokenArg(args, os.Stdin)
		if err != nil {
			return err
		}

		secrets := secret.NewProvider(cfg.GuestToken.SecretFile, cfg.GuestToken.Secret)
		key, err := secrets.Resolve(cmd.Context())
		if err != nil {
			return err
		}

		claims, err := signer.Parse(raw, key, cfg.GuestToken.Audience)
		if err != nil {
			fmt.Printf("%s token is invalid: %v\n", redCross, err)
			return fmt.Errorf("token verification failed")
		}

		fmt.Printf("%s token is valid\n\n", greenCheck)
		printClaims(claims)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenInspectCmd)
}

func readTokenArg(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, 64<<10))
	if err != nil {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("no token given")
	}
	return token, nil
}

func printClaims(claims *signer.Claims) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Claim", "Value"})

	t.AppendRow(table.Row{"type", claims.Type})
	t.AppendRow(table.Row{"user", fmt.Sprintf("%s (%s %s)",
		claims.User.Username, claims.User.FirstName, claims.User.LastName)})
	for _, res := range claims.Resources {
		t.AppendRow(table.Row{"resource", res.Type + ":" + res.ID})
	}
	for i, rule := range claims.RLSRules {
		t.AppendRow(table.Row{fmt.Sprintf("rls[%d]", i), truncate(rule.Clause, 60)})
	}
	if len(claims.Audience) > 0 {
		t.AppendRow(table.Row{"aud", strings.Join(claims.Audience, ", ")})
	}
	if claims.IssuedAt != nil {
		t.AppendRow(table.Row{"iat", claims.IssuedAt.Format(time.RFC3339)})
	}
	if claims.ExpiresAt != nil {
		remaining := time.Until(claims.ExpiresAt.Time).Round(time.Second)
		t.AppendRow(table.Row{"exp", fmt.Sprintf("%s %s",
			claims.ExpiresAt.Format(time.RFC3339), faint(fmt.Sprintf("(in %s)", remaining)))})
	}

	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
	t.Render()
}

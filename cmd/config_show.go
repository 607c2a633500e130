package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/internal/policy"
)

var configShowOutput string

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Prints the configuration after merging defaults, config file, environment
and flags. Inline secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}
		redacted := cfg.Redacted()

		switch strings.ToLower(configShowOutput) {
		case "yaml":
			out, err := yaml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("marshalling config: %w", err)
			}
			fmt.Print(string(out))
		case "table", "":
			printConfigTable(&redacted)
		default:
			return fmt.Errorf("unknown output format %q (use table or yaml)", configShowOutput)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().StringVarP(&configShowOutput, "output", "o", "table", "Output format (table, yaml)")
}

func printConfigTable(cfg *config.Config) {
	mode := policy.NewSelector(cfg.GuestToken).Mode()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Key", "Value"})

	t.AppendRow(table.Row{bold("mode"), mode.String()})
	t.AppendSeparator()
	t.AppendRow(table.Row{config.SecretFileKey, orNone(cfg.GuestToken.SecretFile)})
	t.AppendRow(table.Row{config.SecretKey, orNone(cfg.GuestToken.Secret)})
	t.AppendRow(table.Row{config.AudienceKey, orNone(cfg.GuestToken.Audience)})
	t.AppendRow(table.Row{config.ExpirationSecondsKey, cfg.GuestToken.ExpirationSeconds})
	t.AppendRow(table.Row{config.UsernameHeaderKey, cfg.GuestToken.UsernameHeader})
	t.AppendSeparator()
	t.AppendRow(table.Row{config.FrontendDomainKey, orNone(cfg.Superset.FrontendDomain)})
	t.AppendRow(table.Row{config.APIDomainKey, orNone(cfg.Superset.APIDomain)})
	t.AppendRow(table.Row{config.PermalinkDomainKey, orNone(cfg.Superset.PermalinkDomain)})
	t.AppendRow(table.Row{config.UpstreamTimeoutKey, cfg.Upstream.Timeout})
	t.AppendSeparator()
	t.AppendRow(table.Row{config.AddrKey, cfg.Server.Addr})
	t.AppendRow(table.Row{config.CORSOriginKey, cfg.Server.CORSOrigin})
	t.AppendRow(table.Row{config.ExposeErrorDetailsKey, cfg.Server.ExposeErrorDetails})
	t.AppendSeparator()
	t.AppendRow(table.Row{config.AuditEnabledKey, cfg.Audit.Enabled})
	t.AppendRow(table.Row{config.AuditTypeKey, cfg.Audit.Type})
	t.AppendRow(table.Row{config.AuditPathKey, orNone(cfg.Audit.Path)})

	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
	t.Render()
}

func orNone(s string) string {
	if s == "" {
		return faint("(none)")
	}
	return s
}

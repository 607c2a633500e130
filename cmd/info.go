package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/guestgate/internal/api"
	"github.com/darmiel/guestgate/internal/buildinfo"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the guestgate installation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if f.RemoteAddr == "" {
			return infoLocally(cmd, args)
		}
		return infoRemote(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func infoRemote(cmd *cobra.Command, _ []string) error {
	cli, err := f.GetClient()
	if err != nil {
		return err
	}
	log.Info().Msg("Fetching build info from server...")
	info, correlation, err := cli.Info(cmd.Context())
	if err != nil {
		return logError(err, correlation, "failed to get info from server")
	}
	printInfo(info)

	cfg, correlation, err := cli.Config(cmd.Context())
	if err != nil {
		return logError(err, correlation, "failed to get config from server")
	}
	printRemoteConfig(cfg)
	return nil
}

func infoLocally(_ *cobra.Command, _ []string) error {
	log.Info().Msg("Showing local build info...")
	info := buildinfo.GetBuildInfo()
	printInfo(&info)
	return nil
}

func printInfo(info *buildinfo.Info) {
	fmt.Println(bold("\n── guestgate Build Information ──"))
	fmt.Printf("  %s:    %s\n", faint("Version"), info.Version)
	commit := info.CommitHash
	if info.Modified {
		commit += " " + faint("(modified)")
	}
	fmt.Printf("  %s:     %s\n", faint("Commit"), commit)
	if info.GoVersion != "" {
		fmt.Printf("  %s: %s\n", faint("Go version"), info.GoVersion)
	}
}

func printRemoteConfig(cfg *api.ConfigResponse) {
	fmt.Println(bold("\n── Server Configuration ──"))
	fmt.Printf("  %s: %t\n", faint("Local signing"), cfg.JWTAuthEnabled)
	fmt.Printf("  %s:      %s\n", faint("Frontend"), orNone(cfg.SupersetFrontendDomain))
	fmt.Printf("  %s:           %s\n", faint("API"), orNone(cfg.SupersetAPIDomain))
	fmt.Printf("  %s:     %s\n", faint("Permalink"), orNone(cfg.PermalinkDomain))
}

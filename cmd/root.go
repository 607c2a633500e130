package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/guestgate/internal/buildinfo"
	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/internal/logging"
)

// global flags
var (
	configFile string
	remoteAddr string
)

var f = NewFactory()

var rootCmd = &cobra.Command{
	Use:   "guestgate",
	Short: fmt.Sprintf("guestgate (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `guestgate issues short-lived guest tokens for embedded Superset dashboards.
	Tokens are either signed locally with a shared secret, or requested from
	Superset using credentials supplied with the request.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		logging.Init(os.Stderr,
			viper.GetString(config.LogLevelKey),
			viper.GetString(config.LogFormatKey),
			viper.GetBool(config.LogNoColorKey))
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using config file: %s", configPath)
		}
		f.RemoteAddr = remoteAddr
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Configuration file (default is ./guestgate.yaml if present)")
	flags.StringVar(&remoteAddr, "server", "", "Address of a remote guestgate server")

	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(config.LogLevelKey, flags.Lookup("log-level"))

	flags.String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(config.LogFormatKey, flags.Lookup("log-format"))

	flags.Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(config.LogNoColorKey, flags.Lookup("no-color"))

	bindGuestTokenFlags(flags)

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func initConfig() (string, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("guestgate")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFoundError) {
			return "", fmt.Errorf("reading config file: %w", err)
		}
		return "", nil
	}
	return viper.ConfigFileUsed(), nil
}

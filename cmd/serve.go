package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/guestgate/internal/api"
	"github.com/darmiel/guestgate/internal/config"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the guest token server",
	Long: `Starts the HTTP server issuing guest tokens.

If a signing secret is configured (--secret-file or --secret), tokens are signed
locally for the identity found in the username header. Otherwise tokens are
requested from Superset with the credentials sent by the caller.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			return err
		}

		svc, auditor, err := f.TokenService(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := auditor.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close auditor")
			}
		}()

		if cfg.GuestToken.SecretFile != "" && cfg.GuestToken.Secret != "" {
			log.Warn().Msg("Both secret file and inline secret are set, using the secret file")
		}
		log.Info().
			Str("mode", svc.Mode().String()).
			Str("username_header", cfg.GuestToken.UsernameHeader).
			Dur("ttl", cfg.GuestToken.TTL()).
			Msg("Initialized guest token issuance")

		srv := api.NewServer(cfg, svc)
		server := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErr := make(chan error, 1)
		go func() {
			log.Info().Msgf("Starting server on %s...", cfg.Server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
			close(serverErr)
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err, ok := <-serverErr:
			if ok {
				return fmt.Errorf("server crashed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()

	flags.String("addr", "", "Address to listen on (default \":3001\" or \":$PORT\")")
	_ = viper.BindPFlag(config.AddrKey, flags.Lookup("addr"))

	flags.String("cors-origin", config.DefaultCORSOrigin, "Origin allowed to call the API from a browser")
	_ = viper.BindPFlag(config.CORSOriginKey, flags.Lookup("cors-origin"))

	flags.Duration("upstream-timeout", config.MaxUpstreamTimeout, "Timeout of each call to Superset")
	_ = viper.BindPFlag(config.UpstreamTimeoutKey, flags.Lookup("upstream-timeout"))

	flags.Bool("expose-error-details", false, "Include internal error details in responses (never in production)")
	_ = viper.BindPFlag(config.ExposeErrorDetailsKey, flags.Lookup("expose-error-details"))
}

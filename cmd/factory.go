package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/guestgate/internal/audit"
	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/internal/core"
	"github.com/darmiel/guestgate/internal/policy"
	"github.com/darmiel/guestgate/internal/secret"
	"github.com/darmiel/guestgate/internal/service"
	"github.com/darmiel/guestgate/internal/signer"
	"github.com/darmiel/guestgate/internal/superset"
	"github.com/darmiel/guestgate/pkg/client"
)

type Factory struct {
	// RemoteAddr is the address of the guestgate server to connect to.
	RemoteAddr string
}

func NewFactory() *Factory {
	return &Factory{}
}

// LoadConfig resolves the configuration from flags, environment and config file.
func (f *Factory) LoadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// Signer returns the local signer and its secret provider for cfg.
func (f *Factory) Signer(cfg *config.Config) (*signer.Signer, *secret.Provider) {
	secrets := secret.NewProvider(cfg.GuestToken.SecretFile, cfg.GuestToken.Secret)
	return signer.New(secrets, cfg.GuestToken.TTL(), signer.WithAudience(cfg.GuestToken.Audience)), secrets
}

// TokenService wires the issuance components for cfg.
// The returned auditor must be closed by the caller.
func (f *Factory) TokenService(cfg *config.Config) (*service.TokenService, core.Auditor, error) {
	auditor, err := audit.New(cfg.Audit)
	if err != nil {
		return nil, nil, fmt.Errorf("creating auditor: %w", err)
	}
	sig, _ := f.Signer(cfg)
	svc := service.NewTokenService(
		policy.NewSelector(cfg.GuestToken),
		sig,
		superset.NewBroker(cfg.Upstream.Timeout),
		auditor,
	)
	return svc, auditor, nil
}

// GetClient returns a client for the remote server.
func (f *Factory) GetClient(opts ...client.Option) (*client.Client, error) {
	if f.RemoteAddr == "" {
		return nil, fmt.Errorf("server address not configured (use --server)")
	}
	return client.New(f.RemoteAddr, opts...), nil
}

// bindGuestTokenFlags registers the flags shared by all commands that sign or verify tokens.
func bindGuestTokenFlags(flags *pflag.FlagSet) {
	flags.String("secret-file", "", "File containing the guest token signing secret")
	_ = viper.BindPFlag(config.SecretFileKey, flags.Lookup("secret-file"))

	flags.String("secret", "", "Inline guest token signing secret (development only)")
	_ = viper.BindPFlag(config.SecretKey, flags.Lookup("secret"))

	flags.String("audience", "", "Audience claim of signed guest tokens")
	_ = viper.BindPFlag(config.AudienceKey, flags.Lookup("audience"))

	flags.Int("ttl-seconds", config.DefaultExpirationSeconds, "Lifetime of signed guest tokens in seconds")
	_ = viper.BindPFlag(config.ExpirationSecondsKey, flags.Lookup("ttl-seconds"))

	flags.String("username-header", config.DefaultUsernameHeader, "Header carrying the trusted caller identity")
	_ = viper.BindPFlag(config.UsernameHeaderKey, flags.Lookup("username-header"))
}

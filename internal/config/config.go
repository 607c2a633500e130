package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Keys of the viper settings tree.
const (
	SecretFileKey        = "guest_token.secret_file"
	SecretKey            = "guest_token.secret"
	AudienceKey          = "guest_token.audience"
	ExpirationSecondsKey = "guest_token.expiration_seconds"
	UsernameHeaderKey    = "guest_token.username_header"

	FrontendDomainKey  = "superset.frontend_domain"
	APIDomainKey       = "superset.api_domain"
	PermalinkDomainKey = "superset.permalink_domain"

	UpstreamTimeoutKey = "upstream.timeout"

	AddrKey               = "server.addr"
	PortKey               = "server.port"
	CORSOriginKey         = "server.cors_origin"
	ExposeErrorDetailsKey = "server.expose_error_details"

	AuditEnabledKey = "audit.enabled"
	AuditTypeKey    = "audit.type"
	AuditPathKey    = "audit.path"

	LogLevelKey   = "log.level"
	LogFormatKey  = "log.format"
	LogNoColorKey = "log.no_color"
)

const (
	DefaultExpirationSeconds = 300
	DefaultUsernameHeader    = "x-internalauth-username"
	DefaultAddr              = ":3001"
	DefaultCORSOrigin        = "http://localhost:3000"

	// MaxUpstreamTimeout is the upper bound for a single call to the analytics platform.
	MaxUpstreamTimeout = 30 * time.Second
)

const (
	AuditTypeFile   = "file"
	AuditTypeMemory = "memory"
)

// envBindings maps settings keys to the environment variables the service reads.
var envBindings = map[string]string{
	SecretFileKey:         "GUEST_TOKEN_SECRET_FILE",
	SecretKey:             "GUEST_TOKEN_SECRET",
	AudienceKey:           "GUEST_TOKEN_AUDIENCE",
	ExpirationSecondsKey:  "GUEST_TOKEN_EXPIRATION_SECONDS",
	UsernameHeaderKey:     "JWT_USERNAME_HEADER",
	FrontendDomainKey:     "SUPERSET_FRONTEND_DOMAIN",
	APIDomainKey:          "SUPERSET_API_DOMAIN",
	PermalinkDomainKey:    "PERMALINK_DOMAIN",
	UpstreamTimeoutKey:    "UPSTREAM_TIMEOUT",
	AddrKey:               "ADDR",
	PortKey:               "PORT",
	CORSOriginKey:         "CORS_ORIGIN",
	ExposeErrorDetailsKey: "EXPOSE_ERROR_DETAILS",
	AuditEnabledKey:       "AUDIT_ENABLED",
	AuditTypeKey:          "AUDIT_TYPE",
	AuditPathKey:          "AUDIT_PATH",
	LogLevelKey:           "LOG_LEVEL",
	LogFormatKey:          "LOG_FORMAT",
	LogNoColorKey:         "LOG_NO_COLOR",
}

// Config is the process-wide configuration, resolved once at startup.
type Config struct {
	GuestToken GuestTokenConfig `mapstructure:"guest_token" yaml:"guest_token"`
	Superset   SupersetConfig   `mapstructure:"superset" yaml:"superset"`
	Upstream   UpstreamConfig   `mapstructure:"upstream" yaml:"upstream"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Audit      AuditConfig      `mapstructure:"audit" yaml:"audit"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// GuestTokenConfig controls how guest tokens are signed locally.
// If neither SecretFile nor Secret is set, tokens are requested from the platform instead.
type GuestTokenConfig struct {
	// SecretFile is a path to a file containing the signing secret.
	// It takes precedence over Secret.
	SecretFile string `mapstructure:"secret_file" yaml:"secret_file,omitempty"`

	// Secret is the inline signing secret (development / testing).
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// Audience is added as "aud" claim if set.
	Audience string `mapstructure:"audience" yaml:"audience,omitempty"`

	ExpirationSeconds int `mapstructure:"expiration_seconds" yaml:"expiration_seconds"`

	// UsernameHeader is the header a fronting proxy sets to the authenticated username.
	UsernameHeader string `mapstructure:"username_header" yaml:"username_header"`
}

// HasSecret reports whether a signing secret source is configured.
func (c GuestTokenConfig) HasSecret() bool {
	return c.SecretFile != "" || c.Secret != ""
}

// TTL returns the lifetime of locally signed tokens.
func (c GuestTokenConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationSeconds) * time.Second
}

// SupersetConfig holds pre-configured platform domains handed to the UI.
type SupersetConfig struct {
	FrontendDomain  string `mapstructure:"frontend_domain" yaml:"frontend_domain,omitempty"`
	APIDomain       string `mapstructure:"api_domain" yaml:"api_domain,omitempty"`
	PermalinkDomain string `mapstructure:"permalink_domain" yaml:"permalink_domain,omitempty"`
}

type UpstreamConfig struct {
	// Timeout bounds each call to the analytics platform.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`

	// Port is only used when Addr is not set explicitly.
	Port string `mapstructure:"port" yaml:"port,omitempty"`

	CORSOrigin string `mapstructure:"cors_origin" yaml:"cors_origin"`

	// ExposeErrorDetails adds the full error chain to error responses.
	// Never enable this in production.
	ExposeErrorDetails bool `mapstructure:"expose_error_details" yaml:"expose_error_details"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Type    string `mapstructure:"type" yaml:"type"` // e.g., "file", "memory"
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Format  string `mapstructure:"format" yaml:"format"`
	NoColor bool   `mapstructure:"no_color" yaml:"no_color"`
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(SecretFileKey, "")
	v.SetDefault(SecretKey, "")
	v.SetDefault(AudienceKey, "")
	v.SetDefault(ExpirationSecondsKey, DefaultExpirationSeconds)
	v.SetDefault(UsernameHeaderKey, DefaultUsernameHeader)
	v.SetDefault(FrontendDomainKey, "")
	v.SetDefault(APIDomainKey, "")
	v.SetDefault(PermalinkDomainKey, "")
	v.SetDefault(UpstreamTimeoutKey, MaxUpstreamTimeout)
	v.SetDefault(AddrKey, "")
	v.SetDefault(PortKey, "")
	v.SetDefault(CORSOriginKey, DefaultCORSOrigin)
	v.SetDefault(ExposeErrorDetailsKey, false)
	v.SetDefault(AuditEnabledKey, false)
	v.SetDefault(AuditTypeKey, AuditTypeFile)
	v.SetDefault(AuditPathKey, "")
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LogFormatKey, "console")
	v.SetDefault(LogNoColorKey, false)

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// FromViper decodes the settings of v into a validated Config.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.GuestToken.SecretFile = strings.TrimSpace(c.GuestToken.SecretFile)
	c.GuestToken.UsernameHeader = strings.TrimSpace(c.GuestToken.UsernameHeader)
	if c.Server.Addr == "" {
		if c.Server.Port != "" {
			c.Server.Addr = ":" + c.Server.Port
		} else {
			c.Server.Addr = DefaultAddr
		}
	}
	if c.Audit.Type == "" {
		c.Audit.Type = AuditTypeFile
	}
}

func (c *Config) Validate() error {
	if c.GuestToken.ExpirationSeconds <= 0 {
		return fmt.Errorf("guest token expiration must be positive, got %d", c.GuestToken.ExpirationSeconds)
	}
	if c.GuestToken.UsernameHeader == "" {
		return fmt.Errorf("username header must not be empty")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	if c.Upstream.Timeout > MaxUpstreamTimeout {
		return fmt.Errorf("upstream timeout %s exceeds maximum of %s", c.Upstream.Timeout, MaxUpstreamTimeout)
	}
	for name, domain := range map[string]string{
		"superset frontend domain":  c.Superset.FrontendDomain,
		"superset api domain":       c.Superset.APIDomain,
		"superset permalink domain": c.Superset.PermalinkDomain,
	} {
		if domain == "" {
			continue
		}
		if _, err := url.ParseRequestURI(domain); err != nil {
			return fmt.Errorf("%s %q is not a valid URL: %w", name, domain, err)
		}
	}
	if c.Audit.Enabled {
		switch c.Audit.Type {
		case AuditTypeFile:
			if c.Audit.Path == "" {
				return fmt.Errorf("audit path is required for audit type %q", AuditTypeFile)
			}
		case AuditTypeMemory:
		default:
			return fmt.Errorf("unknown audit type %q", c.Audit.Type)
		}
	}
	return nil
}

// Redacted returns a copy of c with secret material masked.
func (c Config) Redacted() Config {
	if c.GuestToken.Secret != "" {
		c.GuestToken.Secret = "********"
	}
	return c
}

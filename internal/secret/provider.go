// Package secret resolves the guest token signing secret.
package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/darmiel/guestgate/internal/core"
)

// ErrNoSecret is returned when neither a secret file nor an inline secret is configured.
var ErrNoSecret = errors.New("no signing secret configured")

// Provider resolves the signing secret once and caches it for the lifetime of the process.
// A failed resolution is not cached, so fixing the secret file takes effect on the next call.
type Provider struct {
	filePath string
	inline   string

	cached atomic.Pointer[[]byte]
	group  singleflight.Group

	// readFile is swapped in tests.
	readFile func(name string) ([]byte, error)
}

func NewProvider(filePath, inline string) *Provider {
	return &Provider{
		filePath: filePath,
		inline:   inline,
		readFile: os.ReadFile,
	}
}

// Resolve returns the signing secret.
// The secret file, if configured, is read and trimmed on the first successful call only.
func (p *Provider) Resolve(ctx context.Context) ([]byte, error) {
	if s := p.cached.Load(); s != nil {
		return *s, nil
	}

	v, err, _ := p.group.Do("secret", func() (any, error) {
		if s := p.cached.Load(); s != nil {
			return *s, nil
		}
		s, err := p.load()
		if err != nil {
			return nil, err
		}
		p.cached.Store(&s)
		return s, nil
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to resolve signing secret")
		return nil, err
	}
	return v.([]byte), nil
}

func (p *Provider) load() ([]byte, error) {
	switch {
	case p.filePath != "":
		data, err := p.readFile(p.filePath)
		if err != nil {
			return nil, core.ConfigurationError("signing secret could not be read",
				fmt.Errorf("reading secret from file %s: %w", p.filePath, err))
		}
		s := strings.TrimSpace(string(data))
		if s == "" {
			return nil, core.ConfigurationError("signing secret could not be read",
				fmt.Errorf("secret file %s is empty", p.filePath))
		}
		return []byte(s), nil
	case p.inline != "":
		return []byte(p.inline), nil
	default:
		return nil, core.ConfigurationError("no signing secret configured", ErrNoSecret)
	}
}

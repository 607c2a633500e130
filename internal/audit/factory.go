package audit

import (
	"fmt"

	"github.com/darmiel/guestgate/internal/config"
	"github.com/darmiel/guestgate/internal/core"
)

// New returns the auditor described by cfg.
func New(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewLogAuditor(), nil
	}
	switch cfg.Type {
	case config.AuditTypeFile:
		return NewFileAuditor(cfg.Path)
	case config.AuditTypeMemory:
		return NewInMemoryAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown audit type %q", cfg.Type)
	}
}

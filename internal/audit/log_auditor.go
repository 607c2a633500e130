package audit

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/guestgate/internal/core"
)

var _ core.Auditor = (*LogAuditor)(nil)

// LogAuditor is used when auditing is disabled.
// Entries are only written to the debug log, without identities.
type LogAuditor struct {
	logger zerolog.Logger
}

func NewLogAuditor() *LogAuditor {
	return &LogAuditor{logger: log.Logger}
}

// NewLogAuditorWith writes to logger instead of the global logger.
func NewLogAuditorWith(logger zerolog.Logger) *LogAuditor {
	return &LogAuditor{logger: logger}
}

func (l *LogAuditor) Log(entry core.AuditEntry) error {
	l.logger.Debug().
		Str("correlation_id", entry.ID).
		Str("action", entry.Action).
		Str("mode", entry.Mode).
		Str("dashboard_id", entry.DashboardID).
		Int("rls_count", entry.RLSCount).
		Bool("success", entry.Success).
		Str("error_kind", string(entry.ErrorKind)).
		Str("token_fingerprint", entry.TokenFingerprint).
		Msg("guest token issuance")
	return nil
}

func (l *LogAuditor) Close() error {
	return nil
}

package audit

import (
	"fmt"

	"github.com/darmiel/guestgate/internal/buildinfo"
)

// CreateUserAgent returns the User-Agent sent to the analytics platform,
// so that upstream logs can be correlated with guestgate requests.
func CreateUserAgent(correlationID string) string {
	return fmt.Sprintf("guestgate/%s (correlation_id=%s)", buildinfo.Version, correlationID)
}

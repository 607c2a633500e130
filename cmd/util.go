package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/guestgate/internal/core"
	"github.com/darmiel/guestgate/pkg/client"
)

var (
	bold       = color.New(color.Bold).SprintFunc()
	faint      = color.New(color.Faint).SprintFunc()
	greenCheck = color.GreenString("✔")
	redCross   = color.RedString("✘")
)

// logError logs err together with the server correlation id and returns a short error for cobra.
func logError(err error, correlation, msg string) error {
	event := log.Error().Err(err)
	if correlation != "" {
		event = event.Str("correlation_id", correlation)
	}
	var apiErr client.APIError
	if errors.As(err, &apiErr) {
		event = event.Int("status", apiErr.StatusCode).Str("kind", string(apiErr.Kind))
		if apiErr.UpstreamMessage != "" {
			event = event.Str("upstream_message", apiErr.UpstreamMessage)
		}
	}
	event.Msg(msg)
	return errors.New(msg)
}

// parseRLS turns --rls values into rules.
// A value is either a bare clause or a JSON object like {"dataset": 1, "clause": "..."}.
func parseRLS(values []string) ([]core.RLSRule, error) {
	rules := make([]core.RLSRule, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if !strings.HasPrefix(trimmed, "{") {
			rules = append(rules, core.RLSRule{Clause: value})
			continue
		}
		var rule core.RLSRule
		if err := json.Unmarshal([]byte(trimmed), &rule); err != nil {
			return nil, fmt.Errorf("invalid rls rule %q: %w", value, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

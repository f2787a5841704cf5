package utils

import (
	"strings"
	"time"

	"github.com/benedict-erwin/license-console/pkg/logger"
)

var appLocation = time.UTC

// InitTimezone sets the display timezone, falling back to UTC
func InitTimezone(timezone string) error {
	if timezone == "" {
		appLocation = time.UTC
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", timezone).Msg("Failed to load timezone, using UTC")
		appLocation = time.UTC
		return err
	}

	appLocation = loc
	logger.Debug().Str("timezone", timezone).Msg("Timezone initialized")
	return nil
}

// Now returns current time in application timezone
func Now() time.Time {
	return time.Now().In(appLocation)
}

// FormatTime formats given time to application timezone
func FormatTime(t time.Time) string {
	return t.In(appLocation).Format(time.RFC3339)
}

// GetLocation returns the current application location
func GetLocation() *time.Location {
	return appLocation
}

// Truncate shortens s to max runes, marking the cut with "..."
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 3 || len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

package helpers

import (
	"time"

	"github.com/rs/zerolog"
)

// DurationSetting parses a configured duration. Empty, malformed and
// non-positive values fall back to def and are reported on logger.
func DurationSetting(logger zerolog.Logger, name, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn().Err(err).
			Str("setting", name).
			Str("value", value).
			Dur("default", def).
			Msg("Invalid duration setting, using default")
		return def
	}
	return d
}

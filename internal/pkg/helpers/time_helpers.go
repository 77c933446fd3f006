package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a positive duration such as "15m" or "720h". An empty
// string yields fallback silently; malformed or non-positive values yield
// fallback with a warning.
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Warn().Err(err).Str("value", value).Dur("fallback", fallback).Msg("Unusable duration, using fallback")
		return fallback
	}
	return d
}

package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal images

	"github.com/rs/zerolog"
)

// ErrInvalidTimezone is returned when a zone name cannot be resolved.
var ErrInvalidTimezone = errors.New("invalid timezone")

// Load resolves an IANA zone name. An empty name resolves to UTC.
func Load(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utc") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

// LoadOrUTC resolves name and falls back to UTC with a warning when it is invalid.
func LoadOrUTC(logger zerolog.Logger, name string) *time.Location {
	loc, err := Load(name)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", name).Msg("falling back to UTC")
		return time.UTC
	}
	return loc
}

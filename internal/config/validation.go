package config

import (
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

var configValidators = foundation.NewValidatorChain[*Config](
	foundation.Required("source.dir", func(c *Config) string { return c.Source.Dir }),
	foundation.Required("output.dir", func(c *Config) string { return c.Output.Dir }),
	validateDebounce,
	foundation.NonNegative("build.workers", func(c *Config) int { return c.Build.Workers }),
	foundation.NonNegative("manifest.write_retries", func(c *Config) int { return c.Manifest.WriteRetries }),
)

// Validate checks cross-field constraints and reports every violation at
// once. The cron expression is checked when the scheduler is built.
func Validate(cfg *Config) error {
	return foundation.ToError(ferrors.CategoryConfig, configValidators.Validate(cfg))
}

func validateDebounce(c *Config) []foundation.FieldError {
	d, err := time.ParseDuration(c.Watch.Debounce)
	switch {
	case err != nil:
		return []foundation.FieldError{{Field: "watch.debounce", Code: "duration", Message: "is not a duration", Value: c.Watch.Debounce}}
	case d <= 0:
		return []foundation.FieldError{{Field: "watch.debounce", Code: "positive", Message: "must be positive", Value: c.Watch.Debounce}}
	default:
		return nil
	}
}

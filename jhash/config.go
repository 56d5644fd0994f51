package jhash

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// CleanupFunc is called for entries a Hash drops: the removed entry on
// Delete and every remaining entry on Free.
type CleanupFunc func(key string, value any)

// Config holds configuration for a Hash.
type Config struct {
	// ErrorPolicy decides how engine faults are surfaced.
	// Default: StderrPolicy()
	ErrorPolicy ErrorPolicy

	// Cleanup is called for dropped entries. Optional.
	Cleanup CleanupFunc

	// Logger receives debug output about the handle lifecycle.
	// Default: slog.Default()
	Logger *slog.Logger

	// Registerer enables operation counters when set.
	Registerer prometheus.Registerer
}

// DefaultConfig returns a Config that reports engine faults to stderr and
// keeps running.
func DefaultConfig() Config {
	return Config{
		ErrorPolicy: StderrPolicy(),
		Logger:      slog.Default(),
	}
}

// validate fills in defaults for unset fields.
func (c *Config) validate() {
	if c.ErrorPolicy == nil {
		c.ErrorPolicy = StderrPolicy()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

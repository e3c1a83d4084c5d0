package engine

import (
	"io"

	"github.com/sirupsen/logrus"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Generate()
// ============================================================================

// DefaultMaxBins caps the histogram bin count.
const DefaultMaxBins = 20

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	MaxBins int                // histogram bin cap
	Logger  logrus.FieldLogger // debug traces; discarded by default
}

// WithMaxBins overrides the histogram bin cap. Values below 1 are ignored.
func WithMaxBins(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.MaxBins = n
		}
	}
}

// WithLogger sets the logger used for generation traces.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		MaxBins: DefaultMaxBins,
		Logger:  discardLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

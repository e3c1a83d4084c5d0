package service

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mishradev1/Dev-PlotTest/engine"
	"github.com/mishradev1/Dev-PlotTest/helpers"
)

// DefaultMaxUploadBytes is the largest accepted upload.
const DefaultMaxUploadBytes = 10 << 20

// Preview paging limits.
const (
	DefaultPreviewLimit = 100
	MaxPreviewLimit     = 10000
)

// Option configures the Service via functional options pattern.
type Option func(*config)

type config struct {
	logger         logrus.FieldLogger
	registerer     prometheus.Registerer
	maxUploadBytes int64
	parse          helpers.ParseOptions
	engine         []engine.Option
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegisterer registers the service metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

// WithMaxUploadBytes caps accepted upload size. Values below 1 keep the default.
func WithMaxUploadBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithNullTokens replaces the cell texts read as Null.
func WithNullTokens(tokens []string) Option {
	return func(c *config) {
		if tokens != nil {
			c.parse.NullTokens = tokens
		}
	}
}

// WithEngineOptions passes options through to engine.Generate.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) { c.engine = append(c.engine, opts...) }
}

func applyOptions(opts []Option) *config {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	cfg := &config{
		logger:         discard,
		maxUploadBytes: DefaultMaxUploadBytes,
		parse:          helpers.DefaultParseOptions(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

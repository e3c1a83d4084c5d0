// Package logging builds the process logger from the logger config block.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config mirrors the "logger" block of the config file.
type Config struct {
	Level            string `mapstructure:"level"`
	Format           string `mapstructure:"format"`
	DisableTimestamp bool   `mapstructure:"disable_timestamp"`
}

// New returns a logger writing to stderr. Format is "text" or "json".
func New(cfg Config) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(cfg Config, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = out

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, errors.Wrapf(err, "logger level %q", cfg.Level)
	}
	log.Level = lvl

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		log.Formatter = &logrus.TextFormatter{
			DisableTimestamp: cfg.DisableTimestamp,
			FullTimestamp:    true,
		}
	case "json":
		log.Formatter = &logrus.JSONFormatter{
			DisableTimestamp: cfg.DisableTimestamp,
		}
	default:
		return nil, errors.Errorf("unknown logger format %q", cfg.Format)
	}
	return log, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

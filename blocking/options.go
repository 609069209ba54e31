package blocking

import (
	"io"
	"time"
)

type config struct {
	name          string
	logWriter     io.Writer
	statsInterval time.Duration
}

func newConfig(opts []Option) *config {
	cfg := &config{
		name:          "default",
		statsInterval: time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Option configures New.
type Option func(*config)

// WithName sets the name used in logs and metric names.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogWriter sends the logs to w, without colors, instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(c *config) {
		c.logWriter = w
	}
}

// WithStatsInterval sets how often RunStats logs throughput.
func WithStatsInterval(interval time.Duration) Option {
	return func(c *config) {
		c.statsInterval = interval
	}
}

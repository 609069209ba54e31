package uqueue

import "github.com/squadracorsepolito/ringq/alloc"

type config struct {
	allocator alloc.Allocator
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures New.
type Option func(*config)

// WithAllocator makes the queue allocate and free through a instead of the
// process-wide registered allocator.
func WithAllocator(a alloc.Allocator) Option {
	return func(c *config) {
		c.allocator = a
	}
}

package queue

import "github.com/squadracorsepolito/ringq/alloc"

type config struct {
	allocator alloc.Allocator
	buffer    []byte
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

// WithBuffer makes the queue store its elements in buf, which must be at
// least capacity*elemSize bytes long. The buffer is zeroed by New and is
// never returned to the allocator.
func WithBuffer(buf []byte) Option {
	return func(c *config) {
		c.buffer = buf
	}
}

package alloc

import "sync/atomic"

// Counting wraps an allocator and counts its traffic.
type Counting struct {
	a Allocator

	allocs   atomic.Uint64
	frees    atomic.Uint64
	failures atomic.Uint64
	bytes    atomic.Int64
}

// Stats is a snapshot of the counters of a Counting allocator.
type Stats struct {
	Allocs   uint64
	Frees    uint64
	Failures uint64
	InUse    int64
}

// WithStats wraps a with allocation counters.
func WithStats(a Allocator) *Counting {
	return &Counting{a: a}
}

func (c *Counting) Alloc(size int) []byte {
	buf := c.a.Alloc(size)
	if buf == nil {
		c.failures.Add(1)
		return nil
	}

	c.allocs.Add(1)
	c.bytes.Add(int64(len(buf)))

	return buf
}

func (c *Counting) Free(buf []byte) {
	c.frees.Add(1)
	c.bytes.Add(-int64(len(buf)))
	c.a.Free(buf)
}

// Unwrap returns the wrapped allocator.
func (c *Counting) Unwrap() Allocator {
	return c.a
}

func (c *Counting) Stats() Stats {
	return Stats{
		Allocs:   c.allocs.Load(),
		Frees:    c.frees.Load(),
		Failures: c.failures.Load(),
		InUse:    c.bytes.Load(),
	}
}

// AsResetter reports whether a, or an allocator it wraps, is a Resetter.
func AsResetter(a Allocator) (Resetter, bool) {
	for a != nil {
		if r, ok := a.(Resetter); ok {
			return r, true
		}

		u, ok := a.(interface{ Unwrap() Allocator })
		if !ok {
			return nil, false
		}
		a = u.Unwrap()
	}

	return nil, false
}

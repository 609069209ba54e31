package internal

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats accumulates per-interval throughput counters and logs them.
type Stats struct {
	l *Logger

	interval time.Duration

	inCount   atomic.Uint64
	outCount  atomic.Uint64
	byteCount atomic.Uint64
}

func NewStats(l *Logger, interval time.Duration) *Stats {
	if interval <= 0 {
		interval = time.Second
	}

	return &Stats{
		l:        l,
		interval: interval,
	}
}

// RunStats logs and resets the counters every interval until ctx is done.
func (s *Stats) RunStats(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in, out, bytes := s.Snapshot()
			if in == 0 && out == 0 {
				continue
			}

			s.l.Info("stats", "in_per_interval", in, "out_per_interval", out, "bytes_per_interval", bytes, "interval", s.interval)
		}
	}
}

// Snapshot returns and resets the counters.
func (s *Stats) Snapshot() (in, out, bytes uint64) {
	return s.inCount.Swap(0), s.outCount.Swap(0), s.byteCount.Swap(0)
}

func (s *Stats) IncrementIn() {
	s.inCount.Add(1)
}

func (s *Stats) IncrementOut() {
	s.outCount.Add(1)
}

func (s *Stats) IncrementByteCountBy(n int) {
	s.byteCount.Add(uint64(n))
}

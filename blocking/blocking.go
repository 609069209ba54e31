// Package blocking serializes access to a queue.Queue so that several
// goroutines can produce and consume through it.
//
// Write blocks while the queue is full and Read blocks while it is empty.
// Both give up when their context is done or when the Queue is closed.
package blocking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/squadracorsepolito/ringq"
	"github.com/squadracorsepolito/ringq/internal"
	"github.com/squadracorsepolito/ringq/queue"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sys/cpu"
)

var ErrClosed = errors.New("blocking queue: queue is closed")

// Queue is a goroutine-safe, closeable view of a queue.Queue.
type Queue struct {
	q     *queue.Queue
	esize int

	tel   *internal.Telemetry
	stats *internal.Stats

	_ cpu.CacheLinePad

	// isClosed states whether the queue is closed.
	isClosed atomic.Bool

	_ cpu.CacheLinePad

	// notEmpty and notFull are used to signal that the queue is not empty or full
	notEmpty *sync.Cond
	notFull  *sync.Cond
	mux      *sync.Mutex

	writtenCounter metric.Int64Counter
	readCounter    metric.Int64Counter
	droppedCounter metric.Int64Counter
	occupancy      metric.Int64UpDownCounter
}

// New wraps q. The caller must not use q directly afterwards, and may only
// destroy it once Close has returned and every Write and Read has returned.
func New(q *queue.Queue, opts ...Option) *Queue {
	cfg := newConfig(opts)

	var l *internal.Logger
	if cfg.logWriter != nil {
		l = internal.NewLoggerWithWriter("blocking", cfg.name, cfg.logWriter, true)
	} else {
		l = internal.NewLogger("blocking", cfg.name)
	}
	tel := internal.NewTelemetryWithLogger("blocking", cfg.name, l)

	mux := &sync.Mutex{}

	b := &Queue{
		q:     q,
		esize: q.ElemSize(),

		tel:   tel,
		stats: internal.NewStats(tel.Logger(), cfg.statsInterval),

		mux:      mux,
		notEmpty: sync.NewCond(mux),
		notFull:  sync.NewCond(mux),
	}

	b.writtenCounter = tel.NewCounter("written", metric.WithDescription("elements enqueued"))
	b.readCounter = tel.NewCounter("read", metric.WithDescription("elements dequeued"))
	b.droppedCounter = tel.NewCounter("dropped", metric.WithDescription("writes refused because the queue was closed"))
	b.occupancy = tel.NewUpDownCounter("occupancy", metric.WithDescription("elements currently queued"))

	return b
}

// wakeAll wakes every waiter so that it can re-check its context.
func (b *Queue) wakeAll() {
	b.mux.Lock()
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
	b.mux.Unlock()
}

func (b *Queue) onWritten(ctx context.Context) {
	b.writtenCounter.Add(ctx, 1)
	b.occupancy.Add(ctx, 1)
	b.stats.IncrementIn()
	b.stats.IncrementByteCountBy(b.esize)
}

func (b *Queue) onRead(ctx context.Context) {
	b.readCounter.Add(ctx, 1)
	b.occupancy.Add(ctx, -1)
	b.stats.IncrementOut()
}

// Write enqueues elem, waiting for room while the queue is full.
func (b *Queue) Write(ctx context.Context, elem []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.isClosed.Load() {
		b.droppedCounter.Add(ctx, 1)
		return ErrClosed
	}

	stop := context.AfterFunc(ctx, b.wakeAll)
	defer stop()

	b.mux.Lock()

	err := b.q.Enqueue(elem)
	if errors.Is(err, ringq.ErrFull) {
		err = b.waitWrite(ctx, elem)
	}

	if err != nil {
		b.mux.Unlock()

		if errors.Is(err, ErrClosed) {
			b.droppedCounter.Add(ctx, 1)
		}
		return err
	}

	// Signal queue as not empty to other goroutines
	b.notEmpty.Broadcast()
	b.mux.Unlock()

	b.onWritten(ctx)

	return nil
}

// waitWrite retries the enqueue until it succeeds. The lock must be held.
func (b *Queue) waitWrite(ctx context.Context, elem []byte) error {
	ctx, span := b.tel.NewTrace(ctx, "wait not full")
	defer span.End()

	start := time.Now()
	defer func() {
		span.SetAttributes(attribute.Int64("ringq.wait_us", time.Since(start).Microseconds()))
	}()

	for {
		if b.isClosed.Load() {
			return ErrClosed
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		err := b.q.Enqueue(elem)
		if !errors.Is(err, ringq.ErrFull) {
			return err
		}

		// Wait for room
		b.notFull.Wait()
	}
}

// Read dequeues the oldest element into dst, waiting while the queue is
// empty. After Close, Read keeps returning the remaining elements and then
// fails with ErrClosed.
func (b *Queue) Read(ctx context.Context, dst []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, b.wakeAll)
	defer stop()

	b.mux.Lock()

	err := b.q.Dequeue(dst)
	if errors.Is(err, ringq.ErrEmpty) {
		err = b.waitRead(ctx, dst)
	}

	if err != nil {
		b.mux.Unlock()
		return err
	}

	// Signal queue as not full to other goroutines
	b.notFull.Broadcast()
	b.mux.Unlock()

	b.onRead(ctx)

	return nil
}

// waitRead retries the dequeue until it succeeds. The lock must be held.
func (b *Queue) waitRead(ctx context.Context, dst []byte) error {
	for {
		err := b.q.Dequeue(dst)
		if !errors.Is(err, ringq.ErrEmpty) {
			return err
		}

		if b.isClosed.Load() {
			return ErrClosed
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		// Wait for data
		b.notEmpty.Wait()
	}
}

// TryWrite enqueues elem without waiting.
// It returns ringq.ErrFull when there is no room.
func (b *Queue) TryWrite(elem []byte) error {
	if b.isClosed.Load() {
		b.droppedCounter.Add(context.Background(), 1)
		return ErrClosed
	}

	b.mux.Lock()
	err := b.q.Enqueue(elem)
	if err == nil {
		b.notEmpty.Broadcast()
	}
	b.mux.Unlock()

	if err != nil {
		return err
	}

	b.onWritten(context.Background())
	return nil
}

// TryRead dequeues into dst without waiting.
// It returns ringq.ErrEmpty, or ErrClosed once closed and drained.
func (b *Queue) TryRead(dst []byte) error {
	b.mux.Lock()
	err := b.q.Dequeue(dst)
	if err == nil {
		b.notFull.Broadcast()
	}
	b.mux.Unlock()

	if errors.Is(err, ringq.ErrEmpty) && b.isClosed.Load() {
		return ErrClosed
	}
	if err != nil {
		return err
	}

	b.onRead(context.Background())
	return nil
}

// Len returns the number of queued elements.
func (b *Queue) Len() int {
	b.mux.Lock()
	defer b.mux.Unlock()

	return b.q.Size()
}

// Cap returns the capacity of the wrapped queue.
func (b *Queue) Cap() int {
	b.mux.Lock()
	defer b.mux.Unlock()

	return b.q.Cap()
}

// IsClosed reports whether Close has been called.
func (b *Queue) IsClosed() bool {
	return b.isClosed.Load()
}

// Close makes further writes fail and wakes every waiter.
// Calling Close more than once has no effect.
func (b *Queue) Close() {
	if b.isClosed.Swap(true) {
		return
	}

	b.mux.Lock()
	remaining := b.q.Size()
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
	b.mux.Unlock()

	b.tel.LogInfo("closed", "remaining", remaining)
}

// RunStats logs throughput every stats interval until ctx is done.
func (b *Queue) RunStats(ctx context.Context) {
	b.stats.RunStats(ctx)
}

package alloc

import (
	"context"
	"math"
	"sync"

	"github.com/squadracorsepolito/ringq"
	"github.com/squadracorsepolito/ringq/internal"
	"go.opentelemetry.io/otel/metric"
)

// Pool is a static arena of a bounded number of fixed-size slots.
//
// Slots are handed out in order while the allocation counter is below the
// slot count. Free does nothing; the whole pool is recycled by Reset, which
// is what a queue destroyed over a Pool calls.
type Pool struct {
	tel *internal.Telemetry

	exhaustedCounter metric.Int64Counter

	mux sync.Mutex

	arena    []byte
	slotSize int
	slots    int
	counter  int

	exhausted bool
}

// NewPool preallocates slots regions of slotSize bytes each.
// It panics with a *ringq.PreconditionError if the arena size overflows.
func NewPool(slots, slotSize int) *Pool {
	if slots < 0 {
		slots = 0
	}
	if slotSize < 0 {
		slotSize = 0
	}
	if slotSize > 0 && slots > math.MaxInt/slotSize {
		panic(ringq.NewPreconditionError("new pool", "slots*slotSize overflows"))
	}

	tel := internal.NewTelemetry("alloc", "pool")

	return &Pool{
		tel: tel,

		exhaustedCounter: tel.NewCounter("exhausted",
			metric.WithDescription("allocations refused because every pool slot was taken"),
		),

		arena:    make([]byte, slots*slotSize),
		slotSize: slotSize,
		slots:    slots,
	}
}

// Alloc returns the next free slot trimmed to size bytes.
// It returns nil when size exceeds the slot size or every slot is taken.
func (p *Pool) Alloc(size int) []byte {
	if size < 0 || size > p.slotSize {
		return nil
	}

	p.mux.Lock()
	defer p.mux.Unlock()

	if p.counter >= p.slots {
		p.exhaustedCounter.Add(context.Background(), 1)
		if !p.exhausted {
			p.exhausted = true
			p.tel.LogWarn("pool exhausted", "slots", p.slots, "slot_size", p.slotSize)
		}
		return nil
	}

	offset := p.counter * p.slotSize
	p.counter++

	return p.arena[offset : offset+size : offset+size]
}

// Free is a no-op: slots are only recycled by Reset.
func (p *Pool) Free([]byte) {}

// Reset makes every slot available again.
func (p *Pool) Reset() {
	p.mux.Lock()
	defer p.mux.Unlock()

	p.counter = 0
	p.exhausted = false
}

// Allocated returns the number of slots handed out since the last Reset.
func (p *Pool) Allocated() int {
	p.mux.Lock()
	defer p.mux.Unlock()

	return p.counter
}

// Slots returns the pool capacity in slots.
func (p *Pool) Slots() int {
	return p.slots
}

// SlotSize returns the size in bytes of each slot.
func (p *Pool) SlotSize() int {
	return p.slotSize
}

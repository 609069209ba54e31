// Package uqueue implements a fixed-capacity FIFO of fixed-size elements
// that never holds two equal elements at the same time.
//
// Equality is decided by a caller supplied EqualFunc. Enqueueing an element
// equal to one already stored succeeds without changing the queue: the
// element is considered already present, which is not an error.
//
// All accounting is in elements: the read and write positions are slot
// indices wrapping at the capacity, and Size, FreeSpace, IsEmpty and IsFull
// compare element counts.
//
// A Queue is NOT safe for concurrent use.
package uqueue

import (
	"fmt"
	"iter"
	"math"

	"github.com/squadracorsepolito/ringq"
	"github.com/squadracorsepolito/ringq/alloc"
)

// HeaderSize is the number of bytes each queue reserves from its allocator
// besides the element storage.
const HeaderSize = 64

// EqualFunc reports whether two elements are logically equal.
// Both slices are exactly elemSize bytes long.
type EqualFunc func(a, b []byte) bool

// Queue is a bounded FIFO with set semantics.
type Queue struct {
	allocator  alloc.Allocator
	registered bool
	header     []byte
	destroyed  bool

	buf   []byte
	equal EqualFunc

	// write and read are slot indices in [0, capacity)
	write int
	read  int

	count int

	capacity int
	esize    int
}

// New creates a queue of capacity elements of esize bytes compared with eq.
func New(capacity, esize int, eq EqualFunc, opts ...Option) (*Queue, error) {
	cfg := newConfig(opts)

	if eq == nil {
		return nil, ringq.NewPreconditionError("create", "nil equality function")
	}
	if capacity <= 0 || esize <= 0 {
		return nil, ringq.NewPreconditionError("create", "capacity and element size must be positive")
	}
	if esize > math.MaxInt/capacity {
		return nil, ringq.NewPreconditionError("create", "capacity overflows buffer size")
	}
	rawSize := capacity * esize

	a, err := alloc.Resolve(cfg.allocator)
	if err != nil {
		return nil, err
	}

	// there is no static mode: a Pool would never get its slots back
	if _, static := alloc.AsResetter(a); static {
		return nil, ringq.NewPreconditionError("create", "static allocators are not supported")
	}

	header := a.Alloc(HeaderSize)
	if header == nil {
		return nil, fmt.Errorf("unique queue header: %w", ringq.ErrAllocation)
	}

	buf := a.Alloc(rawSize)
	if len(buf) < rawSize {
		if buf != nil {
			a.Free(buf)
		}
		a.Free(header)
		return nil, fmt.Errorf("unique queue storage of %d bytes: %w", rawSize, ringq.ErrAllocation)
	}

	q := &Queue{
		allocator:  a,
		registered: cfg.allocator == nil,
		header:     header,

		buf:   buf[:rawSize:rawSize],
		equal: eq,

		capacity: capacity,
		esize:    esize,
	}

	clear(q.buf)

	return q, nil
}

// Destroy frees the storage and header of the queue pointed to by qp and
// sets *qp to nil.
func Destroy(qp **Queue) {
	if qp == nil || *qp == nil || (*qp).destroyed {
		panic(ringq.NewPreconditionError("destroy", "unique queue is nil or destroyed"))
	}

	q := *qp

	q.allocator.Free(q.buf)
	q.allocator.Free(q.header)

	q.buf = nil
	q.header = nil
	q.allocator = nil
	q.equal = nil
	q.write, q.read, q.count = 0, 0, 0
	q.destroyed = true

	*qp = nil
}

func (q *Queue) mustBeLive(op string) {
	if q == nil || q.destroyed {
		panic(ringq.NewPreconditionError(op, "unique queue is nil or destroyed"))
	}
}

// checkOp validates the element and, for queues built on the process-wide
// allocator, that the allocator is still registered.
func (q *Queue) checkOp(op string, elem []byte) error {
	if len(elem) < q.esize {
		return ringq.NewPreconditionError(op, fmt.Sprintf("element of %d bytes, want %d", len(elem), q.esize))
	}

	if q.registered {
		if _, ok := alloc.Registered(); !ok {
			return ringq.ErrAllocatorNotConfigured
		}
	}

	return nil
}

func (q *Queue) next(idx int) int {
	idx++
	if idx == q.capacity {
		return 0
	}
	return idx
}

func (q *Queue) slot(idx int) []byte {
	offset := idx * q.esize
	return q.buf[offset : offset+q.esize : offset+q.esize]
}

// SetEqual replaces the equality function.
func (q *Queue) SetEqual(eq EqualFunc) error {
	q.mustBeLive("set equal")

	if eq == nil {
		return ringq.NewPreconditionError("set equal", "nil equality function")
	}

	q.equal = eq
	return nil
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue) IsEmpty() bool {
	q.mustBeLive("is empty")
	return q.count == 0
}

// IsFull reports whether the queue holds capacity elements.
func (q *Queue) IsFull() bool {
	q.mustBeLive("is full")
	return q.count == q.capacity
}

// Size returns the number of stored elements.
func (q *Queue) Size() int {
	q.mustBeLive("size")
	return q.count
}

// FreeSpace returns the number of elements that can still be enqueued.
func (q *Queue) FreeSpace() int {
	q.mustBeLive("free space")
	return q.capacity - q.count
}

// Cap returns the capacity in elements.
func (q *Queue) Cap() int {
	q.mustBeLive("cap")
	return q.capacity
}

// ElemSize returns the size in bytes of one element.
func (q *Queue) ElemSize() int {
	q.mustBeLive("elem size")
	return q.esize
}

func (q *Queue) contains(elem []byte) bool {
	for e := range q.All() {
		if q.equal(e, elem) {
			return true
		}
	}
	return false
}

// Contains reports whether an element equal to elem is stored.
func (q *Queue) Contains(elem []byte) (bool, error) {
	q.mustBeLive("contains")

	if len(elem) < q.esize {
		return false, ringq.NewPreconditionError("contains", fmt.Sprintf("element of %d bytes, want %d", len(elem), q.esize))
	}

	return q.contains(elem[:q.esize:q.esize]), nil
}

// Add enqueues elem unless an equal element is already stored, and reports
// whether it was inserted. A full queue returns ringq.ErrFull even when elem
// is a duplicate.
func (q *Queue) Add(elem []byte) (bool, error) {
	q.mustBeLive("enqueue")

	if err := q.checkOp("enqueue", elem); err != nil {
		return false, err
	}

	if q.count == q.capacity {
		return false, ringq.ErrFull
	}

	elem = elem[:q.esize:q.esize]
	if q.contains(elem) {
		return false, nil
	}

	copy(q.slot(q.write), elem)
	q.write = q.next(q.write)
	q.count++

	return true, nil
}

// Enqueue is like Add but does not tell duplicates apart from insertions:
// both return nil.
func (q *Queue) Enqueue(elem []byte) error {
	_, err := q.Add(elem)
	return err
}

// Dequeue moves the oldest element into the first ElemSize bytes of dst.
func (q *Queue) Dequeue(dst []byte) error {
	q.mustBeLive("dequeue")

	if err := q.checkOp("dequeue", dst); err != nil {
		return err
	}

	if q.count == 0 {
		return ringq.ErrEmpty
	}

	copy(dst, q.slot(q.read))
	q.read = q.next(q.read)
	q.count--

	return nil
}

// Peek copies the oldest element into dst without removing it.
func (q *Queue) Peek(dst []byte) error {
	q.mustBeLive("peek")

	if err := q.checkOp("peek", dst); err != nil {
		return err
	}

	if q.count == 0 {
		return ringq.ErrEmpty
	}

	copy(dst, q.slot(q.read))

	return nil
}

// All iterates over the stored elements from the oldest to the newest.
// The yielded slices alias the queue buffer.
func (q *Queue) All() iter.Seq[[]byte] {
	q.mustBeLive("all")

	return func(yield func([]byte) bool) {
		idx := q.read
		for range q.count {
			if !yield(q.slot(idx)) {
				return
			}
			idx = q.next(idx)
		}
	}
}

// Flush empties the queue and zeroes its storage.
func (q *Queue) Flush() {
	q.mustBeLive("flush")

	q.write = 0
	q.read = 0
	q.count = 0

	clear(q.buf)
}

func (q *Queue) String() string {
	if q == nil || q.destroyed {
		return "uqueue{destroyed}"
	}

	return fmt.Sprintf("uqueue{size=%d cap=%d esize=%d read=%d write=%d}", q.count, q.capacity, q.esize, q.read, q.write)
}

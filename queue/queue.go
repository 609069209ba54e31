// Package queue implements a fixed-capacity FIFO of fixed-size elements
// stored in a contiguous byte buffer.
//
// The buffer holds capacity*elemSize bytes. Read and write positions are
// byte offsets that advance by one element per operation and wrap to zero at
// the end of the buffer. The queue never interprets element contents: every
// operation moves exactly elemSize bytes between the caller and the buffer.
//
// A Queue is NOT safe for concurrent use.
package queue

import (
	"fmt"
	"iter"
	"math"

	"github.com/squadracorsepolito/ringq"
	"github.com/squadracorsepolito/ringq/alloc"
)

// HeaderSize is the number of bytes each queue reserves from its allocator
// besides the element storage. With a static alloc.Pool it is the size of
// the slot that accounts for the instance.
const HeaderSize = 64

// EqualFunc reports whether two elements are logically equal.
// Both slices are exactly elemSize bytes long.
type EqualFunc func(a, b []byte) bool

// Queue is a bounded FIFO over fixed-size elements.
type Queue struct {
	allocator alloc.Allocator
	header    []byte
	external  bool
	destroyed bool

	buf []byte

	// write and read are byte offsets in [0, rawSize)
	write int
	read  int

	// count is the number of stored elements
	count int

	capacity int
	esize    int
	rawSize  int
}

// New creates a queue of capacity elements of esize bytes.
//
// The allocator is taken from WithAllocator, or else from the process-wide
// registration in package alloc; without either New returns
// ringq.ErrAllocatorNotConfigured. With WithBuffer the storage is the
// caller's buffer and only the header is allocated. An allocator that is an
// alloc.Resetter, like alloc.Pool, is only accepted together with WithBuffer.
func New(capacity, esize int, opts ...Option) (*Queue, error) {
	cfg := newConfig(opts)

	if capacity <= 0 || esize <= 0 {
		return nil, ringq.NewPreconditionError("create", "capacity and element size must be positive")
	}
	if esize > math.MaxInt/capacity {
		return nil, ringq.NewPreconditionError("create", "capacity overflows buffer size")
	}
	rawSize := capacity * esize

	if cfg.buffer != nil && len(cfg.buffer) < rawSize {
		return nil, ringq.NewPreconditionError("create", fmt.Sprintf("buffer of %d bytes is smaller than %d", len(cfg.buffer), rawSize))
	}

	a, err := alloc.Resolve(cfg.allocator)
	if err != nil {
		return nil, err
	}

	// a static allocator is recycled as a whole on Destroy, so it may only
	// account for the header while the storage belongs to the caller
	if _, static := alloc.AsResetter(a); static && cfg.buffer == nil {
		return nil, ringq.NewPreconditionError("create", "static allocator requires WithBuffer")
	}

	header := a.Alloc(HeaderSize)
	if header == nil {
		return nil, fmt.Errorf("queue header: %w", ringq.ErrAllocation)
	}

	q := &Queue{
		allocator: a,
		header:    header,

		capacity: capacity,
		esize:    esize,
		rawSize:  rawSize,
	}

	if cfg.buffer != nil {
		q.buf = cfg.buffer[:rawSize:rawSize]
		q.external = true
	} else {
		buf := a.Alloc(rawSize)
		if len(buf) < rawSize {
			if buf != nil {
				a.Free(buf)
			}
			a.Free(header)
			return nil, fmt.Errorf("queue storage of %d bytes: %w", rawSize, ringq.ErrAllocation)
		}
		q.buf = buf[:rawSize:rawSize]
	}

	clear(q.buf)

	return q, nil
}

// Destroy releases the queue pointed to by qp and sets *qp to nil.
//
// Storage and header go back to the allocator, unless the allocator is an
// alloc.Resetter (a static pool), which is reset instead. A caller supplied
// buffer is never freed.
func Destroy(qp **Queue) {
	if qp == nil || *qp == nil || (*qp).destroyed {
		panic(ringq.NewPreconditionError("destroy", "queue is nil or destroyed"))
	}

	q := *qp

	if r, ok := alloc.AsResetter(q.allocator); ok {
		r.Reset()
	} else {
		if !q.external {
			q.allocator.Free(q.buf)
		}
		q.allocator.Free(q.header)
	}

	q.buf = nil
	q.header = nil
	q.allocator = nil
	q.write, q.read, q.count = 0, 0, 0
	q.destroyed = true

	*qp = nil
}

func (q *Queue) mustBeLive(op string) {
	if q == nil || q.destroyed {
		panic(ringq.NewPreconditionError(op, "queue is nil or destroyed"))
	}
}

func (q *Queue) checkElem(op string, elem []byte) error {
	if len(elem) < q.esize {
		return ringq.NewPreconditionError(op, fmt.Sprintf("element of %d bytes, want %d", len(elem), q.esize))
	}
	return nil
}

func (q *Queue) advance(offset int) int {
	offset += q.esize
	if offset >= q.rawSize {
		offset -= q.rawSize
	}
	return offset
}

// copyIn writes one element at offset, wrapping at the end of the buffer.
func (q *Queue) copyIn(offset int, src []byte) {
	n := copy(q.buf[offset:], src[:q.esize])
	copy(q.buf, src[n:q.esize])
}

// copyOut reads one element at offset, wrapping at the end of the buffer.
func (q *Queue) copyOut(dst []byte, offset int) {
	n := copy(dst[:q.esize], q.buf[offset:])
	copy(dst[n:q.esize], q.buf)
}

// slot returns the element stored at offset.
func (q *Queue) slot(offset int) []byte {
	return q.buf[offset : offset+q.esize : offset+q.esize]
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

// Len is an alias of Size.
func (q *Queue) Len() int {
	return q.Size()
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

// Enqueue copies the first ElemSize bytes of elem at the tail of the queue.
// It returns ringq.ErrFull, leaving the queue untouched, when it is full.
func (q *Queue) Enqueue(elem []byte) error {
	q.mustBeLive("enqueue")

	if err := q.checkElem("enqueue", elem); err != nil {
		return err
	}

	if q.count == q.capacity {
		return ringq.ErrFull
	}

	q.copyIn(q.write, elem)
	q.write = q.advance(q.write)
	q.count++

	return nil
}

// Dequeue moves the oldest element into the first ElemSize bytes of dst.
// It returns ringq.ErrEmpty when there is nothing to dequeue.
func (q *Queue) Dequeue(dst []byte) error {
	q.mustBeLive("dequeue")

	if err := q.checkElem("dequeue", dst); err != nil {
		return err
	}

	if q.count == 0 {
		return ringq.ErrEmpty
	}

	q.copyOut(dst, q.read)
	q.read = q.advance(q.read)
	q.count--

	return nil
}

// Peek copies the oldest element into dst without removing it.
func (q *Queue) Peek(dst []byte) error {
	q.mustBeLive("peek")

	if err := q.checkElem("peek", dst); err != nil {
		return err
	}

	if q.count == 0 {
		return ringq.ErrEmpty
	}

	q.copyOut(dst, q.read)

	return nil
}

// All iterates over the stored elements from the oldest to the newest.
// The yielded slices alias the queue buffer and are valid until the next
// mutation.
func (q *Queue) All() iter.Seq[[]byte] {
	q.mustBeLive("all")

	return func(yield func([]byte) bool) {
		offset := q.read
		for range q.count {
			if !yield(q.slot(offset)) {
				return
			}
			offset = q.advance(offset)
		}
	}
}

// Find reports whether an element equal to needle, according to eq, is
// stored in the queue. Elements are visited oldest first.
func (q *Queue) Find(needle []byte, eq EqualFunc) (bool, error) {
	q.mustBeLive("find")

	if err := q.checkElem("find", needle); err != nil {
		return false, err
	}
	if eq == nil {
		return false, ringq.NewPreconditionError("find", "nil equality function")
	}

	needle = needle[:q.esize:q.esize]
	for elem := range q.All() {
		if eq(elem, needle) {
			return true, nil
		}
	}

	return false, nil
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
		return "queue{destroyed}"
	}

	return fmt.Sprintf("queue{size=%d cap=%d esize=%d read=%d write=%d}", q.count, q.capacity, q.esize, q.read, q.write)
}

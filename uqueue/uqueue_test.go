package uqueue

import (
	"bytes"
	"errors"
	"testing"

	fifo "github.com/eapache/queue"
	"github.com/squadracorsepolito/ringq"
	"github.com/squadracorsepolito/ringq/alloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestQueue(t *testing.T, capacity, esize int) *Queue {
	t.Helper()

	q, err := New(capacity, esize, bytes.Equal, WithAllocator(alloc.NewHeap(0)))
	require.NoError(t, err)

	return q
}

func Test_New(t *testing.T) {
	assert := assert.New(t)

	h := alloc.NewHeap(0)

	_, err := New(4, 4, nil, WithAllocator(h))
	assert.ErrorIs(err, ringq.ErrPrecondition)

	_, err = New(0, 4, bytes.Equal, WithAllocator(h))
	assert.ErrorIs(err, ringq.ErrPrecondition)

	alloc.Unregister()
	_, err = New(4, 4, bytes.Equal)
	assert.ErrorIs(err, ringq.ErrAllocatorNotConfigured)

	q, err := New(4, 4, bytes.Equal, WithAllocator(h))
	assert.NoError(err)
	assert.Equal(HeaderSize+16, h.InUse())
	assert.Equal(make([]byte, 16), q.buf)
	assert.True(q.IsEmpty())
	assert.Equal(4, q.FreeSpace())
	assert.Equal(4, q.Cap())
	assert.Equal(4, q.ElemSize())

	Destroy(&q)
	assert.Nil(q)
	assert.Zero(h.InUse())
}

func Test_New_AllocationFailure(t *testing.T) {
	assert := assert.New(t)

	h := alloc.NewHeap(HeaderSize + 1)
	_, err := New(2, 2, bytes.Equal, WithAllocator(h))
	assert.ErrorIs(err, ringq.ErrAllocation)
	assert.Zero(h.InUse())

	_, err = New(2, 2, bytes.Equal, WithAllocator(alloc.NewHeap(1)))
	assert.ErrorIs(err, ringq.ErrAllocation)
}

func Test_New_StaticAllocator(t *testing.T) {
	assert := assert.New(t)

	pool := alloc.NewPool(2, HeaderSize)

	_, err := New(1, 1, bytes.Equal, WithAllocator(pool))
	assert.ErrorIs(err, ringq.ErrPrecondition)
	assert.Zero(pool.Allocated())

	_, err = New(1, 1, bytes.Equal, WithAllocator((*alloc.Heap)(nil)))
	assert.ErrorIs(err, ringq.ErrPrecondition)
}

func Test_Duplicate(t *testing.T) {
	assert := assert.New(t)

	q := newTestQueue(t, 4, 2)

	assert.NoError(q.Enqueue([]byte{1, 2}))
	assert.NoError(q.Enqueue([]byte{1, 2}))
	assert.Equal(1, q.Size())

	added, err := q.Add([]byte{1, 2})
	assert.NoError(err)
	assert.False(added)

	added, err = q.Add([]byte{2, 1})
	assert.NoError(err)
	assert.True(added)
	assert.Equal(2, q.Size())

	found, err := q.Contains([]byte{2, 1})
	assert.NoError(err)
	assert.True(found)

	// once dequeued, the element may be enqueued again
	out := make([]byte, 2)
	assert.NoError(q.Dequeue(out))
	assert.Equal([]byte{1, 2}, out)

	added, err = q.Add([]byte{1, 2})
	assert.NoError(err)
	assert.True(added)
}

func Test_CustomEqual(t *testing.T) {
	assert := assert.New(t)

	// elements are equal when their first byte matches
	firstByte := func(a, b []byte) bool { return a[0] == b[0] }

	q, err := New(3, 2, firstByte, WithAllocator(alloc.NewHeap(0)))
	require.NoError(t, err)

	assert.NoError(q.Enqueue([]byte{7, 1}))
	assert.NoError(q.Enqueue([]byte{7, 2}))
	assert.Equal(1, q.Size())

	assert.ErrorIs(q.SetEqual(nil), ringq.ErrPrecondition)
	assert.NoError(q.SetEqual(bytes.Equal))

	assert.NoError(q.Enqueue([]byte{7, 2}))
	assert.Equal(2, q.Size())
}

func Test_Scenario(t *testing.T) {
	assert := assert.New(t)

	q := newTestQueue(t, 3, 1)

	for _, ch := range []byte("abc") {
		assert.NoError(q.Enqueue([]byte{ch}))
	}

	assert.ErrorIs(q.Enqueue([]byte{'d'}), ringq.ErrFull)
	assert.Equal(3, q.Size())
	assert.True(q.IsFull())

	// a full queue reports full even for a duplicate
	assert.ErrorIs(q.Enqueue([]byte{'a'}), ringq.ErrFull)

	out := make([]byte, 1)
	assert.NoError(q.Dequeue(out))
	assert.Equal(byte('a'), out[0])
	assert.Equal(2, q.Size())

	assert.NoError(q.Enqueue([]byte{'d'}))

	for _, expected := range []byte("bcd") {
		assert.NoError(q.Dequeue(out))
		assert.Equal(expected, out[0])
	}

	assert.True(q.IsEmpty())
	assert.ErrorIs(q.Dequeue(out), ringq.ErrEmpty)
}

func Test_Wraparound(t *testing.T) {
	assert := assert.New(t)

	q := newTestQueue(t, 4, 4)

	for _, elem := range []string{"AAAA", "BBBB", "CCCC", "DDDD"} {
		assert.NoError(q.Enqueue([]byte(elem)))
	}
	assert.Equal(0, q.write)

	out := make([]byte, 4)
	assert.NoError(q.Dequeue(out))
	assert.Equal("AAAA", string(out))

	// AAAA is still in slot 0 but no longer queued
	found, err := q.Contains([]byte("AAAA"))
	assert.NoError(err)
	assert.False(found)

	added, err := q.Add([]byte("AAAA"))
	assert.NoError(err)
	assert.True(added)
	assert.Equal(1, q.write)

	assert.NoError(q.Dequeue(out))
	assert.Equal("BBBB", string(out))

	assert.NoError(q.Enqueue([]byte("EEEE")))
	assert.Equal(2, q.write)
	assert.Equal("EEEE", string(q.buf[4:8]))
	assert.Equal(4, q.Size())

	for _, expected := range []string{"CCCC", "DDDD", "AAAA", "EEEE"} {
		assert.NoError(q.Dequeue(out))
		assert.Equal(expected, string(out))
	}
	assert.True(q.IsEmpty())
}

func Test_PeekThenDequeue(t *testing.T) {
	assert := assert.New(t)

	q := newTestQueue(t, 2, 3)
	assert.NoError(q.Enqueue([]byte("xyz")))

	peeked := make([]byte, 3)
	assert.NoError(q.Peek(peeked))
	assert.Equal(1, q.Size())

	dequeued := make([]byte, 3)
	assert.NoError(q.Dequeue(dequeued))
	assert.Equal(0, q.Size())
	assert.Equal(peeked, dequeued)

	assert.ErrorIs(q.Peek(peeked), ringq.ErrEmpty)
}

func Test_Flush(t *testing.T) {
	assert := assert.New(t)

	q := newTestQueue(t, 2, 2)
	assert.NoError(q.Enqueue([]byte{1, 1}))
	assert.NoError(q.Enqueue([]byte{2, 2}))

	q.Flush()
	assert.True(q.IsEmpty())
	assert.Equal(2, q.FreeSpace())
	assert.Equal(make([]byte, 4), q.buf)

	added, err := q.Add([]byte{1, 1})
	assert.NoError(err)
	assert.True(added)
}

func Test_Preconditions(t *testing.T) {
	assert := assert.New(t)

	q := newTestQueue(t, 2, 2)

	assert.ErrorIs(q.Enqueue(nil), ringq.ErrPrecondition)
	assert.ErrorIs(q.Dequeue([]byte{1}), ringq.ErrPrecondition)
	assert.ErrorIs(q.Peek(nil), ringq.ErrPrecondition)
	_, err := q.Contains(nil)
	assert.ErrorIs(err, ringq.ErrPrecondition)

	alias := q
	Destroy(&q)
	assert.PanicsWithError("ringq: size: unique queue is nil or destroyed", func() { alias.Size() })
	assert.PanicsWithError("ringq: destroy: unique queue is nil or destroyed", func() { Destroy(&alias) })
	assert.Equal("uqueue{destroyed}", alias.String())
}

func Test_AllocatorGuard(t *testing.T) {
	assert := assert.New(t)
	t.Cleanup(alloc.Unregister)

	h := alloc.NewHeap(0)
	assert.NoError(alloc.Register(h))

	q, err := New(2, 1, bytes.Equal)
	require.NoError(t, err)
	assert.NoError(q.Enqueue([]byte{1}))

	alloc.Unregister()
	assert.ErrorIs(q.Enqueue([]byte{2}), ringq.ErrAllocatorNotConfigured)
	assert.ErrorIs(q.Dequeue(make([]byte, 1)), ringq.ErrAllocatorNotConfigured)
	assert.Equal(1, q.Size())

	assert.NoError(alloc.Register(h))
	assert.NoError(q.Dequeue(make([]byte, 1)))

	// queues with an explicit allocator do not depend on the registration
	alloc.Unregister()
	explicit := newTestQueue(t, 1, 1)
	assert.NoError(explicit.Enqueue([]byte{1}))

	Destroy(&q)
	assert.Zero(h.InUse())
}

// Test_Property_Model checks the queue against a reference FIFO that drops
// duplicates by hand.
func Test_Property_Model(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		esize := rapid.SampledFrom([]int{1, 2, 4}).Draw(t, "esize")

		q, err := New(capacity, esize, bytes.Equal, WithAllocator(alloc.NewHeap(0)))
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		model := fifo.New()
		modelContains := func(elem []byte) bool {
			for i := range model.Length() {
				if bytes.Equal(model.Get(i).([]byte), elem) {
					return true
				}
			}
			return false
		}

		// a small alphabet makes duplicates frequent
		genElem := rapid.Custom(func(t *rapid.T) []byte {
			b := rapid.ByteRange(0, 3).Draw(t, "b")
			return bytes.Repeat([]byte{b}, esize)
		})

		t.Repeat(map[string]func(*rapid.T){
			"add": func(t *rapid.T) {
				elem := genElem.Draw(t, "elem")

				added, err := q.Add(elem)
				switch {
				case model.Length() == capacity:
					if !errors.Is(err, ringq.ErrFull) {
						t.Fatalf("add on full queue: got %v", err)
					}
				case modelContains(elem):
					if err != nil || added {
						t.Fatalf("add of duplicate: added=%v err=%v", added, err)
					}
				default:
					if err != nil || !added {
						t.Fatalf("add: added=%v err=%v", added, err)
					}
					model.Add(elem)
				}
			},
			"dequeue": func(t *rapid.T) {
				out := make([]byte, esize)

				err := q.Dequeue(out)
				if model.Length() == 0 {
					if !errors.Is(err, ringq.ErrEmpty) {
						t.Fatalf("dequeue on empty queue: got %v", err)
					}
					return
				}

				if err != nil {
					t.Fatalf("dequeue: %v", err)
				}
				if expected := model.Remove().([]byte); !bytes.Equal(expected, out) {
					t.Fatalf("dequeue: got %x, want %x", out, expected)
				}
			},
			"": func(t *rapid.T) {
				if q.Size() != model.Length() {
					t.Fatalf("size: got %d, want %d", q.Size(), model.Length())
				}
				if q.FreeSpace() != capacity-model.Length() {
					t.Fatalf("free space: got %d, want %d", q.FreeSpace(), capacity-model.Length())
				}
				if q.IsEmpty() != (model.Length() == 0) || q.IsFull() != (model.Length() == capacity) {
					t.Fatalf("empty/full mismatch")
				}
			},
		})
	})
}

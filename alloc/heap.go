package alloc

import "sync"

// Heap allocates regions with make and lets the garbage collector reclaim
// them. A positive limit caps the number of bytes outstanding at any time,
// after which Alloc fails.
type Heap struct {
	mux sync.Mutex

	limit int
	inUse int
}

// NewHeap returns a heap allocator. A limit <= 0 means unlimited.
func NewHeap(limit int) *Heap {
	return &Heap{
		limit: limit,
	}
}

func (h *Heap) Alloc(size int) []byte {
	if size < 0 {
		return nil
	}

	h.mux.Lock()
	defer h.mux.Unlock()

	if h.limit > 0 && h.inUse+size > h.limit {
		return nil
	}
	h.inUse += size

	return make([]byte, size)
}

func (h *Heap) Free(buf []byte) {
	h.mux.Lock()
	defer h.mux.Unlock()

	h.inUse -= len(buf)
	if h.inUse < 0 {
		h.inUse = 0
	}
}

// InUse returns the number of bytes currently allocated.
func (h *Heap) InUse() int {
	h.mux.Lock()
	defer h.mux.Unlock()

	return h.inUse
}

// Package alloc provides the memory allocator collaborator consumed by the
// fixed-capacity queues.
//
// An Allocator hands out byte regions and takes them back. Queues never pick
// an allocator themselves: they receive one explicitly at construction, or
// fall back to the process-wide callbacks registered with SetAllocFunc and
// SetFreeFunc.
package alloc

import (
	"reflect"
	"sync/atomic"

	"github.com/squadracorsepolito/ringq"
)

// Allocator is an allocate/free pair.
type Allocator interface {
	// Alloc returns a region of exactly size bytes, or nil on failure.
	Alloc(size int) []byte
	// Free releases a region previously returned by Alloc.
	Free(buf []byte)
}

// Resetter is implemented by allocators that release everything at once
// instead of per region, like the static Pool.
type Resetter interface {
	Reset()
}

// AllocFunc allocates size bytes or returns nil.
type AllocFunc func(size int) []byte

// FreeFunc releases a region.
type FreeFunc func(buf []byte)

// Funcs adapts a pair of callbacks to the Allocator interface.
type Funcs struct {
	AllocFn AllocFunc
	FreeFn  FreeFunc
}

func (f Funcs) Alloc(size int) []byte {
	return f.AllocFn(size)
}

func (f Funcs) Free(buf []byte) {
	f.FreeFn(buf)
}

var (
	allocFn atomic.Pointer[AllocFunc]
	freeFn  atomic.Pointer[FreeFunc]
)

// SetAllocFunc registers the process-wide allocation callback,
// overwriting any previous one. It must happen before any queue is created
// from another goroutine.
func SetAllocFunc(fn AllocFunc) error {
	if fn == nil {
		return ringq.NewPreconditionError("register alloc", "nil callback")
	}

	allocFn.Store(&fn)
	return nil
}

// SetFreeFunc registers the process-wide free callback,
// overwriting any previous one.
func SetFreeFunc(fn FreeFunc) error {
	if fn == nil {
		return ringq.NewPreconditionError("register free", "nil callback")
	}

	freeFn.Store(&fn)
	return nil
}

// Register registers both callbacks of a.
func Register(a Allocator) error {
	if isNil(a) {
		return ringq.NewPreconditionError("register", "nil allocator")
	}

	if err := SetAllocFunc(a.Alloc); err != nil {
		return err
	}
	return SetFreeFunc(a.Free)
}

// Registered returns the process-wide allocator.
// The second value is false unless both callbacks have been registered.
func Registered() (Allocator, bool) {
	a := allocFn.Load()
	f := freeFn.Load()

	if a == nil || f == nil {
		return nil, false
	}

	return Funcs{AllocFn: *a, FreeFn: *f}, true
}

// Unregister clears both process-wide callbacks.
func Unregister() {
	allocFn.Store(nil)
	freeFn.Store(nil)
}

// Resolve returns a if it is not nil, otherwise the registered allocator.
// A non-nil interface holding a nil pointer, like (*Heap)(nil), is rejected.
func Resolve(a Allocator) (Allocator, error) {
	if a != nil {
		if isNil(a) {
			return nil, ringq.NewPreconditionError("resolve allocator", "nil allocator value")
		}
		return a, nil
	}

	if reg, ok := Registered(); ok {
		return reg, nil
	}

	return nil, ringq.ErrAllocatorNotConfigured
}

func isNil(a Allocator) bool {
	if a == nil {
		return true
	}

	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

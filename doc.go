// Package ringq holds the error kinds shared by the fixed-capacity queues
// in the queue, uqueue and ring packages.
//
// The queues store fixed-size elements in a contiguous buffer obtained from
// an allocator (see package alloc) or supplied by the caller. They are NOT
// safe for concurrent use: callers that need multiple producers or consumers
// must serialize access themselves, or use package blocking.
//
// Conditions that are part of normal operation (full, empty, allocation
// failure, missing allocator) are returned as errors. Contract violations
// are reported with ErrPrecondition; where no error can be returned, the
// queue panics with a *PreconditionError.
package ringq

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring provides a bounded, lock-free single-producer single-consumer
// ring buffer.
//
// A [Ring] transfers fixed-size values (typically handles such as uintptr,
// uint64 or pointers) from one producer goroutine to one consumer goroutine.
// No operation locks, blocks, or allocates after construction.
//
// # Quick Start
//
//	r, err := ring.New[uintptr](1024)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	// Producer goroutine
//	if !r.Push(h) {
//	    // Ring is full - handle backpressure
//	}
//
//	// Consumer goroutine
//	h, ok := r.Pull()
//	if !ok {
//	    // Ring is empty - try again later
//	}
//
// # Operations
//
// Producer side:
//
//	Push(elem) bool         - one element, false when full
//	PushMany(elems) int     - leading elements that fit, 0 when full
//	Enqueue(&elem) error    - Push reporting ErrWouldBlock
//
// Consumer side:
//
//	Pull() (T, bool)        - one element, false when empty
//	PullMany(elems) int     - up to len(elems) elements
//	Peek() (T, bool)        - oldest element, not consumed
//	PeekMany(elems) int     - oldest elements, not consumed
//	Dequeue() (T, error)    - Pull reporting ErrWouldBlock
//
// Either side, advisory only:
//
//	Available() int         - free slots
//	Len() int               - occupied slots
//	Cap() int               - capacity
//
// Batch operations take a single acquire of the peer index, copy in at most
// two contiguous runs (to the end of storage, then from slot 0), and publish
// the whole batch with one release store. A short count is not an error.
//
// # Roles
//
// Exactly one goroutine may produce and exactly one may consume. The
// [Producer] and [Consumer] interfaces expose only the methods of each side:
//
//	go produce(r) // func produce(p ring.Producer[Event])
//	go consume(r) // func consume(c ring.Consumer[Event])
//
// Violating the single-producer single-consumer contract (two producers, two
// consumers, or Close while an operation is in flight) causes undefined
// behavior including lost and duplicated elements. It is not detected.
//
// # Memory Ordering
//
// The producer writes a slot, then publishes it with a release store of
// tail. The consumer observes tail with an acquire load before reading the
// slot, and releases the slot with a release store of head after reading
// it. Each index has exactly one writer, so no compare-and-swap or retry
// loop appears on any path. tail and head sit on separate cache lines, as do
// each side's cached copy of the other's index.
//
// # Capacity
//
// Capacity rounds up to the next power of 2:
//
//	ring.New[int](3)     // Actual capacity: 4
//	ring.New[int](1000)  // Actual capacity: 1024
//	ring.New[int](1024)  // Actual capacity: 1024
//
// Strict() rejects capacities that are not powers of 2, and a capacity
// that is not positive is always rejected:
//
//	ring.Build[int](ring.Config(1000).Strict())  // ErrInvalidCapacity
//	ring.New[int](0)                              // ErrInvalidCapacity
//
// # Storage
//
// Storage comes from an [Allocator]: [Heap] by default, [Mmap] on Linux for
// pointer-free element types, or any caller-provided implementation via
// [BuildFrom]. [FromStorage] wraps a caller-owned slice directly.
//
// A ring is reference counted. Construction holds one reference, [Ring.Retain]
// adds one, and [Ring.Close] drops one; the last Close returns the storage to
// its allocator. The last Close must happen after both sides have stopped.
//
// # Error Handling
//
// Full and empty are control flow, not failures. Enqueue and Dequeue report
// them as [ErrWouldBlock], sourced from [code.hybscloud.com/iox]:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := r.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !ring.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// Construction returns [ErrInvalidCapacity] or [ErrAllocation]; lifecycle
// misuse detectable without cost returns [ErrClosed].
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships established
// through acquire-release orderings on separate variables, and reports false
// positives on the slot accesses. Concurrent tests are skipped when
// [RaceEnabled] is true and concurrent examples build with //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, and [golang.org/x/sys/unix] for mapped storage.
package ring

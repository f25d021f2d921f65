// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"code.hybscloud.com/atomix"
)

// Ring is a fixed-capacity single-producer single-consumer ring buffer.
//
// Based on Lamport's ring buffer with cached index optimization.
// The producer owns tail and caches the consumer's head; the consumer owns
// head and caches the producer's tail. Each side refreshes its cache with an
// acquire load only when the cached value reports full or empty.
//
// Both counters grow without bound; only tail-head, masked by capacity-1,
// ever addresses the storage. Slots in [head, tail) belong to the consumer,
// the rest belong to the producer.
//
// Exactly one goroutine may call the producer methods (Push, PushMany,
// Enqueue) and exactly one the consumer methods (Pull, PullMany, Peek,
// PeekMany, Dequeue). Any other use is undefined behavior and is not
// detected.
//
// Memory: O(capacity), no allocation after construction.
type Ring[T any] struct {
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	buffer     []T
	mask       uint64
	refs       atomix.Int64
	alloc      Allocator[T]
}

func newRing[T any](buffer []T, alloc Allocator[T]) *Ring[T] {
	r := &Ring[T]{
		buffer: buffer,
		mask:   uint64(len(buffer)) - 1,
		alloc:  alloc,
	}
	r.refs.Store(1)
	return r
}

// Push adds an element (producer only).
// Returns false if the ring is full; the element is not enqueued.
func (r *Ring[T]) Push(elem T) bool {
	tail := r.tail.LoadRelaxed()
	if tail-r.cachedHead > r.mask {
		r.cachedHead = r.head.LoadAcquire()
		if tail-r.cachedHead > r.mask {
			return false
		}
	}

	r.buffer[tail&r.mask] = elem
	r.tail.StoreRelease(tail + 1)
	return true
}

// Pull removes and returns the oldest element (consumer only).
// Returns (zero-value, false) if the ring is empty.
func (r *Ring[T]) Pull() (T, bool) {
	var zero T
	head := r.head.LoadRelaxed()
	if head >= r.cachedTail {
		r.cachedTail = r.tail.LoadAcquire()
		if head >= r.cachedTail {
			return zero, false
		}
	}

	elem := r.buffer[head&r.mask]
	r.buffer[head&r.mask] = zero
	r.head.StoreRelease(head + 1)
	return elem, true
}

// Peek returns the oldest element without removing it (consumer only).
func (r *Ring[T]) Peek() (T, bool) {
	head := r.head.LoadRelaxed()
	if head >= r.cachedTail {
		r.cachedTail = r.tail.LoadAcquire()
		if head >= r.cachedTail {
			var zero T
			return zero, false
		}
	}
	return r.buffer[head&r.mask], true
}

// PushMany enqueues up to len(elems) elements (producer only).
//
// It returns the number n of elements enqueued, which is less than len(elems)
// when the ring has fewer free slots, and 0 when it is full. elems[:n] are
// enqueued in order; elems[n:] are not touched. The n writes are published
// with a single release store of tail.
func (r *Ring[T]) PushMany(elems []T) int {
	if len(elems) == 0 {
		return 0
	}
	tail := r.tail.LoadRelaxed()
	size := r.mask + 1
	free := size - (tail - r.cachedHead)
	if free < uint64(len(elems)) {
		r.cachedHead = r.head.LoadAcquire()
		free = size - (tail - r.cachedHead)
		if free == 0 {
			return 0
		}
	}

	n := min(uint64(len(elems)), free)
	pos := tail & r.mask
	// At most two passes: up to the end of storage, then from slot 0.
	if first := size - pos; first >= n {
		copy(r.buffer[pos:pos+n], elems[:n])
	} else {
		copy(r.buffer[pos:], elems[:first])
		copy(r.buffer[:n-first], elems[first:n])
	}

	r.tail.StoreRelease(tail + n)
	return int(n)
}

// PullMany dequeues up to len(elems) elements into elems (consumer only).
//
// It returns the number n of elements dequeued; elems[:n] holds them in FIFO
// order. The consumed slots are cleared before head is advanced once by n.
func (r *Ring[T]) PullMany(elems []T) int {
	head := r.head.LoadRelaxed()
	n := r.read(head, elems)
	if n == 0 {
		return 0
	}

	pos := head & r.mask
	if first := r.mask + 1 - pos; first >= n {
		clear(r.buffer[pos : pos+n])
	} else {
		clear(r.buffer[pos:])
		clear(r.buffer[:n-first])
	}

	r.head.StoreRelease(head + n)
	return int(n)
}

// PeekMany copies up to len(elems) of the oldest elements into elems without
// consuming them (consumer only). Returns the number of elements copied.
func (r *Ring[T]) PeekMany(elems []T) int {
	return int(r.read(r.head.LoadRelaxed(), elems))
}

// read copies min(len(elems), used) elements starting at head into elems.
func (r *Ring[T]) read(head uint64, elems []T) uint64 {
	if len(elems) == 0 {
		return 0
	}
	// cachedTail never trails head: the consumer only advances up to it.
	used := r.cachedTail - head
	if used < uint64(len(elems)) {
		r.cachedTail = r.tail.LoadAcquire()
		used = r.cachedTail - head
		if used == 0 {
			return 0
		}
	}

	n := min(uint64(len(elems)), used)
	pos := head & r.mask
	if first := r.mask + 1 - pos; first >= n {
		copy(elems[:n], r.buffer[pos:pos+n])
	} else {
		copy(elems[:first], r.buffer[pos:])
		copy(elems[first:n], r.buffer[:n-first])
	}
	return n
}

// Available returns the number of free slots.
//
// The result is advisory: it is observed from two separate loads and may be
// stale as soon as it returns. Callable from either side.
func (r *Ring[T]) Available() int {
	return r.Cap() - r.Len()
}

// Len returns the number of occupied slots (advisory, see Available).
func (r *Ring[T]) Len() int {
	head := r.head.LoadAcquire()
	tail := r.tail.LoadAcquire()
	if tail <= head {
		return 0
	}
	return int(min(tail-head, r.mask+1))
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return int(r.mask + 1)
}

// Enqueue adds an element (producer only).
// Returns ErrWouldBlock if the ring is full.
func (r *Ring[T]) Enqueue(elem *T) error {
	if !r.Push(*elem) {
		return ErrWouldBlock
	}
	return nil
}

// Dequeue removes and returns an element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
func (r *Ring[T]) Dequeue() (T, error) {
	elem, ok := r.Pull()
	if !ok {
		return elem, ErrWouldBlock
	}
	return elem, nil
}

// Retain adds a reference to the ring. Each Retain must be paired with a
// Close. Retain after the last Close returns ErrClosed.
func (r *Ring[T]) Retain() error {
	for {
		n := r.refs.LoadAcquire()
		if n <= 0 {
			return ErrClosed
		}
		if r.refs.CompareAndSwapAcqRel(n, n+1) {
			return nil
		}
	}
}

// Close drops a reference. The last Close releases the storage to the
// allocator the ring was built with.
//
// The last Close must not run concurrently with any other operation: both
// producer and consumer must have finished first.
func (r *Ring[T]) Close() error {
	n := r.refs.AddAcqRel(-1)
	switch {
	case n > 0:
		return nil
	case n < 0:
		r.refs.Store(0)
		return ErrClosed
	}

	buf := r.buffer
	r.buffer = nil
	if r.alloc == nil {
		return nil
	}
	if err := r.alloc.Free(buf); err != nil {
		return wrapAlloc("free", err)
	}
	return nil
}

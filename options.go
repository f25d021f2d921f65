// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"errors"
	"math/bits"
)

// MaxCapacity is the largest capacity a ring accepts.
const MaxCapacity = 1 << (bits.UintSize - 2)

// Options configures ring creation.
type Options struct {
	// Capacity (rounds up to next power of 2 unless strict)
	capacity int

	// Reject non-power-of-2 capacities instead of rounding
	strict bool
}

// Builder creates rings with fluent configuration.
//
// Example:
//
//	// Round 1000 up to 1024 slots on the Go heap
//	r, err := ring.Build[uintptr](ring.Config(1000))
//
//	// Exactly 4096 slots, backed by anonymous mmap
//	r, err := ring.BuildFrom(ring.Config(4096).Strict(), ring.Mmap[uint64]{})
type Builder struct {
	opts Options
}

// Config creates a ring builder with the given capacity.
//
// Capacity rounds up to the next power of 2 unless Strict is set.
// For example, capacity=4 results in actual capacity=4, capacity=1000 results
// in actual capacity=1024.
func Config(capacity int) *Builder {
	return &Builder{opts: Options{capacity: capacity}}
}

// Strict rejects capacities that are not already a power of 2 with
// ErrInvalidCapacity instead of rounding them up.
func (b *Builder) Strict() *Builder {
	b.opts.strict = true
	return b
}

// Capacity returns the capacity the built ring will have, or
// ErrInvalidCapacity.
func (b *Builder) Capacity() (int, error) {
	c := b.opts.capacity
	switch {
	case c <= 0:
		return 0, invalidCapacity(c, "must be positive")
	case c > MaxCapacity:
		return 0, invalidCapacity(c, "exceeds MaxCapacity")
	case isPow2(c):
		return c, nil
	case b.opts.strict:
		return 0, invalidCapacity(c, "not a power of 2")
	}
	return roundToPow2(c), nil
}

// New creates a ring on the Go heap.
// Capacity rounds up to the next power of 2.
func New[T any](capacity int) (*Ring[T], error) {
	return BuildFrom[T](Config(capacity), Heap[T]{})
}

// Build creates a ring on the Go heap with the builder's configuration.
func Build[T any](b *Builder) (*Ring[T], error) {
	return BuildFrom[T](b, Heap[T]{})
}

// BuildFrom creates a ring whose storage is obtained from alloc.
// The storage is returned to alloc by the last Close.
//
// No ring is returned if alloc fails or returns a slice of the wrong length.
func BuildFrom[T any](b *Builder, alloc Allocator[T]) (*Ring[T], error) {
	n, err := b.Capacity()
	if err != nil {
		return nil, err
	}
	buf, err := alloc.Alloc(n)
	if err != nil {
		return nil, wrapAlloc("alloc", err)
	}
	if len(buf) != n {
		err := invalidAllocLen(len(buf), n)
		if len(buf) > 0 {
			if ferr := alloc.Free(buf); ferr != nil {
				err = errors.Join(err, wrapAlloc("free", ferr))
			}
		}
		return nil, err
	}
	return newRing(buf, alloc), nil
}

// FromStorage creates a ring over caller-owned storage.
//
// len(storage) is the capacity and must be a power of 2. The ring takes
// exclusive use of storage until it is closed; Close does not free it.
func FromStorage[T any](storage []T) (*Ring[T], error) {
	if _, err := Config(len(storage)).Strict().Capacity(); err != nil {
		return nil, err
	}
	clear(storage)
	return newRing[T](storage, nil), nil
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte

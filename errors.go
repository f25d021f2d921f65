// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Enqueue: the ring is full (backpressure)
// For Dequeue: the ring is empty (no data available)
//
// ErrWouldBlock is a control flow signal, not a failure. The bool and count
// returning methods (Push, Pull, PushMany, PullMany) report the same
// condition as false or 0.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := r.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if ring.IsWouldBlock(err) {
//	        backoff.Wait()
//	        continue
//	    }
//	    return err
//	}
var ErrWouldBlock = iox.ErrWouldBlock

var (
	// ErrInvalidCapacity is returned by constructors when the capacity is
	// not positive, exceeds MaxCapacity, or is not a power of two under the
	// strict policy.
	ErrInvalidCapacity = errors.New("ring: invalid capacity")

	// ErrAllocation is returned when backing storage cannot be obtained
	// or released.
	ErrAllocation = errors.New("ring: allocation failed")

	// ErrClosed is returned by Close and Retain once the last reference
	// has been dropped.
	ErrClosed = errors.New("ring: closed")
)

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

func invalidCapacity(capacity int, reason string) error {
	return fmt.Errorf("%w: %d (%s)", ErrInvalidCapacity, capacity, reason)
}

func invalidAllocLen(got, want int) error {
	return fmt.Errorf("%w: allocator returned %d slots, want %d", ErrAllocation, got, want)
}

func wrapAlloc(op string, err error) error {
	if errors.Is(err, ErrAllocation) {
		return fmt.Errorf("ring: %s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrAllocation, op, err)
}

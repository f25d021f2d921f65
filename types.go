// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

// Queue is the combined producer-consumer interface of a ring.
//
// A ring has exactly two sides. Hand the Producer view to the one goroutine
// that enqueues and the Consumer view to the one goroutine that dequeues;
// the type system then keeps each side away from the other's index.
//
// Example:
//
//	r, _ := ring.New[uintptr](1024)
//
//	go produce(r) // func produce(p ring.Producer[uintptr])
//	go consume(r) // func consume(c ring.Consumer[uintptr])
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
}

// Producer is the enqueueing side of a ring.
//
// All methods are non-blocking. A full ring is reported as false, a short
// count, or ErrWouldBlock; none of these is a failure.
type Producer[T any] interface {
	// Push adds one element. Returns false if the ring is full.
	Push(elem T) bool

	// PushMany adds as many leading elements of elems as fit and returns
	// how many were added.
	PushMany(elems []T) int

	// Enqueue adds one element, copied from *elem.
	// Returns nil on success, ErrWouldBlock if the ring is full.
	Enqueue(elem *T) error

	// Available returns an advisory count of free slots.
	Available() int

	Cap() int
}

// Consumer is the dequeueing side of a ring.
//
// Dequeued slots are cleared to allow garbage collection of referenced
// objects. Peek and PeekMany leave the ring unchanged.
type Consumer[T any] interface {
	// Pull removes the oldest element.
	// Returns (zero-value, false) if the ring is empty.
	Pull() (T, bool)

	// PullMany removes up to len(elems) elements into elems and returns
	// how many were removed.
	PullMany(elems []T) int

	// Peek returns the oldest element without removing it.
	Peek() (T, bool)

	// PeekMany copies up to len(elems) of the oldest elements into elems
	// without removing them.
	PeekMany(elems []T) int

	// Dequeue removes the oldest element.
	// Returns (zero-value, ErrWouldBlock) if the ring is empty.
	Dequeue() (T, error)

	// Len returns an advisory count of occupied slots.
	Len() int

	Cap() int
}

var (
	_ Queue[uintptr] = (*Ring[uintptr])(nil)
	_ Queue[any]     = (*Ring[any])(nil)
)

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"fmt"
	"reflect"
)

// Allocator supplies and releases ring storage.
//
// Alloc must return a zeroed slice of exactly n elements or an error.
// Free receives the same slice once, after the ring's last Close.
type Allocator[T any] interface {
	Alloc(n int) ([]T, error)
	Free(buf []T) error
}

// Heap allocates ring storage on the Go heap.
type Heap[T any] struct{}

// Alloc returns make([]T, n). A length the runtime rejects is reported as
// ErrAllocation instead of a panic. Running out of memory is still fatal.
func (Heap[T]) Alloc(n int) (buf []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, fmt.Errorf("%w: heap: %v", ErrAllocation, r)
		}
	}()
	return make([]T, n), nil
}

// Free drops the slice; the garbage collector reclaims it.
func (Heap[T]) Free([]T) error { return nil }

// hasPointers reports whether values of t contain Go pointers the garbage
// collector must see.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Slice,
		reflect.String, reflect.Chan, reflect.Func, reflect.Interface:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

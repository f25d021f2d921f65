// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring_test

import (
	"errors"
	"fmt"

	"code.hybscloud.com/ring"
)

// ExampleNew demonstrates single-element push and pull.
func ExampleNew() {
	r, err := ring.New[int](8)
	if err != nil {
		panic(err)
	}
	defer r.Close()

	for i := 1; i <= 5; i++ {
		r.Push(i * 10)
	}

	for {
		v, ok := r.Pull()
		if !ok {
			break
		}
		fmt.Println(v)
	}

	// Output:
	// 10
	// 20
	// 30
	// 40
	// 50
}

// ExampleRing_PushMany demonstrates a partial batch push against a nearly
// full ring.
func ExampleRing_PushMany() {
	r, _ := ring.New[uintptr](4)
	r.Push(1)
	r.Push(2)

	n := r.PushMany([]uintptr{3, 4, 5, 6})
	fmt.Println("pushed:", n)

	out := make([]uintptr, 8)
	n = r.PullMany(out)
	fmt.Println("pulled:", out[:n])

	// Output:
	// pushed: 2
	// pulled: [1 2 3 4]
}

// ExampleRing_PeekMany demonstrates inspecting queued elements without
// consuming them.
func ExampleRing_PeekMany() {
	r, _ := ring.New[string](4)
	r.PushMany([]string{"a", "b", "c"})

	peek := make([]string, 2)
	n := r.PeekMany(peek)
	fmt.Println(peek[:n], r.Len())

	// Output:
	// [a b] 3
}

// ExampleConfig demonstrates the capacity policies.
func ExampleConfig() {
	r, _ := ring.Build[int](ring.Config(1000))
	fmt.Println("rounded:", r.Cap())

	_, err := ring.Build[int](ring.Config(1000).Strict())
	fmt.Println("strict:", errors.Is(err, ring.ErrInvalidCapacity))

	_, err = ring.New[int](0)
	fmt.Println("zero:", errors.Is(err, ring.ErrInvalidCapacity))

	// Output:
	// rounded: 1024
	// strict: true
	// zero: true
}

// ExampleFromStorage demonstrates a ring over caller-owned storage.
func ExampleFromStorage() {
	storage := make([]uint64, 16)
	r, err := ring.FromStorage(storage)
	if err != nil {
		panic(err)
	}

	r.Push(0xfeed)
	fmt.Printf("cap=%d slot0=%#x\n", r.Cap(), storage[0])

	// Output:
	// cap=16 slot0=0xfeed
}

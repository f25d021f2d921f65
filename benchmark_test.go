// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring_test

import (
	"runtime"
	"strconv"
	"sync"
	"testing"

	"code.hybscloud.com/ring"
	"code.hybscloud.com/spin"
)

// =============================================================================
// Single-Goroutine Baselines
// =============================================================================

func BenchmarkRing_SingleOp(b *testing.B) {
	r, _ := ring.New[uintptr](1024)

	b.ResetTimer()
	for i := range b.N {
		r.Push(uintptr(i))
		r.Pull()
	}
}

func BenchmarkRing_EnqueueDequeue(b *testing.B) {
	r, _ := ring.New[int](1024)

	b.ResetTimer()
	for i := range b.N {
		v := i
		r.Enqueue(&v)
		r.Dequeue()
	}
}

func BenchmarkRing_Batch(b *testing.B) {
	for _, size := range []int{8, 64, 512} {
		b.Run(strconv.Itoa(size), func(b *testing.B) {
			r, _ := ring.New[uintptr](1024)
			buf := make([]uintptr, size)

			b.ResetTimer()
			for range b.N {
				r.PushMany(buf)
				r.PullMany(buf)
			}
			b.SetBytes(int64(size) * 8)
		})
	}
}

// =============================================================================
// Producer/Consumer Throughput
// =============================================================================

func BenchmarkRing_Concurrent(b *testing.B) {
	if ring.RaceEnabled {
		b.Skip("skip: ring uses cross-variable memory ordering")
	}
	if runtime.GOMAXPROCS(0) < 2 {
		b.Skip("skip: needs two Ps")
	}
	r, _ := ring.New[uintptr](1024)
	var wg sync.WaitGroup

	b.ResetTimer()
	wg.Add(1)
	go func() {
		defer wg.Done()
		sw := spin.Wait{}
		for i := range b.N {
			for !r.Push(uintptr(i)) {
				sw.Once()
			}
			sw.Reset()
		}
	}()

	sw := spin.Wait{}
	for range b.N {
		for {
			if _, ok := r.Pull(); ok {
				break
			}
			sw.Once()
		}
		sw.Reset()
	}
	wg.Wait()
}

func BenchmarkRing_ConcurrentBatch(b *testing.B) {
	if ring.RaceEnabled {
		b.Skip("skip: ring uses cross-variable memory ordering")
	}
	if runtime.GOMAXPROCS(0) < 2 {
		b.Skip("skip: needs two Ps")
	}
	r, _ := ring.New[uintptr](1024)
	var wg sync.WaitGroup

	b.ResetTimer()
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]uintptr, 32)
		sw := spin.Wait{}
		for sent := 0; sent < b.N; {
			n := r.PushMany(buf[:min(len(buf), b.N-sent)])
			if n == 0 {
				sw.Once()
				continue
			}
			sw.Reset()
			sent += n
		}
	}()

	buf := make([]uintptr, 32)
	sw := spin.Wait{}
	for got := 0; got < b.N; {
		n := r.PullMany(buf)
		if n == 0 {
			sw.Once()
			continue
		}
		sw.Reset()
		got += n
	}
	wg.Wait()
}

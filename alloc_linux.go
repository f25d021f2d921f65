// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package ring

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math/bits"
	"os"
	"reflect"
	"strconv"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultHugePageSize is used when the kernel does not report one.
const DefaultHugePageSize = 2 << 20

// Mmap allocates ring storage from anonymous private mappings outside the
// Go heap.
//
// The garbage collector does not scan mapped memory, so element types that
// contain Go pointers are rejected. Use it for handles such as uintptr,
// uint64 or pointer-free structs.
type Mmap[T any] struct {
	// HugePages requests MAP_HUGETLB. The mapping fails if the system has
	// no huge pages reserved.
	HugePages bool

	// PageSize selects the huge page size in bytes (a power of 2, e.g.
	// 1<<30). Zero means the kernel default from /proc/meminfo.
	// Ignored unless HugePages is set.
	PageSize int
}

// Alloc maps n elements of zeroed memory.
//
// Huge page mappings are rounded up to a whole number of pages; the extra
// tail is unused but stays mapped until Free.
func (m Mmap[T]) Alloc(n int) ([]T, error) {
	typ := reflect.TypeFor[T]()
	if hasPointers(typ) {
		return nil, fmt.Errorf("%w: mmap: %v contains pointers", ErrAllocation, typ)
	}
	size := int(unsafe.Sizeof(*new(T)))
	length, err := m.mapLen(n, size)
	if err != nil {
		return nil, err
	}

	flags := unix.MAP_ANON | unix.MAP_PRIVATE
	if m.HugePages {
		flags |= unix.MAP_HUGETLB
		if m.PageSize > 0 {
			flags |= bits.TrailingZeros(uint(m.PageSize)) << unix.MAP_HUGE_SHIFT
		}
	}
	mem, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap: %w", ErrAllocation, err)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(mem))), n), nil
}

// Free unmaps storage returned by Alloc. It must be called on the same
// Mmap configuration that allocated buf.
func (m Mmap[T]) Free(buf []T) error {
	if len(buf) == 0 {
		return nil
	}
	length, err := m.mapLen(len(buf), int(unsafe.Sizeof(*new(T))))
	if err != nil {
		return err
	}
	mem := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(buf))), length)
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// mapLen returns the byte length mapped for n elements of size bytes.
// Alloc and Free both derive it, so Munmap sees exactly the mapped range.
func (m Mmap[T]) mapLen(n, size int) (int, error) {
	const maxInt = int(^uint(0) >> 1)
	if size == 0 || n <= 0 || n > maxInt/size {
		return 0, fmt.Errorf("%w: mmap: %d elements of size %d", ErrAllocation, n, size)
	}
	length := n * size
	if !m.HugePages {
		return length, nil
	}

	page := m.PageSize
	if page == 0 {
		page = hugePageSize()
	}
	if !isPow2(page) || length > maxInt-(page-1) {
		return 0, fmt.Errorf("%w: mmap: %d bytes in huge pages of %d", ErrAllocation, length, page)
	}
	return (length + page - 1) &^ (page - 1), nil
}

var hugePageSize = sync.OnceValue(func() int {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return DefaultHugePageSize
	}
	defer f.Close()
	if size, ok := parseHugePageSize(f); ok {
		return size
	}
	return DefaultHugePageSize
})

// parseHugePageSize reads the "Hugepagesize:    2048 kB" line of meminfo.
func parseHugePageSize(r io.Reader) (int, bool) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		rest, ok := bytes.CutPrefix(sc.Bytes(), []byte("Hugepagesize:"))
		if !ok {
			continue
		}
		fields := bytes.Fields(rest)
		if len(fields) != 2 || string(fields[1]) != "kB" {
			return 0, false
		}
		kb, err := strconv.Atoi(string(fields[0]))
		if err != nil || kb <= 0 {
			return 0, false
		}
		return kb << 10, true
	}
	return 0, false
}

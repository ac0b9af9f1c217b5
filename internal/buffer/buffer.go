// Package buffer provides a cache-line-aligned, padded byte buffer.
//
// Parsers in this module load fixed-size blocks (see internal/simdprim) at
// arbitrary offsets up to the logical end of the input. Buffer guarantees
// that one such load is always safe, even when its start offset lands in
// the last few bytes of real data, by overallocating and aligning.
package buffer

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// Align is the alignment (in bytes) of the returned window's start address.
// 64 bytes matches a typical cache line and the 64-byte block size used by
// internal/simdprim.
const Align = 64

// MinPadding is the minimum number of addressable-but-undefined bytes that
// must follow the logical length of the buffer, per spec.md §4.A.
const MinPadding = 64

// ErrOverflow is returned when logicalLength+padding overflows an int.
var ErrOverflow = errors.New("buffer: logical length plus padding overflows")

// ErrOutOfMemory wraps an allocation failure from the runtime.
var ErrOutOfMemory = errors.New("buffer: out of memory")

// Buffer owns a 64-byte-aligned allocation of at least Length()+Padding()
// bytes. The window [0, Length()) holds caller data; bytes in
// [Length(), Length()+Padding()) exist (so a 64-byte load starting below
// Length() never reads out of bounds) but their contents are undefined.
type Buffer struct {
	raw     []byte // the real backing allocation, possibly longer than needed
	data    []byte // aligned window into raw, length = logicalLength+padding
	length  int    // logical length (caller-visible data)
	padding int
}

// Allocate returns a Buffer whose Data()[:logicalLength] is the caller's
// writable region and whose total capacity is logicalLength+padding,
// aligned to Align. padding is raised to MinPadding if smaller.
func Allocate(logicalLength int, padding int) (*Buffer, error) {
	if logicalLength < 0 {
		return nil, fmt.Errorf("buffer: negative logical length %d", logicalLength)
	}
	if padding < MinPadding {
		padding = MinPadding
	}

	total := logicalLength + padding
	if total < logicalLength || total < padding {
		return nil, ErrOverflow
	}

	// Overallocate by Align bytes so an Align-aligned interior window of
	// total bytes always fits (the aligned start is at most Align-1 in).
	rawLen := total + Align
	if rawLen < total {
		return nil, ErrOverflow
	}

	raw := func() (b []byte) {
		defer func() {
			if r := recover(); r != nil {
				b = nil
			}
		}()
		return make([]byte, rawLen)
	}()
	if raw == nil {
		return nil, ErrOutOfMemory
	}

	offset := alignedOffset(raw)
	data := raw[offset : offset+total]

	return &Buffer{
		raw:     raw,
		data:    data,
		length:  logicalLength,
		padding: padding,
	}, nil
}

// alignedOffset returns the smallest i such that &b[i] is Align-byte
// aligned, assuming len(b) >= Align.
func alignedOffset(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	addr := uintptr(unsafe.Pointer(&b[0]))
	mis := addr % Align
	if mis == 0 {
		return 0
	}
	return int(Align - mis)
}

// Data returns the full addressable window, including padding. Only bytes
// in [0, Length()) are meaningful; the rest is undefined but safe to read.
func (b *Buffer) Data() []byte { return b.data }

// Logical returns the caller-visible slice, Data()[:Length()].
func (b *Buffer) Logical() []byte { return b.data[:b.length] }

// Length returns the logical length passed to Allocate.
func (b *Buffer) Length() int { return b.length }

// Padding returns the padding passed to Allocate (or MinPadding if larger).
func (b *Buffer) Padding() int { return b.padding }

// CopyFrom copies src into the logical region, which must be exactly
// len(src) bytes.
func (b *Buffer) CopyFrom(src []byte) {
	if len(src) != b.length {
		panic("buffer: CopyFrom length mismatch")
	}
	copy(b.data[:b.length], src)
}

// poolBuffers recycles Buffers by a coarse size class (next power-of-two
// bucket of logical length plus MinPadding) to reduce allocator pressure for repeated
// parses of similarly sized inputs. Mirrors the sync.Pool sizing idiom in
// the teacher's internal/fastparser/pool.go.
var poolBuffers sync.Map // map[int]*sync.Pool, keyed by size class

func sizeClass(n int) int {
	c := 4096
	for c < n {
		c <<= 1
	}
	return c
}

// Get returns a Buffer whose logical length is exactly logicalLength, reused
// from a pool when a suitably sized allocation is available.
func Get(logicalLength int) (*Buffer, error) {
	class := sizeClass(logicalLength + MinPadding)
	poolIface, _ := poolBuffers.LoadOrStore(class, &sync.Pool{
		New: func() interface{} { return nil },
	})
	pool := poolIface.(*sync.Pool)

	if v := pool.Get(); v != nil {
		buf := v.(*Buffer)
		if len(buf.raw) >= class+Align {
			buf.length = logicalLength
			buf.padding = MinPadding
			offset := alignedOffset(buf.raw)
			buf.data = buf.raw[offset : offset+logicalLength+MinPadding]
			return buf, nil
		}
	}
	buf, err := Allocate(class-MinPadding, MinPadding)
	if err != nil {
		return nil, err
	}
	buf.length = logicalLength
	buf.data = buf.data[:logicalLength+MinPadding]
	return buf, nil
}

// Put returns a Buffer to its size-class pool for reuse. The Buffer must not
// be used again after Put.
func Put(b *Buffer) {
	if b == nil {
		return
	}
	class := sizeClass(len(b.raw) - Align)
	poolIface, _ := poolBuffers.LoadOrStore(class, &sync.Pool{
		New: func() interface{} { return nil },
	})
	pool := poolIface.(*sync.Pool)
	pool.Put(b)
}

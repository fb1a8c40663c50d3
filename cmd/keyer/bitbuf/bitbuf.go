// Package bitbuf implements a fixed-capacity packed bit buffer with a
// big-endian length header.
//
// Layout:
//
//	[0..4)   uint32 big-endian, number of valid content bits
//	[4..cap) content bits, one per unit, LSB-first within each byte
package bitbuf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the size in bytes of the length header.
const HeaderSize = 4

const headerBits = HeaderSize * 8

var (
	ErrOverflow = errors.New("bit buffer capacity exceeded")
	ErrCapacity = errors.New("bit buffer capacity too small")
)

// Buffer is a fixed-capacity bit buffer. Writes go through a cursor that only
// moves forward; Begin rewinds it.
type Buffer struct {
	data   []byte
	cursor uint32 // absolute bit offset of the next write
}

// New allocates a buffer of capacity bytes, header included.
func New(capacity int) (*Buffer, error) {
	if capacity <= HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need more than %d", ErrCapacity, capacity, HeaderSize)
	}
	return &Buffer{
		data:   make([]byte, capacity),
		cursor: headerBits,
	}, nil
}

// Cap returns the capacity in bytes, header included.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// BitCap returns how many content bits fit in the buffer.
func (b *Buffer) BitCap() uint32 {
	return uint32(len(b.data))*8 - headerBits
}

// Len returns the length header.
func (b *Buffer) Len() uint32 {
	return binary.BigEndian.Uint32(b.data[:HeaderSize])
}

// SetLen writes the length header.
func (b *Buffer) SetLen(n uint32) {
	binary.BigEndian.PutUint32(b.data[:HeaderSize], n)
}

// Clear marks the buffer as holding no message. Content bytes are left as
// they are but become unreachable.
func (b *Buffer) Clear() {
	b.SetLen(0)
}

// Empty reports whether the length header is zero.
func (b *Buffer) Empty() bool {
	return b.Len() == 0
}

// Begin starts a new write: the cursor returns to the first content bit and
// the header is zeroed until Commit.
func (b *Buffer) Begin() {
	b.cursor = headerBits
	b.Clear()
}

// Written returns the number of content bits written since Begin.
func (b *Buffer) Written() uint32 {
	return b.cursor - headerBits
}

// AppendRun writes n copies of value at the cursor. If the run does not fit,
// nothing is written, the header is zeroed and ErrOverflow is returned.
func (b *Buffer) AppendRun(value bool, n uint32) error {
	limit := uint32(len(b.data)) * 8
	if n > limit-b.cursor {
		b.Clear()
		return fmt.Errorf("%w: run of %d at bit %d, capacity %d bits", ErrOverflow, n, b.Written(), b.BitCap())
	}

	var bit byte
	if value {
		bit = 1
	}
	for i := b.cursor; i < b.cursor+n; i++ {
		offset := i % 8
		// First touch of a byte clears it
		if offset == 0 {
			b.data[i/8] = 0
		}
		b.data[i/8] |= bit << offset
	}
	b.cursor += n
	return nil
}

// Commit writes the number of bits written since Begin into the header.
func (b *Buffer) Commit() uint32 {
	n := b.Written()
	b.SetLen(n)
	return n
}

// Bit reads content bit i. It does not consult the header; reading past the
// written content returns stale data, reading past the capacity returns false.
func (b *Buffer) Bit(i uint32) bool {
	if i >= b.BitCap() {
		return false
	}
	abs := i + headerBits
	return (b.data[abs/8]>>(abs%8))&1 == 1
}

// Bytes exposes the raw buffer, header included.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// cursor.go

package decoder

import (
	"encoding/binary"
	"math"
)

// Cursor is a borrowed view over a contiguous byte buffer plus a read
// position. It never copies the underlying buffer; sub-slices returned by
// Take and ReadCString alias it directly.
//
// Invariant: 0 <= pos <= len(buf). Every successful read advances pos by
// exactly the number of bytes consumed. A failing read leaves pos
// untouched.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for little-endian scalar reads starting at offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current read position.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// IsEmpty reports whether the cursor has no unread bytes left.
func (c *Cursor) IsEmpty() bool { return c.pos >= len(c.buf) }

// Peek returns the byte at pos+offset without advancing the cursor. The
// second return value is false if that byte is out of range.
func (c *Cursor) Peek(offset int) (byte, bool) {
	i := c.pos + offset
	if i < 0 || i >= len(c.buf) {
		return 0, false
	}
	return c.buf[i], true
}

func (c *Cursor) need(n int) error {
	if n < 0 || c.Remaining() < n {
		return newErr(OutOfRange, "need %d bytes at pos %d, have %d", n, c.pos, c.Remaining())
	}
	return nil
}

// ReadByte reads and returns a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadUint32LE reads a 4-byte little-endian unsigned integer.
func (c *Cursor) ReadUint32LE() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadInt32LE reads a 4-byte little-endian signed integer.
func (c *Cursor) ReadInt32LE() (int32, error) {
	v, err := c.ReadUint32LE()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ReadUint64LE reads an 8-byte little-endian unsigned integer.
func (c *Cursor) ReadUint64LE() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadInt64LE reads an 8-byte little-endian signed integer.
func (c *Cursor) ReadInt64LE() (int64, error) {
	v, err := c.ReadUint64LE()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// ReadFloat64LE reads 8 bytes and reinterprets them as IEEE-754 binary64
// little-endian.
func (c *Cursor) ReadFloat64LE() (float64, error) {
	v, err := c.ReadUint64LE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadObjectID reads the 12 raw bytes of a BSON ObjectId.
func (c *Cursor) ReadObjectID() ([12]byte, error) {
	var id [12]byte
	if err := c.need(12); err != nil {
		return id, err
	}
	copy(id[:], c.buf[c.pos:c.pos+12])
	c.pos += 12
	return id, nil
}

// ReadCString reads bytes up to (and not including) the next NUL,
// advancing the cursor past the NUL. The returned slice aliases the
// underlying buffer.
func (c *Cursor) ReadCString() ([]byte, error) {
	i := c.pos
	for i < len(c.buf) && c.buf[i] != 0 {
		i++
	}
	if i >= len(c.buf) {
		return nil, newErr(OutOfRange, "unterminated cstring starting at %d", c.pos)
	}
	s := c.buf[c.pos:i]
	c.pos = i + 1
	return s, nil
}

// Take returns a sub-slice of the next n bytes and advances the cursor by
// n. The returned slice aliases the underlying buffer.
func (c *Cursor) Take(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	s := c.buf[c.pos : c.pos+n]
	c.pos += n
	return s, nil
}

// Skip advances the cursor by n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

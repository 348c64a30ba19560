// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// cursor_test.go

package decoder

import (
	"errors"
	"testing"
)

func TestCursorReadsAdvanceByExactWidth(t *testing.T) {
	buf := []byte{0x2A, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	c := NewCursor(buf)

	if _, err := c.ReadUint32LE(); err != nil {
		t.Fatal(err)
	}
	if c.Pos() != 4 {
		t.Fatalf("pos = %d, want 4", c.Pos())
	}

	if _, err := c.ReadUint64LE(); err != nil {
		t.Fatal(err)
	}
	if c.Pos() != 12 {
		t.Fatalf("pos = %d, want 12", c.Pos())
	}
	if !c.IsEmpty() {
		t.Fatal("expected cursor to be empty")
	}
}

func TestCursorFailingReadLeavesPositionUnchanged(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02})
	before := c.Pos()
	if _, err := c.ReadUint32LE(); err == nil {
		t.Fatal("expected OutOfRange error")
	}
	if c.Pos() != before {
		t.Fatalf("pos changed after failing read: %d != %d", c.Pos(), before)
	}

	var de *Error
	_, err := c.ReadUint32LE()
	if !errors.As(err, &de) || de.Kind != OutOfRange {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
}

func TestCursorReadFloat64LE(t *testing.T) {
	// 1.5 as IEEE-754 binary64 little-endian.
	buf := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF8, 0x3F}
	c := NewCursor(buf)
	f, err := c.ReadFloat64LE()
	if err != nil {
		t.Fatal(err)
	}
	if f != 1.5 {
		t.Fatalf("f = %v, want 1.5", f)
	}
}

func TestCursorReadCString(t *testing.T) {
	c := NewCursor([]byte{'h', 'i', 0x00, 'x'})
	s, err := c.ReadCString()
	if err != nil {
		t.Fatal(err)
	}
	if string(s) != "hi" {
		t.Fatalf("s = %q, want %q", s, "hi")
	}
	if c.Pos() != 3 {
		t.Fatalf("pos = %d, want 3", c.Pos())
	}
}

func TestCursorReadCStringUnterminated(t *testing.T) {
	c := NewCursor([]byte{'h', 'i'})
	if _, err := c.ReadCString(); err == nil {
		t.Fatal("expected error for unterminated cstring")
	}
}

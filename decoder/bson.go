// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// bson.go

package decoder

import "unicode/utf8"

// Element type codes, per bsonspec.org.
const (
	tagDouble     byte = 0x01
	tagString     byte = 0x02
	tagDocument   byte = 0x03
	tagArray      byte = 0x04
	tagBinary     byte = 0x05
	tagUndefined  byte = 0x06
	tagObjectID   byte = 0x07
	tagBool       byte = 0x08
	tagDateTime   byte = 0x09
	tagNull       byte = 0x0A
	tagRegex      byte = 0x0B
	tagDBPointer  byte = 0x0C
	tagJSCode     byte = 0x0D
	tagSymbol     byte = 0x0E
	tagJSWithScop byte = 0x0F
	tagInt32      byte = 0x10
	tagTimestamp  byte = 0x11
	tagInt64      byte = 0x12
	tagDecimal128 byte = 0x13
	tagMinKey     byte = 0xFF
	tagMaxKey     byte = 0x7F
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

// Value variants. KindUndefined, KindDecimal128, KindMinKey and KindMaxKey
// are represented so the reader never desynchronizes on them, but they
// carry no usable payload: the flattener (spec section 4.4) drops them.
const (
	KindDouble ValueKind = iota
	KindString
	KindDocument
	KindArray
	KindBinary
	KindObjectID
	KindBoolean
	KindDateTime
	KindNull
	KindInt32
	KindTimestamp
	KindInt64
	KindUndefined
	KindDecimal128
	KindMinKey
	KindMaxKey
)

// Binary holds a BSON binary subtype and its raw payload.
type Binary struct {
	Subtype byte
	Data    []byte
}

// Value is a tagged union over the BSON scalar and container types this
// reader supports (spec section 3). Only the field matching Kind is
// meaningful.
type Value struct {
	Kind      ValueKind
	Double    float64
	Str       string
	Doc       Document
	Arr       Array
	Bin       Binary
	ObjectID  [12]byte
	Bool      bool
	DateTime  int64
	Int32     int32
	Timestamp uint64
	Int64     int64
}

// Elem is one (key, value) pair of a Document, in source byte order.
type Elem struct {
	Key   string
	Value Value
}

// Document is an ordered BSON document: a vector of key/value pairs that
// preserves the insertion (source byte) order of the encoded elements.
// This ordering is load-bearing for the reference flattener (spec 4.4)
// and the FTDC producer's column identity.
type Document []Elem

// Array is an ordered BSON array: the element values in source order.
type Array []Value

// FtdcCarrier is what Parse returns when invoked with Options.FTDC=true
// and a top-level Binary element is found: the subtype byte and the raw
// (still compressed) payload bytes, aliasing the input buffer.
type FtdcCarrier struct {
	Subtype byte
	Payload []byte
}

// DefaultMaxDepth bounds recursive document/array nesting. The legacy
// prototype capped this at 3, which is too shallow for a real
// serverStatus document; spec section 9 recommends a configurable cap of
// at least 32.
const DefaultMaxDepth = 32

// Options configures Parse.
type Options struct {
	// FTDC, when true, makes Parse stop at the first top-level Binary
	// element and return it as an *FtdcCarrier instead of continuing to
	// parse the rest of the (irrelevant) chunk trailer.
	FTDC bool
	// MaxDepth bounds document/array nesting depth. Zero means
	// DefaultMaxDepth.
	MaxDepth int
}

// Parse parses one top-level BSON document from buf. On success exactly
// one of the two non-error return values is non-nil: doc, unless
// opts.FTDC is set and a top-level Binary element was found first, in
// which case carrier is returned instead.
func Parse(buf []byte, opts Options) (doc *Document, carrier *FtdcCarrier, err error) {
	cur := NewCursor(buf)
	size, err := cur.ReadUint32LE()
	if err != nil {
		return nil, nil, err
	}
	if size < 5 || int(size) > len(buf) {
		return nil, nil, newErr(InvalidSize, "declared size %d, buffer has %d bytes", size, len(buf))
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return parseContainer(cur, int(size), 0, maxDepth, opts.FTDC)
}

// parseContainer parses the element stream of a document or array whose
// body runs from cur's current position to end-1 (end is the absolute
// offset one past the container's terminating 0x00 byte). When ftdcTop is
// true, the first Binary element encountered short-circuits parsing and
// is returned as an *FtdcCarrier.
func parseContainer(cur *Cursor, end int, depth int, maxDepth int, ftdcTop bool) (*Document, *FtdcCarrier, error) {
	if depth > maxDepth {
		return nil, nil, newErr(OutOfRange, "nesting depth exceeded %d", maxDepth)
	}

	doc := Document{}
	for cur.Pos() < end-1 {
		typeByte, err := cur.ReadByte()
		if err != nil {
			return nil, nil, err
		}
		nameBytes, err := cur.ReadCString()
		if err != nil {
			return nil, nil, err
		}
		if !utf8.Valid(nameBytes) {
			return nil, nil, newErr(Utf8Error, "element name is not valid utf8")
		}

		if ftdcTop && typeByte == tagBinary {
			length, err := cur.ReadInt32LE()
			if err != nil {
				return nil, nil, err
			}
			if length < 0 {
				return nil, nil, newErr(InvalidSize, "negative binary length %d", length)
			}
			subtype, err := cur.ReadByte()
			if err != nil {
				return nil, nil, err
			}
			data, err := cur.Take(int(length))
			if err != nil {
				return nil, nil, err
			}
			return nil, &FtdcCarrier{Subtype: subtype, Payload: data}, nil
		}

		val, err := parseValue(cur, typeByte, depth, maxDepth)
		if err != nil {
			return nil, nil, err
		}
		doc = append(doc, Elem{Key: string(nameBytes), Value: val})
	}

	if cur.Pos() != end-1 {
		return nil, nil, newErr(InvalidTerminator, "expected terminator at %d, cursor at %d", end-1, cur.Pos())
	}
	term, err := cur.ReadByte()
	if err != nil {
		return nil, nil, err
	}
	if term != 0x00 {
		return nil, nil, newErr(InvalidTerminator, "terminator byte was 0x%02x, want 0x00", term)
	}
	return &doc, nil, nil
}

func parseValue(cur *Cursor, typeByte byte, depth, maxDepth int) (Value, error) {
	switch typeByte {
	case tagDouble:
		f, err := cur.ReadFloat64LE()
		return Value{Kind: KindDouble, Double: f}, err

	case tagString:
		s, err := readLengthPrefixedString(cur)
		return Value{Kind: KindString, Str: s}, err

	case tagDocument:
		sub, err := parseNested(cur, depth, maxDepth)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDocument, Doc: *sub}, nil

	case tagArray:
		sub, err := parseNested(cur, depth, maxDepth)
		if err != nil {
			return Value{}, err
		}
		arr := make(Array, len(*sub))
		for i, e := range *sub {
			arr[i] = e.Value
		}
		return Value{Kind: KindArray, Arr: arr}, nil

	case tagBinary:
		length, err := cur.ReadInt32LE()
		if err != nil {
			return Value{}, err
		}
		if length < 0 {
			return Value{}, newErr(InvalidSize, "negative binary length %d", length)
		}
		subtype, err := cur.ReadByte()
		if err != nil {
			return Value{}, err
		}
		data, err := cur.Take(int(length))
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBinary, Bin: Binary{Subtype: subtype, Data: data}}, nil

	case tagObjectID:
		id, err := cur.ReadObjectID()
		return Value{Kind: KindObjectID, ObjectID: id}, err

	case tagBool:
		b, err := cur.ReadByte()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBoolean, Bool: b != 0}, nil

	case tagDateTime:
		v, err := cur.ReadInt64LE()
		return Value{Kind: KindDateTime, DateTime: v}, err

	case tagNull:
		return Value{Kind: KindNull}, nil

	case tagInt32:
		v, err := cur.ReadInt32LE()
		return Value{Kind: KindInt32, Int32: v}, err

	case tagTimestamp:
		v, err := cur.ReadUint64LE()
		return Value{Kind: KindTimestamp, Timestamp: v}, err

	case tagInt64:
		v, err := cur.ReadInt64LE()
		return Value{Kind: KindInt64, Int64: v}, err

	case tagUndefined:
		return Value{Kind: KindUndefined}, nil

	case tagDecimal128:
		if err := cur.Skip(16); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDecimal128}, nil

	case tagMinKey:
		return Value{Kind: KindMinKey}, nil

	case tagMaxKey:
		return Value{Kind: KindMaxKey}, nil

	case tagRegex, tagDBPointer, tagJSCode, tagSymbol, tagJSWithScop:
		return Value{}, newErr(UnsupportedType, "type 0x%02x has no fixed-width skip rule", typeByte)

	default:
		return Value{}, newErr(UnsupportedType, "unrecognized bson type 0x%02x", typeByte)
	}
}

// parseNested parses a length-prefixed document or array value (they
// share the same on-wire framing) starting at the cursor's current
// position and returns the resulting Document.
func parseNested(cur *Cursor, depth, maxDepth int) (*Document, error) {
	start := cur.Pos()
	size, err := cur.ReadInt32LE()
	if err != nil {
		return nil, err
	}
	if size < 5 {
		return nil, newErr(InvalidSize, "nested document declared size %d", size)
	}
	end := start + int(size)
	doc, _, err := parseContainer(cur, end, depth+1, maxDepth, false)
	return doc, err
}

// readLengthPrefixedString reads a BSON string value: an i32 LE length
// (inclusive of the trailing NUL) followed by that many bytes, the last
// of which must be NUL.
func readLengthPrefixedString(cur *Cursor) (string, error) {
	length, err := cur.ReadInt32LE()
	if err != nil {
		return "", err
	}
	if length < 1 {
		return "", newErr(InvalidSize, "string length %d must be >= 1", length)
	}
	raw, err := cur.Take(int(length))
	if err != nil {
		return "", err
	}
	if raw[len(raw)-1] != 0x00 {
		return "", newErr(InvalidSize, "string value missing trailing NUL")
	}
	s := raw[:len(raw)-1]
	if !utf8.Valid(s) {
		return "", newErr(Utf8Error, "string value is not valid utf8")
	}
	return string(s), nil
}

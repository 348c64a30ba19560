// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// flatten.go

package decoder

import (
	"regexp"
	"strconv"
)

// PathSeparator joins path segments in a flattened reference. Spec
// section 4.4 defines dotted paths; this differs from the teacher's
// on-disk "/" separator, which predates the dotted-path requirement.
const PathSeparator = "."

// numericString matches a leaf string value that should be kept as a
// numeric metric rather than dropped (spec section 4.4).
var numericString = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// RefEntry is one (dotted_path, base) pair produced by flattening a
// reference document.
type RefEntry struct {
	Path string
	Base int64
}

// Flatten walks doc in document order and returns the ordered sequence of
// (dotted_path, i64 base) pairs that establish the metrics schema (spec
// section 4.4). Non-numeric leaves are silently dropped; a BSON Timestamp
// expands into two consecutive entries sharing the field's own path, in
// the order (seconds, ordinal).
//
// Duplicate sibling keys within the same document level make column
// identity ambiguous and are rejected with MetricsCountMismatch, per
// spec section 9.
func Flatten(doc *Document) ([]RefEntry, error) {
	var out []RefEntry
	if err := flattenDocument(*doc, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenDocument(doc Document, path string, out *[]RefEntry) error {
	seen := make(map[string]struct{}, len(doc))
	for _, e := range doc {
		if _, dup := seen[e.Key]; dup {
			return newErr(MetricsCountMismatch, "duplicate key %q at path %q", e.Key, path)
		}
		seen[e.Key] = struct{}{}

		child := join(path, e.Key)
		if err := flattenValue(e.Value, child, out); err != nil {
			return err
		}
	}
	return nil
}

func flattenValue(v Value, path string, out *[]RefEntry) error {
	switch v.Kind {
	case KindDocument:
		return flattenDocument(v.Doc, path, out)

	case KindArray:
		for i, elem := range v.Arr {
			child := join(path, strconv.Itoa(i))
			if err := flattenValue(elem, child, out); err != nil {
				return err
			}
		}
		return nil

	case KindBoolean:
		v64 := int64(0)
		if v.Bool {
			v64 = 1
		}
		*out = append(*out, RefEntry{Path: path, Base: v64})

	case KindDouble:
		*out = append(*out, RefEntry{Path: path, Base: int64(v.Double)})

	case KindInt32:
		*out = append(*out, RefEntry{Path: path, Base: int64(v.Int32)})

	case KindInt64:
		*out = append(*out, RefEntry{Path: path, Base: v.Int64})

	case KindDateTime:
		*out = append(*out, RefEntry{Path: path, Base: v.DateTime})

	case KindTimestamp:
		// A Timestamp expands into two consecutive entries sharing the
		// field's own path, ordered (seconds, ordinal). Low 32 bits are
		// the ordinal/increment, high 32 bits are the seconds.
		ordinal := int64(uint32(v.Timestamp))
		seconds := int64(uint32(v.Timestamp >> 32))
		*out = append(*out, RefEntry{Path: path, Base: seconds})
		*out = append(*out, RefEntry{Path: path, Base: ordinal})

	case KindString:
		if numericString.MatchString(v.Str) {
			f, err := strconv.ParseFloat(v.Str, 64)
			if err != nil {
				return nil
			}
			*out = append(*out, RefEntry{Path: path, Base: int64(f)})
		}
		// non-numeric strings are dropped

	default:
		// KindNull, KindBinary, KindObjectID, KindUndefined,
		// KindDecimal128, KindMinKey, KindMaxKey are dropped.
	}
	return nil
}

func join(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + PathSeparator + child
}

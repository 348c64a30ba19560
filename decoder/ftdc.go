// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// ftdc.go

package decoder

// Chunk is one fully decoded FTDC chunk: the flattened reference schema
// plus the reconstructed samples restored from its delta matrix (spec
// section 4.6).
type Chunk struct {
	Ref     []RefEntry
	Samples []Sample
}

// Inflate decompresses a chunk's compressed payload. Concrete
// implementations live outside this package (see ftdcio.Inflate) so the
// decoder itself never imports a compression library directly.
type Inflate func(compressed []byte) ([]byte, error)

// expectedCarrierSubtypes are the Binary subtypes a chunk's top-level
// carrier is allowed to declare; anything else is a chunk kind this
// driver doesn't understand yet and is skipped rather than rejected
// (spec section 4.6).
var expectedCarrierSubtypes = map[byte]bool{0x00: true, 0x01: true}

// DecodeChunk runs the full chunk pipeline: peel the top-level Binary
// carrier off raw, inflate its payload, parse the leading reference
// document, flatten it into a column schema, then decode the trailing
// delta matrix against that schema (spec section 4.6). A chunk whose
// carrier subtype isn't one this driver understands is skipped: both
// return values come back nil with no error.
func DecodeChunk(raw []byte, inflate Inflate) (*Chunk, error) {
	_, carrier, err := Parse(raw, Options{FTDC: true})
	if err != nil {
		return nil, err
	}
	if carrier == nil {
		return nil, newErr(InvalidSize, "chunk envelope carries no binary payload")
	}
	if !expectedCarrierSubtypes[carrier.Subtype] {
		return nil, nil
	}

	if len(carrier.Payload) < 4 {
		return nil, newErr(InvalidSize, "binary payload too short for the uncompressed-size prefix")
	}
	// The first 4 bytes of the binary payload hold the uncompressed size
	// of the stream that follows; the core has no use for it since
	// inflate grows its own buffer, so it is skipped rather than checked.
	inflated, err := inflate(carrier.Payload[4:])
	if err != nil {
		return nil, err
	}
	if len(inflated) < 4 {
		return nil, newErr(InvalidSize, "inflated chunk too short for a reference document")
	}

	refDoc, _, err := Parse(inflated, Options{})
	if err != nil {
		return nil, err
	}
	refSize := int(uint32(inflated[0]) | uint32(inflated[1])<<8 | uint32(inflated[2])<<16 | uint32(inflated[3])<<24)
	if refSize < 0 || refSize > len(inflated) {
		return nil, newErr(InvalidSize, "reference document size %d out of range", refSize)
	}

	ref, err := Flatten(refDoc)
	if err != nil {
		return nil, err
	}

	samples, err := DecodeMetrics(inflated[refSize:], ref)
	if err != nil {
		return nil, err
	}
	return &Chunk{Ref: ref, Samples: samples}, nil
}

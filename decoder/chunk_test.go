// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// chunk_test.go

package decoder

import (
	"bytes"
	"compress/zlib"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// buildChunk assembles a synthetic FTDC chunk envelope the way mongod's
// FTDC writer would: an outer {type, data} document whose "data" binary
// payload is a 4-byte uncompressed-size prefix followed by a zlib stream
// wrapping (reference document || N_metrics || N_samples || deltas).
// go.mongodb.org/mongo-driver/bson plays the role of the companion
// encoder in spec section 8's round-trip property, standing in for a
// real mongod here since this core never writes BSON itself.
func buildChunk(t *testing.T, refDoc bson.D, nMetrics, nSamples uint32, deltas []byte) []byte {
	return buildChunkWithSubtype(t, refDoc, nMetrics, nSamples, deltas, 0x00)
}

// buildChunkWithSubtype is buildChunk with control over the carrier's
// Binary subtype, for exercising DecodeChunk's skip path on unexpected
// subtypes.
func buildChunkWithSubtype(t *testing.T, refDoc bson.D, nMetrics, nSamples uint32, deltas []byte, subtype byte) []byte {
	t.Helper()

	refBytes, err := bson.Marshal(refDoc)
	if err != nil {
		t.Fatal(err)
	}

	inflated := append([]byte{}, refBytes...)
	inflated = append(inflated, le32(nMetrics)...)
	inflated = append(inflated, le32(nSamples)...)
	inflated = append(inflated, deltas...)

	var compressed bytes.Buffer
	w := zlib.NewWriter(&compressed)
	if _, err := w.Write(inflated); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	binaryPayload := append(le32(uint32(len(inflated))), compressed.Bytes()...)

	outer := bson.D{
		{Key: "type", Value: int32(1)},
		{Key: "data", Value: primitive.Binary{Subtype: subtype, Data: binaryPayload}},
	}
	outerBytes, err := bson.Marshal(outer)
	if err != nil {
		t.Fatal(err)
	}
	return outerBytes
}

func TestDecodeChunkEndToEnd(t *testing.T) {
	refDoc := bson.D{{Key: "m", Value: int32(100)}}
	deltas := []byte{0x05, 0x03, 0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	raw := buildChunk(t, refDoc, 1, 3, deltas)

	chunk, err := DecodeChunk(raw, inflateZlib)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunk.Ref) != 1 || chunk.Ref[0].Path != "m" || chunk.Ref[0].Base != 100 {
		t.Fatalf("got ref %+v", chunk.Ref)
	}
	want := []int64{105, 108, 106}
	if len(chunk.Samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(chunk.Samples))
	}
	for i, s := range chunk.Samples {
		if s.Value(0) != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, s.Value(0), want[i])
		}
	}
}

func TestDecodeChunkPropagatesInflateError(t *testing.T) {
	raw := buildChunk(t, bson.D{{Key: "m", Value: int32(1)}}, 1, 1, []byte{0x00})
	_, err := DecodeChunk(raw, func([]byte) ([]byte, error) {
		return nil, NewError(InflateError, "boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodeChunkSkipsUnexpectedCarrierSubtype(t *testing.T) {
	raw := buildChunkWithSubtype(t, bson.D{{Key: "m", Value: int32(1)}}, 1, 1, []byte{0x00}, 0x80)

	chunk, err := DecodeChunk(raw, inflateZlib)
	if err != nil {
		t.Fatalf("expected no error for an unexpected subtype, got %v", err)
	}
	if chunk != nil {
		t.Fatalf("expected a skipped chunk (nil), got %+v", chunk)
	}
}

func inflateZlib(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

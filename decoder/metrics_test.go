// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// metrics_test.go

package decoder

import (
	"errors"
	"testing"
)

func TestExpandDeltasRunExpansion(t *testing.T) {
	// S4: "00 05 01 00 06" expands to six zeros, a one, then seven zeros.
	buf := []byte{0x00, 0x05, 0x01, 0x00, 0x06}
	cur := NewCursor(buf)
	got, err := ExpandDeltas(cur, 14)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestExpandDeltasZeroRunEquivalence(t *testing.T) {
	// Five zeros as five explicit 0 varints, each followed by a run-count
	// of 0 additional zeros...
	explicit := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	// ...or as one zero plus a run-count of 4.
	runLength := []byte{0x00, 0x04}

	a, err := ExpandDeltas(NewCursor(explicit), 5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ExpandDeltas(NewCursor(runLength), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("len mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestDecodeMetricsSingleMetricThreeSamples(t *testing.T) {
	// S5: base 100, deltas [5, 3, -2] -> restored [105, 108, 106].
	var tail []byte
	tail = append(tail, le32(1)...) // N_metrics
	tail = append(tail, le32(3)...) // N_samples
	tail = append(tail, 0x05, 0x03, 0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01)

	ref := []RefEntry{{Path: "m", Base: 100}}
	samples, err := DecodeMetrics(tail, ref)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{105, 108, 106}
	if len(samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3", len(samples))
	}
	for i, s := range samples {
		if s.Value(0) != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, s.Value(0), want[i])
		}
		if s.Path(0) != "m" {
			t.Fatalf("sample %d path = %q, want m", i, s.Path(0))
		}
	}
}

func TestDecodeMetricsAllZeroDeltasReproducesReference(t *testing.T) {
	var tail []byte
	tail = append(tail, le32(2)...) // N_metrics
	tail = append(tail, le32(4)...) // N_samples
	// 8 logical zero deltas encoded as one run: 0, 7
	tail = append(tail, 0x00, 0x07)

	ref := []RefEntry{{Path: "a", Base: 10}, {Path: "b", Base: -3}}
	samples, err := DecodeMetrics(tail, ref)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range samples {
		if s.Value(0) != 10 || s.Value(1) != -3 {
			t.Fatalf("got %+v, want base values unchanged", s)
		}
	}
}

func TestDecodeMetricsMismatchedCount(t *testing.T) {
	var tail []byte
	tail = append(tail, le32(2)...)
	tail = append(tail, le32(1)...)
	tail = append(tail, 0x00, 0x01)

	_, err := DecodeMetrics(tail, []RefEntry{{Path: "only-one", Base: 0}})
	var de *Error
	if !errors.As(err, &de) || de.Kind != MetricsCountMismatch {
		t.Fatalf("expected MetricsCountMismatch, got %v", err)
	}
}

func TestDecodeMetricsChunkTooLargeRejectedBeforeAllocation(t *testing.T) {
	var tail []byte
	tail = append(tail, le32(2000)...)
	tail = append(tail, le32(2000)...) // product = 4,000,000 > 1,000,000
	// No delta bytes follow: if the guard ran after allocation this would
	// fail with OutOfRange on the short read instead of returning
	// ChunkTooLarge.
	ref := make([]RefEntry, 2000)
	for i := range ref {
		ref[i] = RefEntry{Path: "m", Base: 0}
	}
	_, err := DecodeMetrics(tail, ref)
	var de *Error
	if !errors.As(err, &de) || de.Kind != ChunkTooLarge {
		t.Fatalf("expected ChunkTooLarge, got %v", err)
	}
}

func TestDecodeMetricsZeroSamplesIsEmpty(t *testing.T) {
	var tail []byte
	tail = append(tail, le32(1)...)
	tail = append(tail, le32(0)...)
	samples, err := DecodeMetrics(tail, []RefEntry{{Path: "m", Base: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 0 {
		t.Fatalf("got %d samples, want 0", len(samples))
	}
}

func TestDecodeMetricsPrefixSumRoundTrips(t *testing.T) {
	// Re-differencing the restored samples must reproduce the original
	// delta sequence: prefix-sum and first-difference are inverses.
	deltas := []int64{5, 3, -2, 0, 7, -1}
	ref := []RefEntry{{Path: "m", Base: 100}}

	var tail []byte
	tail = append(tail, le32(1)...)
	tail = append(tail, le32(uint32(len(deltas)))...)
	for _, d := range deltas {
		tail = appendVarint(tail, d)
		if d == 0 {
			tail = appendVarint(tail, 0) // run-count: no additional zeros
		}
	}

	samples, err := DecodeMetrics(tail, ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != len(deltas) {
		t.Fatalf("len(samples) = %d, want %d", len(samples), len(deltas))
	}

	prev := ref[0].Base
	for i, s := range samples {
		gotDelta := s.Value(0) - prev
		if gotDelta != deltas[i] {
			t.Fatalf("sample %d: re-differenced delta %d, want %d", i, gotDelta, deltas[i])
		}
		prev = s.Value(0)
	}
}

func appendVarint(buf []byte, v int64) []byte {
	u := uint64(v)
	for {
		b := byte(u & 0x7F)
		u >>= 7
		if u != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

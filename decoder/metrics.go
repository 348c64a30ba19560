// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// metrics.go

package decoder

// maxMetricsProduct bounds N_metrics * N_samples to guard against
// malformed or adversarial chunks before any allocation proportional to
// the product is made (spec section 4.5, step 2).
const maxMetricsProduct = 1_000_000

// Sample is one reconstructed row of the delta matrix: the per-metric
// restored cumulative value at a single sample index. Samples share the
// Ref slice of their parent chunk's flattened reference rather than
// copying path strings (spec section 5).
type Sample struct {
	Ref    []RefEntry
	Values []int64
}

// Len returns the number of metric columns in the sample.
func (s Sample) Len() int { return len(s.Values) }

// Path returns the dotted path of column i.
func (s Sample) Path(i int) string { return s.Ref[i].Path }

// Value returns the restored value of column i.
func (s Sample) Value(i int) int64 { return s.Values[i] }

// Map renders the sample as a lookup-by-name map. Prefer Path/Value on
// hot paths; Map is a convenience for callers that just want to look
// values up by name.
func (s Sample) Map() map[string]int64 {
	m := make(map[string]int64, len(s.Values))
	for i, v := range s.Values {
		m[s.Ref[i].Path] = v
	}
	return m
}

// DecodeMetrics inflates the zero-run-compressed, transposed delta matrix
// that follows a reference document in an FTDC chunk and reconstructs one
// Sample per logical row (spec section 4.5).
//
// tail is the inflated chunk bytes starting at the first byte after the
// reference document (the N_metrics/N_samples header and the varint delta
// stream). ref is the flattened reference produced by Flatten, establishing
// both the per-column schema and the sample-0 baseline.
func DecodeMetrics(tail []byte, ref []RefEntry) ([]Sample, error) {
	cur := NewCursor(tail)
	nMetrics32, err := cur.ReadUint32LE()
	if err != nil {
		return nil, err
	}
	nSamples32, err := cur.ReadUint32LE()
	if err != nil {
		return nil, err
	}
	nMetrics := int(nMetrics32)
	nSamples := int(nSamples32)

	if len(ref) != nMetrics {
		return nil, newErr(MetricsCountMismatch,
			"flattened reference has %d numeric leaves, chunk declares %d metrics", len(ref), nMetrics)
	}
	if nSamples == 0 {
		return []Sample{}, nil
	}

	product := int64(nMetrics) * int64(nSamples)
	if product > maxMetricsProduct {
		return nil, newErr(ChunkTooLarge, "metrics(%d) * samples(%d) = %d exceeds %d",
			nMetrics, nSamples, product, maxMetricsProduct)
	}

	deltas, err := ExpandDeltas(cur, product)
	if err != nil {
		return nil, err
	}

	// Prefix-sum each metric column in place; deltas is metric-major:
	// column m occupies deltas[m*nSamples : (m+1)*nSamples].
	for m := 0; m < nMetrics; m++ {
		i0 := m * nSamples
		deltas[i0] += ref[m].Base
		for s := 1; s < nSamples; s++ {
			deltas[i0+s] += deltas[i0+s-1]
		}
	}

	samples := make([]Sample, nSamples)
	for s := 0; s < nSamples; s++ {
		values := make([]int64, nMetrics)
		for m := 0; m < nMetrics; m++ {
			values[m] = deltas[m*nSamples+s]
		}
		samples[s] = Sample{Ref: ref, Values: values}
	}
	return samples, nil
}

// ExpandDeltas reads exactly n logical int64 delta values from cur,
// expanding zero-run compression as it goes: a 0 varint is followed by a
// count varint k meaning k additional zeros follow (a run of k+1 zeros
// total). Varints are consumed as raw u64 bit patterns and reinterpreted
// as two's-complement int64, since the FTDC stream is not zig-zag encoded.
func ExpandDeltas(cur *Cursor, n int64) ([]int64, error) {
	deltas := make([]int64, n)
	var idx int64
	for idx < n {
		v, err := cur.ReadVarint()
		if err != nil {
			return nil, err
		}
		if v != 0 {
			deltas[idx] = int64(v)
			idx++
			continue
		}

		k, err := cur.ReadVarint()
		if err != nil {
			return nil, err
		}
		run := int64(k) + 1
		if idx+run > n {
			run = n - idx
		}
		for i := int64(0); i < run; i++ {
			deltas[idx] = 0
			idx++
		}
	}
	return deltas, nil
}

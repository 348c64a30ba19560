// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// fingerprint.go

package ftdcio

import "github.com/cespare/xxhash/v2"

// Fingerprint returns a 64-bit content hash of raw. It is a diagnostic aid
// only (two inputs with the same fingerprint are very likely
// byte-identical); it plays no role in decoding. cmd/ftdcdump hashes the
// text rendering of a chunk's flattened reference, not its raw bytes.
func Fingerprint(raw []byte) uint64 {
	return xxhash.Sum64(raw)
}

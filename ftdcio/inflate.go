// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// inflate.go

// Package ftdcio provides the I/O-adjacent collaborators the decoder
// package stays free of: zlib decompression and a chunk fingerprint
// diagnostic, both driven by third-party libraries rather than stdlib
// reimplementations.
package ftdcio

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/simagix/mongo-ftdc-core/decoder"
)

// Inflate decompresses a zlib-compressed chunk payload. It satisfies
// decoder.Inflate and is the concrete collaborator DecodeChunk uses in
// production; tests may substitute a stub.
func Inflate(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, wrapInflate(err, "opening zlib stream")
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapInflate(err, "reading zlib stream")
	}
	return out, nil
}

func wrapInflate(err error, context string) error {
	return errors.WithMessage(decoder.NewError(decoder.InflateError, "%s: %s", context, err), context)
}

// Package compress handles optional payload compression before striping.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Algorithm names a compression codec. The chosen algorithm is recorded in
// the array manifest so reads always decompress with the right one.
type Algorithm string

const (
	None Algorithm = "none"
	Zstd Algorithm = "zstd"
	Xz   Algorithm = "xz"
)

// Parse maps a config string to an Algorithm; the empty string means None.
func Parse(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", None:
		return None, nil
	case Zstd:
		return Zstd, nil
	case Xz:
		return Xz, nil
	}
	return None, fmt.Errorf("compress: unknown algorithm %q", s)
}

// Compress returns data compressed with alg.
func Compress(alg Algorithm, data []byte) ([]byte, error) {
	switch alg {
	case None:
		return data, nil
	case Zstd:
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("compress zstd: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			return nil, fmt.Errorf("compress zstd: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("compress zstd: %w", err)
		}
		return buf.Bytes(), nil
	case Xz:
		var buf bytes.Buffer
		enc, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("compress xz: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			return nil, fmt.Errorf("compress xz: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("compress xz: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("compress: unknown algorithm %q", alg)
}

// Decompress reverses Compress.
func Decompress(alg Algorithm, data []byte) ([]byte, error) {
	switch alg {
	case None:
		return data, nil
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decompress zstd: %w", err)
		}
		defer dec.Close()
		out, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("decompress zstd: %w", err)
		}
		return out, nil
	case Xz:
		dec, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decompress xz: %w", err)
		}
		out, err := io.ReadAll(dec)
		if err != nil {
			return nil, fmt.Errorf("decompress xz: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("compress: unknown algorithm %q", alg)
}

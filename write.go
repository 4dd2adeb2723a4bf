package raid6

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/keyplay/RAID6-implementation/internal/chunker"
	"github.com/keyplay/RAID6-implementation/internal/compress"
)

// WriteFile stores the file at path into the array: the payload is
// optionally compressed, split into stripes of N chunks, each stripe
// encoded into two parity chunks, and all N+2 chunks written to their
// disks together with checksums. The final stripe is zero-padded; the
// manifest records the payload size so reads strip the pad again.
func (a *Array) WriteFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}

	payload, err := compress.Compress(a.packer, raw)
	if err != nil {
		return err
	}

	stripes, err := a.splitStripes(payload)
	if err != nil {
		return err
	}

	room := a.pool.CreateRoom()
	for idx, stripe := range stripes {
		idx, stripe := idx, stripe
		room.NewTask(func() error {
			return a.writeStripe(idx, stripe)
		})
	}
	if err := room.Wait(); err != nil {
		return err
	}

	m := Manifest{
		FileName:    filepath.Base(path),
		FileSize:    int64(len(raw)),
		PayloadSize: int64(len(payload)),
		StripeCount: len(stripes),
		ChunkSize:   a.config.ChunkSize,
		DataDisks:   a.config.DataDisks,
		FieldDegree: a.config.FieldDegree,
		Compression: string(a.packer),
	}
	if err := a.writeManifest(m); err != nil {
		return err
	}

	a.log.Info("file written",
		"file", m.FileName,
		"bytes", m.FileSize,
		"stripes", m.StripeCount,
		"compression", m.Compression)
	return nil
}

// splitStripes cuts the payload into stripe-sized pieces and zero-pads the
// last one. An empty payload still occupies one all-zero stripe so the
// array always has a well-defined extent.
func (a *Array) splitStripes(payload []byte) ([][]byte, error) {
	size := a.stripeSize()
	var stripes [][]byte

	ck := chunker.NewSize(bytes.NewReader(payload), int64(size))
	for {
		piece, err := ck.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("split payload: %w", err)
		}
		if len(piece) < size {
			piece = append(piece, make([]byte, size-len(piece))...)
		}
		stripes = append(stripes, piece)
	}

	if len(stripes) == 0 {
		stripes = append(stripes, make([]byte, size))
	}
	return stripes, nil
}

// writeStripe encodes one stripe and persists its N+2 chunks.
func (a *Array) writeStripe(stripe int, payload []byte) error {
	data := make([][]byte, a.config.DataDisks)
	for i := range data {
		data[i] = payload[i*a.config.ChunkSize : (i+1)*a.config.ChunkSize]
	}

	parity, err := a.codec.Encode(data)
	if err != nil {
		return err
	}

	for d, chunk := range append(data, parity...) {
		if err := a.writeStripeChunk(d, stripe, chunk); err != nil {
			return err
		}
	}
	return nil
}

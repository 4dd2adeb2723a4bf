package raid6

import (
	"context"
	"fmt"

	"github.com/keyplay/RAID6-implementation/internal/compress"
	"github.com/keyplay/RAID6-implementation/internal/erasure"
)

// UpdateChunk replaces one data chunk of one stripe and recomputes both
// parity chunks from the full data set. Parity is always fully recomputed
// rather than delta-patched; the stripe's current content is read (and if
// necessary reconstructed) in full before anything is written.
func (a *Array) UpdateChunk(ctx context.Context, stripe, dataDisk int, chunk []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dataDisk < 0 || dataDisk >= a.config.DataDisks {
		return fmt.Errorf("%w: data disk index %d out of range [0,%d)",
			erasure.ErrInvalidConfiguration, dataDisk, a.config.DataDisks)
	}
	if len(chunk) != a.config.ChunkSize {
		return fmt.Errorf("%w: got %d bytes, chunk size is %d",
			erasure.ErrChunkSizeMismatch, len(chunk), a.config.ChunkSize)
	}

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	if stripe < 0 || stripe >= m.StripeCount {
		return fmt.Errorf("%w: stripe %d out of range [0,%d)",
			erasure.ErrInvalidConfiguration, stripe, m.StripeCount)
	}

	shards, err := a.currentStripe(stripe)
	if err != nil {
		return err
	}

	data := shards[:a.config.DataDisks]
	data[dataDisk] = chunk
	parity, err := a.codec.Encode(data)
	if err != nil {
		return err
	}

	if err := a.writeStripeChunk(dataDisk, stripe, chunk); err != nil {
		return err
	}
	for r, p := range parity {
		if err := a.writeStripeChunk(a.config.DataDisks+r, stripe, p); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRange overwrites a byte range of the stored file in place. The
// range is mapped onto the affected stripes; each one is updated with a
// full parity recompute. Only uncompressed arrays support range updates,
// since compression decouples file offsets from stripe offsets.
func (a *Array) UpdateRange(ctx context.Context, offset int64, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("%w: negative offset %d", erasure.ErrInvalidConfiguration, offset)
	}
	if len(data) == 0 {
		return nil
	}

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	if compress.Algorithm(m.Compression) != compress.None {
		return fmt.Errorf("%w: range updates need an uncompressed array, stored with %q",
			erasure.ErrInvalidConfiguration, m.Compression)
	}
	if offset+int64(len(data)) > m.PayloadSize {
		return fmt.Errorf("%w: range [%d,%d) exceeds stored size %d",
			erasure.ErrInvalidConfiguration, offset, offset+int64(len(data)), m.PayloadSize)
	}

	size := int64(a.stripeSize())
	for stripe := int(offset / size); int64(stripe)*size < offset+int64(len(data)); stripe++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		stripeBase := int64(stripe) * size
		from := max(offset, stripeBase)
		to := min(offset+int64(len(data)), stripeBase+size)

		shards, err := a.currentStripe(stripe)
		if err != nil {
			return err
		}

		// Patch the overlap into a contiguous view of the data payload,
		// then re-encode the whole stripe.
		buf := make([]byte, 0, size)
		for _, chunk := range shards[:a.config.DataDisks] {
			buf = append(buf, chunk...)
		}
		copy(buf[from-stripeBase:], data[from-offset:to-offset])

		newData := make([][]byte, a.config.DataDisks)
		for i := range newData {
			newData[i] = buf[i*a.config.ChunkSize : (i+1)*a.config.ChunkSize]
		}
		parity, err := a.codec.Encode(newData)
		if err != nil {
			return err
		}

		firstChunk := int(from-stripeBase) / a.config.ChunkSize
		lastChunk := int(to-stripeBase-1) / a.config.ChunkSize
		for d := firstChunk; d <= lastChunk; d++ {
			if err := a.writeStripeChunk(d, stripe, newData[d]); err != nil {
				return err
			}
		}
		for r, p := range parity {
			if err := a.writeStripeChunk(a.config.DataDisks+r, stripe, p); err != nil {
				return err
			}
		}
	}

	a.log.Info("range updated", "offset", offset, "bytes", len(data))
	return nil
}

// currentStripe returns a stripe's full current content, reconstructing
// up to two bad chunks first.
func (a *Array) currentStripe(stripe int) ([][]byte, error) {
	shards, _ := a.gatherStripe(a.presence(), stripe)
	if err := a.codec.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("stripe %d: %w", stripe, err)
	}
	return shards, nil
}

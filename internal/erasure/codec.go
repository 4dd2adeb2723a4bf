package erasure

import (
	"fmt"

	"github.com/keyplay/RAID6-implementation/pkg/gf"
)

// Codec encodes and reconstructs single stripes. It holds only the
// immutable field and coding matrix, so one Codec may serve arbitrarily
// many stripes concurrently.
type Codec struct {
	field      *gf.Field
	matrix     gf.Matrix
	dataShards int
	chunkSize  int
}

// NewCodec builds and validates the coding matrix for dataShards data
// chunks of chunkSize bytes each. The codec maps one byte to one field
// element, so the field degree must be 8.
func NewCodec(f *gf.Field, dataShards, chunkSize int) (*Codec, error) {
	if f.Degree() != 8 {
		return nil, fmt.Errorf("%w: stripe codec needs GF(2^8), got GF(2^%d)",
			ErrInvalidConfiguration, f.Degree())
	}
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrInvalidConfiguration, chunkSize)
	}
	m, err := BuildCodingMatrix(f, dataShards)
	if err != nil {
		return nil, err
	}
	return &Codec{
		field:      f,
		matrix:     m,
		dataShards: dataShards,
		chunkSize:  chunkSize,
	}, nil
}

// DataShards returns the number of data chunks per stripe.
func (c *Codec) DataShards() int { return c.dataShards }

// TotalShards returns data plus parity chunks per stripe.
func (c *Codec) TotalShards() int { return c.dataShards + ParityShards }

// ChunkSize returns the configured chunk size in bytes.
func (c *Codec) ChunkSize() int { return c.chunkSize }

// Encode computes the two parity chunks for a full set of data chunks.
// Each parity byte is the field dot-product of the corresponding parity
// row with the data bytes at the same offset.
func (c *Codec) Encode(data [][]byte) ([][]byte, error) {
	if len(data) != c.dataShards {
		return nil, fmt.Errorf("%w: got %d data chunks, want %d",
			ErrChunkSizeMismatch, len(data), c.dataShards)
	}
	for i, d := range data {
		if len(d) != c.chunkSize {
			return nil, fmt.Errorf("%w: data chunk %d has %d bytes, want %d",
				ErrChunkSizeMismatch, i, len(d), c.chunkSize)
		}
	}

	parity := make([][]byte, ParityShards)
	for r := 0; r < ParityShards; r++ {
		row := c.matrix[c.dataShards+r]
		p := make([]byte, c.chunkSize)
		for i, d := range data {
			coeff := row[i]
			for off, b := range d {
				p[off] ^= byte(c.field.Mul(coeff, uint16(b)))
			}
		}
		parity[r] = p
	}
	return parity, nil
}

// Reconstruct rebuilds a stripe in place. shards must have one entry per
// disk (data rows first, then the two parity rows); a nil entry marks a
// missing or corrupted chunk. On success every entry is populated.
//
// With more than two nil entries the stripe is beyond the RAID6 tolerance
// and ErrUnrecoverableStripe is returned. Zero or one missing chunks are
// degenerate cases of the same path.
func (c *Codec) Reconstruct(shards [][]byte) error {
	total := c.TotalShards()
	if len(shards) != total {
		return fmt.Errorf("%w: got %d shards, want %d",
			ErrChunkSizeMismatch, len(shards), total)
	}

	var present, missing []int
	for i, s := range shards {
		if s == nil {
			missing = append(missing, i)
			continue
		}
		if len(s) != c.chunkSize {
			return fmt.Errorf("%w: shard %d has %d bytes, want %d",
				ErrChunkSizeMismatch, i, len(s), c.chunkSize)
		}
		present = append(present, i)
	}

	if len(missing) == 0 {
		return nil
	}
	if len(missing) > ParityShards {
		return fmt.Errorf("%w: %d shards missing, can recover at most %d",
			ErrUnrecoverableStripe, len(missing), ParityShards)
	}

	// Any dataShards surviving rows determine the stripe. Take the lowest
	// ones so decode is deterministic.
	rows := present[:c.dataShards]
	inv, err := c.matrix.SelectRows(rows).Invert(c.field)
	if err != nil {
		// Cannot happen for a matrix that passed validation; a singular
		// submatrix here means the matrix was corrupted in memory.
		return fmt.Errorf("%w: %v", ErrUnrecoverableStripe, err)
	}

	// Recover the missing data chunks byte column by byte column:
	// d = S^-1 * e, where e holds the surviving chunks' bytes.
	var missingData []int
	for _, i := range missing {
		if i < c.dataShards {
			missingData = append(missingData, i)
			shards[i] = make([]byte, c.chunkSize)
		}
	}
	if len(missingData) > 0 {
		e := make([]uint16, c.dataShards)
		for off := 0; off < c.chunkSize; off++ {
			for t, r := range rows {
				e[t] = uint16(shards[r][off])
			}
			for _, i := range missingData {
				var acc uint16
				for t := 0; t < c.dataShards; t++ {
					acc = c.field.Add(acc, c.field.Mul(inv[i][t], e[t]))
				}
				shards[i][off] = byte(acc)
			}
		}
	}

	// With the data complete, missing parity is recomputed directly.
	for _, i := range missing {
		if i < c.dataShards {
			continue
		}
		parity, err := c.Encode(shards[:c.dataShards])
		if err != nil {
			return err
		}
		for _, j := range missing {
			if j >= c.dataShards {
				shards[j] = parity[j-c.dataShards]
			}
		}
		break
	}
	return nil
}

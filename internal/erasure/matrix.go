// Package erasure implements the RAID6 stripe codec: a fixed (k+2) x k
// coding matrix over GF(2^8) and the encode / reconstruct algorithms built
// on it. Up to two missing or corrupted chunks per stripe are recoverable.
package erasure

import (
	"errors"
	"fmt"

	"github.com/keyplay/RAID6-implementation/pkg/gf"
)

// ParityShards is fixed at 2, the RAID6 design point.
const ParityShards = 2

var (
	// ErrInvalidConfiguration is returned for shard counts the field cannot
	// support or for a generator formula that yields a singular submatrix.
	ErrInvalidConfiguration = errors.New("erasure: invalid configuration")
	// ErrChunkSizeMismatch is returned when input chunks are missing or not
	// of the configured size.
	ErrChunkSizeMismatch = errors.New("erasure: chunk size mismatch")
	// ErrUnrecoverableStripe is returned when more than two chunks of a
	// stripe are missing.
	ErrUnrecoverableStripe = errors.New("erasure: unrecoverable stripe")
)

// BuildCodingMatrix returns the (dataShards+2) x dataShards coding matrix:
// the identity on top (data passes through unmodified) and two
// Vandermonde-style parity rows, row k+r having coefficients (j+1)^r.
// Construction is deterministic, so rebuilding the matrix from the same
// configuration always yields the identical matrix.
//
// Every way of deleting two rows must leave an invertible square matrix,
// otherwise some two-disk failure would be unrecoverable. BuildCodingMatrix
// verifies this exhaustively; the sweep is C(dataShards+2, 2) inversions
// and is meant to run once per array lifetime, not per stripe.
func BuildCodingMatrix(f *gf.Field, dataShards int) (gf.Matrix, error) {
	if dataShards < 1 {
		return nil, fmt.Errorf("%w: need at least 1 data shard, got %d",
			ErrInvalidConfiguration, dataShards)
	}
	total := dataShards + ParityShards
	if total > f.Size()-1 {
		return nil, fmt.Errorf("%w: %d shards exceed GF(2^%d) capacity of %d",
			ErrInvalidConfiguration, total, f.Degree(), f.Size()-1)
	}

	m := gf.Identity(dataShards)
	for r := 0; r < ParityShards; r++ {
		row := make([]uint16, dataShards)
		for j := 0; j < dataShards; j++ {
			row[j] = f.Exp(uint16(j+1), r)
		}
		m = append(m, row)
	}

	if err := validateCodingMatrix(f, m, dataShards); err != nil {
		return nil, err
	}
	return m, nil
}

// validateCodingMatrix checks that deleting any two rows leaves an
// invertible dataShards x dataShards matrix.
func validateCodingMatrix(f *gf.Field, m gf.Matrix, dataShards int) error {
	total := dataShards + ParityShards
	rows := make([]int, 0, dataShards)
	for a := 0; a < total; a++ {
		for b := a + 1; b < total; b++ {
			rows = rows[:0]
			for r := 0; r < total; r++ {
				if r != a && r != b {
					rows = append(rows, r)
				}
			}
			if _, err := m.SelectRows(rows).Invert(f); err != nil {
				return fmt.Errorf("%w: submatrix without rows %d,%d is singular: %v",
					ErrInvalidConfiguration, a, b, err)
			}
		}
	}
	return nil
}

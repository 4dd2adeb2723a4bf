package raid6

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/keyplay/RAID6-implementation/internal/compress"
	"github.com/keyplay/RAID6-implementation/internal/erasure"
)

// ReadFile returns the stored file's original bytes. Disk status is
// re-derived for this call: absent disks and chunks failing their checksum
// are treated as erasures and reconstructed through the codec. When any
// stripe has more than two erasures the whole read fails with an
// *UnrecoverableError naming every such stripe.
func (a *Array) ReadFile(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := a.loadManifest()
	if err != nil {
		return nil, err
	}

	exists := a.presence()
	payload := make([]byte, m.StripeCount*a.stripeSize())

	var mu sync.Mutex
	var bad []int

	room := a.pool.CreateRoom()
	for stripe := 0; stripe < m.StripeCount; stripe++ {
		stripe := stripe
		room.NewTask(func() error {
			data, err := a.readStripe(exists, stripe)
			if err != nil {
				if errors.Is(err, erasure.ErrUnrecoverableStripe) {
					mu.Lock()
					bad = append(bad, stripe)
					mu.Unlock()
					return nil
				}
				return err
			}
			copy(payload[stripe*a.stripeSize():], data)
			return nil
		})
	}
	if err := room.Wait(); err != nil {
		return nil, err
	}
	if len(bad) > 0 {
		return nil, &UnrecoverableError{Stripes: sortedStripes(bad)}
	}

	raw, err := compress.Decompress(compress.Algorithm(m.Compression), payload[:m.PayloadSize])
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) != m.FileSize {
		return nil, fmt.Errorf("raid6: decoded %d bytes, manifest says %d", len(raw), m.FileSize)
	}
	return raw, nil
}

// ReadFileTo writes the stored file to path.
func (a *Array) ReadFileTo(ctx context.Context, path string) error {
	data, err := a.ReadFile(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// readStripe returns one stripe's data payload (N chunks, concatenated),
// reconstructing through the codec when up to two chunks are bad.
func (a *Array) readStripe(exists []bool, stripe int) ([]byte, error) {
	shards, _ := a.gatherStripe(exists, stripe)
	if err := a.codec.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("stripe %d: %w", stripe, err)
	}

	out := make([]byte, 0, a.stripeSize())
	for _, chunk := range shards[:a.config.DataDisks] {
		out = append(out, chunk...)
	}
	return out, nil
}

package raid6

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/keyplay/RAID6-implementation/internal/erasure"
)

// RebuildDisk reconstructs a whole disk in place: for every stripe the
// disk's chunk is recomputed from the survivors and written back. The disk
// may be absent (it is re-formatted first) or present with stale content.
// Stripes that additionally lost more than one other disk are reported via
// *UnrecoverableError; all other stripes are still rebuilt.
func (a *Array) RebuildDisk(ctx context.Context, disk int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.checkDisk(disk); err != nil {
		return err
	}

	m, err := a.loadManifest()
	if err != nil {
		return err
	}

	if !a.store.Exists(disk) {
		if err := a.store.Format(disk); err != nil {
			return err
		}
	}

	exists := a.presence()

	var mu sync.Mutex
	var bad []int

	room := a.pool.CreateRoom()
	for stripe := 0; stripe < m.StripeCount; stripe++ {
		stripe := stripe
		room.NewTask(func() error {
			err := a.rebuildStripe(exists, stripe, disk)
			if errors.Is(err, erasure.ErrUnrecoverableStripe) {
				mu.Lock()
				bad = append(bad, stripe)
				mu.Unlock()
				return nil
			}
			return err
		})
	}
	if err := room.Wait(); err != nil {
		return err
	}
	if len(bad) > 0 {
		return &UnrecoverableError{Stripes: sortedStripes(bad)}
	}

	a.log.Info("disk rebuilt", "disk", disk, "stripes", m.StripeCount)
	return nil
}

// rebuildStripe reconstructs the target disk's chunk of one stripe. All
// surviving chunks are read before anything is written, so a concurrent
// reader never observes a half-repaired stripe.
func (a *Array) rebuildStripe(exists []bool, stripe, disk int) error {
	shards, _ := a.gatherStripe(exists, stripe)
	// The target's current content is untrusted regardless of what the
	// gather saw.
	shards[disk] = nil

	if err := a.codec.Reconstruct(shards); err != nil {
		return fmt.Errorf("stripe %d: %w", stripe, err)
	}
	return a.writeStripeChunk(disk, stripe, shards[disk])
}

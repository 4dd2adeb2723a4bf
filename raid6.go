// Package raid6 implements an erasure-coded storage layer over plain local
// disks: a file is striped across N data disks and protected by two
// independently computed parity disks, tolerating the loss or silent
// corruption of up to two disks per stripe.
package raid6

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/keyplay/RAID6-implementation/internal/compress"
	"github.com/keyplay/RAID6-implementation/internal/diskstore"
	"github.com/keyplay/RAID6-implementation/internal/erasure"
	"github.com/keyplay/RAID6-implementation/internal/workerpool"
	"github.com/keyplay/RAID6-implementation/pkg/gf"
)

// ErrUnrecoverableFile marks an operation that hit at least one stripe with
// more than two failed disks. This is an expected operational outcome of
// exceeding the RAID6 tolerance, not a bug, and is never retried.
var ErrUnrecoverableFile = errors.New("raid6: unrecoverable file")

// UnrecoverableError reports which stripes were beyond recovery. It matches
// ErrUnrecoverableFile under errors.Is.
type UnrecoverableError struct {
	Stripes []int
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("raid6: %d stripe(s) unrecoverable (more than two disks failed): %v",
		len(e.Stripes), e.Stripes)
}

func (e *UnrecoverableError) Is(target error) bool {
	return target == ErrUnrecoverableFile
}

// Array is the controller of one RAID6 array. The coding engine it drives
// is immutable after New, so one Array may run stripe operations
// concurrently; disk status is re-derived from the store on every
// operation rather than cached.
type Array struct {
	log    *slog.Logger
	config Config

	field  *gf.Field
	codec  *erasure.Codec
	store  diskstore.Store
	pool   *workerpool.WorkerPool
	packer compress.Algorithm
}

// New wires the coding engine and the disk backend for the given
// configuration. Building the codec validates the coding matrix (every
// two-row deletion must stay invertible); since the construction is
// deterministic, every run of the same configuration works against the
// identical matrix.
func New(conf Config) (*Array, error) {
	conf.applyDefaults()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if conf.Logger == nil {
		conf.Logger = defaultLogger()
	}

	field, err := gf.NewDefault(conf.FieldDegree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", erasure.ErrInvalidConfiguration, err)
	}
	codec, err := erasure.NewCodec(field, conf.DataDisks, conf.ChunkSize)
	if err != nil {
		return nil, err
	}

	packer, err := compress.Parse(conf.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", erasure.ErrInvalidConfiguration, err)
	}

	storeLog := logrus.New()
	storeLog.SetLevel(logrus.WarnLevel)
	storeConf := diskstore.StoreConfig{
		Paths:         conf.DiskPaths,
		MinimumFreeGB: conf.MinimumFreeGB,
		Logger:        storeLog,
	}
	var store diskstore.Store
	if conf.Store == "badger" {
		store, err = diskstore.NewBadgerStore(storeConf)
	} else {
		store, err = diskstore.NewFileStore(storeConf)
	}
	if err != nil {
		return nil, err
	}

	return &Array{
		log:    conf.Logger,
		config: conf,
		field:  field,
		codec:  codec,
		store:  store,
		pool:   workerpool.NewWorkerPool(workerpool.Config{WorkerCount: conf.Workers}),
		packer: packer,
	}, nil
}

// Init formats every disk and clears any previous manifest.
func (a *Array) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(a.config.Root, 0o700); err != nil {
		return fmt.Errorf("init array root: %w", err)
	}
	for d := 0; d < a.totalDisks(); d++ {
		if err := a.store.Format(d); err != nil {
			return err
		}
	}
	if err := os.Remove(a.manifestPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear manifest: %w", err)
	}
	a.log.Info("array initialized",
		"dataDisks", a.config.DataDisks,
		"parityDisks", erasure.ParityShards,
		"chunkSize", a.config.ChunkSize,
		"fieldDegree", a.config.FieldDegree)
	return nil
}

// Close releases the disk backend and stops the worker pool.
func (a *Array) Close() error {
	a.pool.Close()
	return a.store.Close()
}

// FailDisk removes a disk's backing store, simulating a whole-disk
// failure. RebuildDisk restores it.
func (a *Array) FailDisk(disk int) error {
	if err := a.checkDisk(disk); err != nil {
		return err
	}
	return a.store.Remove(disk)
}

// DiskStatus is one disk's identity and presence at the time of a Status
// call.
type DiskStatus struct {
	Index   int
	Path    string
	Present bool
}

// ArrayStatus is a point-in-time view of the array. Manifest is nil when
// no file is stored.
type ArrayStatus struct {
	Disks    []DiskStatus
	Manifest *Manifest
}

// Status reports disk presence and the stored manifest, if any.
func (a *Array) Status(ctx context.Context) (ArrayStatus, error) {
	if err := ctx.Err(); err != nil {
		return ArrayStatus{}, err
	}
	st := ArrayStatus{}
	for d := 0; d < a.totalDisks(); d++ {
		st.Disks = append(st.Disks, DiskStatus{
			Index:   d,
			Path:    a.config.DiskPaths[d],
			Present: a.store.Exists(d),
		})
	}
	if m, err := a.loadManifest(); err == nil {
		st.Manifest = &m
	}
	return st, nil
}

func (a *Array) totalDisks() int {
	return a.config.DataDisks + erasure.ParityShards
}

func (a *Array) stripeSize() int {
	return a.config.DataDisks * a.config.ChunkSize
}

func (a *Array) checkDisk(disk int) error {
	if disk < 0 || disk >= a.totalDisks() {
		return fmt.Errorf("%w: disk index %d out of range [0,%d)",
			erasure.ErrInvalidConfiguration, disk, a.totalDisks())
	}
	return nil
}

// presence re-derives every disk's existence for one operation.
func (a *Array) presence() []bool {
	exists := make([]bool, a.totalDisks())
	for d := range exists {
		exists[d] = a.store.Exists(d)
	}
	return exists
}

// gatherStripe reads every available chunk of a stripe and verifies it
// against its stored checksum. The returned shard slice has nil entries
// for absent, unreadable or corrupted chunks, ready for the codec;
// suspects lists disks that are present but failed verification -- the
// chunks a repair pass has to rewrite.
func (a *Array) gatherStripe(exists []bool, stripe int) (shards [][]byte, suspects []int) {
	shards = make([][]byte, a.totalDisks())
	for d := range shards {
		if !exists[d] {
			continue
		}
		chunk, err := a.store.ReadChunk(d, stripe)
		if err != nil {
			// A read failure on a present disk is treated as that disk
			// being bad for this stripe, not as a fatal error.
			a.log.Warn("chunk unreadable", "disk", d, "stripe", stripe, "err", err)
			suspects = append(suspects, d)
			continue
		}
		if len(chunk) != a.config.ChunkSize {
			a.log.Warn("chunk truncated", "disk", d, "stripe", stripe, "len", len(chunk))
			suspects = append(suspects, d)
			continue
		}
		sum, err := a.store.ReadChecksum(d, stripe)
		if err != nil || sum != diskstore.Checksum(chunk) {
			a.log.Warn("checksum mismatch", "disk", d, "stripe", stripe)
			suspects = append(suspects, d)
			continue
		}
		shards[d] = chunk
	}
	return shards, suspects
}

// writeStripeChunk persists one chunk and its checksum.
func (a *Array) writeStripeChunk(disk, stripe int, chunk []byte) error {
	if err := a.store.WriteChunk(disk, stripe, chunk); err != nil {
		return err
	}
	return a.store.WriteChecksum(disk, stripe, diskstore.Checksum(chunk))
}

func countMissing(shards [][]byte) int {
	n := 0
	for _, s := range shards {
		if s == nil {
			n++
		}
	}
	return n
}

func sortedStripes(stripes []int) []int {
	sort.Ints(stripes)
	return stripes
}

// Package diskstore provides the disk-access layer of the array: one
// addressable byte store per disk, holding fixed-size chunks and their
// checksums. Two backends exist, plain chunk files and Badger.
package diskstore

import (
	"errors"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

var (
	// ErrRead marks a chunk or checksum that could not be read.
	ErrRead = errors.New("diskstore: read error")
	// ErrWrite marks a chunk or checksum that could not be written.
	ErrWrite = errors.New("diskstore: write error")
)

// Store is the contract the array controller requires of a disk backend.
// Disk indices run over data disks first, then the two parity disks.
// Serialization of concurrent writes to the same (disk, stripe) slot is the
// backend's responsibility.
type Store interface {
	// Exists reports whether the disk's backing store is present.
	Exists(disk int) bool
	// Format creates or truncates the disk's backing store.
	Format(disk int) error
	// Remove deletes the disk's backing store, simulating a disk failure.
	Remove(disk int) error

	// ReadChunk returns the chunk at the given stripe, ErrRead if absent
	// or unreadable.
	ReadChunk(disk, stripe int) ([]byte, error)
	// WriteChunk stores the chunk at the given stripe.
	WriteChunk(disk, stripe int, chunk []byte) error

	// ReadChecksum and WriteChecksum access the checksum stored alongside
	// each chunk.
	ReadChecksum(disk, stripe int) (uint64, error)
	WriteChecksum(disk, stripe int, sum uint64) error

	Close() error
}

// StoreConfig configures a backend. Paths holds one location per disk.
type StoreConfig struct {
	Paths         []string
	MinimumFreeGB uint
	Logger        *logrus.Logger
}

// Checksum is the per-chunk checksum used to tell "present but corrupted"
// from "present and valid" without a cross-disk recompute.
func Checksum(chunk []byte) uint64 {
	return xxhash.Sum64(chunk)
}

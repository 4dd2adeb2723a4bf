package raid6

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/keyplay/RAID6-implementation/internal/config"
	"github.com/keyplay/RAID6-implementation/internal/erasure"
)

// Config configures one array instance.
type Config struct {
	// Root is the array's own directory, holding the manifest and, when
	// DiskPaths is empty, the derived per-disk directories.
	Root string
	// DataDisks is N, the number of data disks. Two parity disks are
	// always added on top.
	DataDisks int
	// ChunkSize is one disk's contribution to one stripe, in bytes.
	ChunkSize int
	// FieldDegree is the w of GF(2^w). The stripe codec requires 8.
	FieldDegree uint
	// DiskPaths holds DataDisks+2 locations, data disks first. Derived
	// from Root when empty.
	DiskPaths []string
	// Store selects the disk backend, "file" (default) or "badger".
	Store string
	// Compression optionally compresses the payload before striping:
	// "none" (default), "zstd" or "xz".
	Compression string
	// Workers bounds per-stripe parallelism. 0 means one worker per CPU.
	Workers int
	// MinimumFreeGB is a free-space threshold checked when formatting
	// disks. 0 disables the check.
	MinimumFreeGB uint
	// Logger is an optional structured logger. If nil, a stderr logger is
	// used.
	Logger *slog.Logger
}

func defaultLogger() *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h)
}

func (c *Config) applyDefaults() {
	ic := c.toInternal()
	ic.ApplyDefaults()
	c.DataDisks = ic.DataDisks
	c.ChunkSize = ic.ChunkSize
	c.FieldDegree = ic.FieldDegree
	c.Store = ic.Store
	c.Compression = ic.Compression
	c.DiskPaths = ic.DiskPaths
}

func (c Config) validate() error {
	if err := c.toInternal().Validate(); err != nil {
		return fmt.Errorf("%w: %v", erasure.ErrInvalidConfiguration, err)
	}
	return nil
}

func (c Config) toInternal() config.Config {
	return config.Config{
		Root:          c.Root,
		DataDisks:     c.DataDisks,
		ParityDisks:   erasure.ParityShards,
		FieldDegree:   c.FieldDegree,
		ChunkSize:     c.ChunkSize,
		DiskPaths:     c.DiskPaths,
		Store:         c.Store,
		Compression:   c.Compression,
		Workers:       c.Workers,
		MinimumFreeGB: c.MinimumFreeGB,
	}
}

// LoadConfig reads a YAML config file into a Config.
func LoadConfig(path string) (Config, error) {
	ic, err := config.Load(path)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Root:          ic.Root,
		DataDisks:     ic.DataDisks,
		ChunkSize:     ic.ChunkSize,
		FieldDegree:   ic.FieldDegree,
		DiskPaths:     ic.DiskPaths,
		Store:         ic.Store,
		Compression:   ic.Compression,
		Workers:       ic.Workers,
		MinimumFreeGB: ic.MinimumFreeGB,
	}, nil
}

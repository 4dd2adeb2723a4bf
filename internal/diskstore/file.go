package diskstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileStore keeps each disk as a directory of chunk files, one file per
// stripe plus a small checksum file next to it. Removing the directory is
// a whole-disk failure.
type FileStore struct {
	config StoreConfig
	log    *logrus.Logger
}

// NewFileStore validates the configured paths and returns the store. No
// directories are created until Format.
func NewFileStore(config StoreConfig) (*FileStore, error) {
	if len(config.Paths) == 0 {
		return nil, fmt.Errorf("file store: no disk paths configured")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &FileStore{config: config, log: config.Logger}, nil
}

func (s *FileStore) path(disk int) string {
	return s.config.Paths[disk]
}

func (s *FileStore) chunkPath(disk, stripe int) string {
	return filepath.Join(s.path(disk), fmt.Sprintf("chunk_%06d", stripe))
}

// Exists reports whether the disk directory is present.
func (s *FileStore) Exists(disk int) bool {
	info, err := os.Stat(s.path(disk))
	return err == nil && info.IsDir()
}

// Format creates the disk directory, dropping any previous contents, after
// verifying the filesystem has enough free space.
func (s *FileStore) Format(disk int) error {
	dir := s.path(disk)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("format disk %d: %w: %v", disk, ErrWrite, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("format disk %d: %w: %v", disk, ErrWrite, err)
	}
	if err := checkFreeSpace(dir, s.config.MinimumFreeGB); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"disk": disk, "path": dir}).Debug("disk formatted")
	return nil
}

// Remove deletes the disk directory.
func (s *FileStore) Remove(disk int) error {
	if err := os.RemoveAll(s.path(disk)); err != nil {
		return fmt.Errorf("remove disk %d: %w: %v", disk, ErrWrite, err)
	}
	s.log.WithFields(logrus.Fields{"disk": disk}).Info("disk removed")
	return nil
}

func (s *FileStore) ReadChunk(disk, stripe int) ([]byte, error) {
	b, err := os.ReadFile(s.chunkPath(disk, stripe))
	if err != nil {
		return nil, fmt.Errorf("disk %d stripe %d: %w: %v", disk, stripe, ErrRead, err)
	}
	return b, nil
}

func (s *FileStore) WriteChunk(disk, stripe int, chunk []byte) error {
	if err := os.WriteFile(s.chunkPath(disk, stripe), chunk, 0o600); err != nil {
		return fmt.Errorf("disk %d stripe %d: %w: %v", disk, stripe, ErrWrite, err)
	}
	return nil
}

func (s *FileStore) ReadChecksum(disk, stripe int) (uint64, error) {
	b, err := os.ReadFile(s.chunkPath(disk, stripe) + ".sum")
	if err != nil || len(b) != 8 {
		return 0, fmt.Errorf("disk %d stripe %d: %w: checksum unreadable", disk, stripe, ErrRead)
	}
	return binary.BigEndian.Uint64(b), nil
}

func (s *FileStore) WriteChecksum(disk, stripe int, sum uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], sum)
	if err := os.WriteFile(s.chunkPath(disk, stripe)+".sum", b[:], 0o600); err != nil {
		return fmt.Errorf("disk %d stripe %d: %w: %v", disk, stripe, ErrWrite, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

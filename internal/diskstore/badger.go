package diskstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// BadgerStore keeps each disk as its own Badger database. Separate
// databases keep the disks independent failure domains, the same property
// the file backend gets from separate directories.
type BadgerStore struct {
	config StoreConfig
	log    *logrus.Logger

	mu  sync.Mutex
	dbs map[int]*badger.DB
}

// NewBadgerStore returns the store. Databases are opened lazily per disk.
func NewBadgerStore(config StoreConfig) (*BadgerStore, error) {
	if len(config.Paths) == 0 {
		return nil, fmt.Errorf("badger store: no disk paths configured")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	return &BadgerStore{
		config: config,
		log:    config.Logger,
		dbs:    map[int]*badger.DB{},
	}, nil
}

func chunkKey(stripe int) []byte { return []byte(fmt.Sprintf("c:%06d", stripe)) }
func sumKey(stripe int) []byte   { return []byte(fmt.Sprintf("s:%06d", stripe)) }

func (s *BadgerStore) open(disk int) (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.dbs[disk]; ok {
		return db, nil
	}
	opts := badger.DefaultOptions(s.config.Paths[disk])
	opts.Logger = nil
	opts.SyncWrites = false
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	s.dbs[disk] = db
	return db, nil
}

func (s *BadgerStore) closeDisk(disk int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.dbs[disk]; ok {
		if err := db.Close(); err != nil {
			s.log.WithFields(logrus.Fields{"disk": disk}).Warnf("close badger: %v", err)
		}
		delete(s.dbs, disk)
	}
}

// Exists reports whether the disk's database directory is present.
func (s *BadgerStore) Exists(disk int) bool {
	info, err := os.Stat(s.config.Paths[disk])
	return err == nil && info.IsDir()
}

// Format drops and recreates the disk's database.
func (s *BadgerStore) Format(disk int) error {
	s.closeDisk(disk)
	dir := s.config.Paths[disk]
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("format disk %d: %w: %v", disk, ErrWrite, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("format disk %d: %w: %v", disk, ErrWrite, err)
	}
	if err := checkFreeSpace(dir, s.config.MinimumFreeGB); err != nil {
		return err
	}
	if _, err := s.open(disk); err != nil {
		return fmt.Errorf("format disk %d: %w: %v", disk, ErrWrite, err)
	}
	s.log.WithFields(logrus.Fields{"disk": disk, "path": dir}).Debug("disk formatted")
	return nil
}

// Remove closes and deletes the disk's database.
func (s *BadgerStore) Remove(disk int) error {
	s.closeDisk(disk)
	if err := os.RemoveAll(s.config.Paths[disk]); err != nil {
		return fmt.Errorf("remove disk %d: %w: %v", disk, ErrWrite, err)
	}
	s.log.WithFields(logrus.Fields{"disk": disk}).Info("disk removed")
	return nil
}

func (s *BadgerStore) get(disk int, key []byte) ([]byte, error) {
	if !s.Exists(disk) {
		return nil, fmt.Errorf("disk %d: %w: store absent", disk, ErrRead)
	}
	db, err := s.open(disk)
	if err != nil {
		return nil, fmt.Errorf("disk %d: %w: %v", disk, ErrRead, err)
	}
	var out []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("disk %d key %s: %w: %v", disk, key, ErrRead, err)
	}
	return out, nil
}

func (s *BadgerStore) set(disk int, key, val []byte) error {
	if !s.Exists(disk) {
		return fmt.Errorf("disk %d: %w: store absent", disk, ErrWrite)
	}
	db, err := s.open(disk)
	if err != nil {
		return fmt.Errorf("disk %d: %w: %v", disk, ErrWrite, err)
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return fmt.Errorf("disk %d key %s: %w: %v", disk, key, ErrWrite, err)
	}
	return nil
}

func (s *BadgerStore) ReadChunk(disk, stripe int) ([]byte, error) {
	return s.get(disk, chunkKey(stripe))
}

func (s *BadgerStore) WriteChunk(disk, stripe int, chunk []byte) error {
	return s.set(disk, chunkKey(stripe), chunk)
}

func (s *BadgerStore) ReadChecksum(disk, stripe int) (uint64, error) {
	b, err := s.get(disk, sumKey(stripe))
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("disk %d stripe %d: %w: malformed checksum", disk, stripe, ErrRead)
	}
	return binary.BigEndian.Uint64(b), nil
}

func (s *BadgerStore) WriteChecksum(disk, stripe int, sum uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], sum)
	return s.set(disk, sumKey(stripe), b[:])
}

// Close closes every open database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for disk, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, disk)
	}
	return firstErr
}

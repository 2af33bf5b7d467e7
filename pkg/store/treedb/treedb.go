package treedb

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/oklog/ulid/v2"

	"yappin/pkg/logger"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = pebble.ErrNotFound

// Store is a tree of ":"-separated keys over a single Pebble instance. It
// exposes the four consistency primitives the engines are written against:
// snapshot read, single-path write, atomic multi-path update, and a
// single-path read-modify-write transaction. Push generates time-ordered
// unique child keys.
type Store struct {
	db *pebble.DB

	// per-key mutexes serializing Txn read-modify-write cycles
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	pushMu  sync.Mutex
	entropy io.Reader
}

// Open opens (or creates) the store at dir. WAL stays enabled; every commit
// the engines issue is synced.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{DisableWAL: false})
	if err != nil {
		logger.Error("treedb_open_failed", "path", dir, "error", err)
		return nil, err
	}
	logger.Info("treedb_opened", "path", dir)
	return &Store{
		db:      db,
		locks:   make(map[string]*sync.Mutex),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Flush(); err != nil {
		logger.Error("treedb_flush_failed", "error", err)
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

// Get returns the value at key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("treedb not opened; call Open first")
	}
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			logger.Error("treedb_get_failed", "key", key, "error", err)
		}
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// Exists reports key presence without surfacing the value.
func (s *Store) Exists(key string) (bool, error) {
	_, err := s.Get(key)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) Set(key string, value []byte) error {
	if s.db == nil {
		return fmt.Errorf("treedb not opened; call Open first")
	}
	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		logger.Error("treedb_set_failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if s.db == nil {
		return fmt.Errorf("treedb not opened; call Open first")
	}
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		logger.Error("treedb_delete_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// KV is one child row returned by Children.
type KV struct {
	Key   string
	Value []byte
}

// Children scans all keys under prefix in key order.
func (s *Store) Children(prefix string) ([]KV, error) {
	if s.db == nil {
		return nil, fmt.Errorf("treedb not opened; call Open first")
	}
	p := []byte(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []KV
	for iter.SeekGE(p); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), p) {
			break
		}
		v := make([]byte, len(iter.Value()))
		copy(v, iter.Value())
		out = append(out, KV{Key: string(iter.Key()), Value: v})
	}
	return out, iter.Error()
}

// CountChildren returns the cardinality of a prefix bucket.
func (s *Store) CountChildren(prefix string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("treedb not opened; call Open first")
	}
	p := []byte(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	var n int64
	for iter.SeekGE(p); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), p) {
			break
		}
		n++
	}
	return n, iter.Error()
}

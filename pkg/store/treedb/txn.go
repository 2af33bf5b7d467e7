package treedb

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrTxnAbort cancels a transaction without writing; Txn returns nil.
var ErrTxnAbort = errors.New("treedb: transaction aborted")

// lock returns the mutex for a key, creating it on first use.
func (s *Store) lock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// Txn runs a read-modify-write cycle on a single path, serialized against
// other Txn callers for the same path. fn receives nil when the key is
// absent; returning nil deletes the key, returning ErrTxnAbort leaves the
// store untouched.
func (s *Store) Txn(key string, fn func(cur []byte) ([]byte, error)) error {
	if s.db == nil {
		return fmt.Errorf("treedb not opened; call Open first")
	}
	l := s.lock(key)
	l.Lock()
	defer l.Unlock()

	cur, err := s.Get(key)
	if err != nil && !IsNotFound(err) {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		if errors.Is(err, ErrTxnAbort) {
			return nil
		}
		return err
	}
	if next == nil {
		if cur == nil {
			return nil
		}
		return s.Delete(key)
	}
	return s.Set(key, next)
}

// TxnJSON is Txn for JSON documents: doc is unmarshalled into, mutated by
// fn, and written back. A missing key passes fresh=false so fn can decide
// whether absence is an error.
func (s *Store) TxnJSON(key string, doc any, fn func(exists bool) error) error {
	return s.Txn(key, func(cur []byte) ([]byte, error) {
		exists := cur != nil
		if exists {
			if err := json.Unmarshal(cur, doc); err != nil {
				return nil, err
			}
		}
		if err := fn(exists); err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	})
}

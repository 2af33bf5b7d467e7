package treedb

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"yappin/pkg/logger"
	"yappin/pkg/telemetry"
)

// Op is one entry of a multi-path update set. Delete removes the key;
// otherwise Value is written.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

// SetOp builds a write op.
func SetOp(key string, value []byte) Op { return Op{Key: key, Value: value} }

// DelOp builds a delete op.
func DelOp(key string) Op { return Op{Key: key, Delete: true} }

// Update commits every op in one atomic batch: all listed paths commit
// together or none do. It carries no read-then-decide semantics across
// paths; callers gather whatever reads they need before building the set.
func (s *Store) Update(ops []Op) error {
	if s.db == nil {
		return fmt.Errorf("treedb not opened; call Open first")
	}
	if len(ops) == 0 {
		return nil
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, op := range ops {
		if op.Delete {
			if err := b.Delete([]byte(op.Key), nil); err != nil {
				return err
			}
			continue
		}
		if err := b.Set([]byte(op.Key), op.Value, nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		logger.Error("treedb_update_failed", "ops", len(ops), "error", err)
		return err
	}
	telemetry.ObserveBatchSize(len(ops))
	logger.Debug("treedb_update_committed", "ops", len(ops))
	return nil
}

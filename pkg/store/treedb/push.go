package treedb

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Push generates a unique child key: a ULID, lexicographically ordered by
// creation time. The monotonic entropy source keeps ids generated within
// the same millisecond sortable in generation order.
func (s *Store) Push() string {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

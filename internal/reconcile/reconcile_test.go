package reconcile

import (
	"encoding/json"
	"testing"

	"yappin/pkg/models"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
)

func newStore(t *testing.T) *treedb.Store {
	t.Helper()
	db, err := treedb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func set(t *testing.T, db *treedb.Store, key string, v any) {
	t.Helper()
	buf, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode %s: %v", key, err)
	}
	if err := db.Set(key, buf); err != nil {
		t.Fatalf("set %s: %v", key, err)
	}
}

func TestRunOnceRepairsYapCounters(t *testing.T) {
	db := newStore(t)
	m := &Manager{db: db}

	// a yap whose stored counters drifted below the index cardinality,
	// as two concurrent repliers would leave it
	set(t, db, paths.Yap("y1"), models.Yap{ID: "y1", UID: "u1", Likes: 0, Replies: 1})
	db.Set(paths.Like("y1", "a"), []byte(paths.EdgeValue))
	db.Set(paths.Like("y1", "b"), []byte(paths.EdgeValue))
	db.Set(paths.YapReply("y1", "r1"), []byte(paths.EdgeValue))
	db.Set(paths.YapReply("y1", "r2"), []byte(paths.EdgeValue))
	db.Set(paths.YapReply("y1", "r3"), []byte(paths.EdgeValue))

	// a yap already consistent; must not be touched
	set(t, db, paths.Yap("y2"), models.Yap{ID: "y2", UID: "u1", Likes: 0})

	if err := m.RunOnce(); err != nil {
		t.Fatalf("run once: %v", err)
	}

	buf, err := db.Get(paths.Yap("y1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var y models.Yap
	if err := json.Unmarshal(buf, &y); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if y.Likes != 2 || y.Replies != 3 || y.Reyaps != 0 {
		t.Fatalf("repaired yap = %+v", y)
	}
}

func TestRunOnceRepairsFollowCounters(t *testing.T) {
	db := newStore(t)
	m := &Manager{db: db}

	set(t, db, paths.User("u1"), models.User{UID: "u1", FollowersCount: 9, FollowingCount: 0})
	db.Set(paths.Follower("u1", "a"), []byte(paths.EdgeValue))
	db.Set(paths.Following("u1", "b"), []byte(paths.EdgeValue))
	db.Set(paths.Following("u1", "c"), []byte(paths.EdgeValue))

	if err := m.RunOnce(); err != nil {
		t.Fatalf("run once: %v", err)
	}

	buf, _ := db.Get(paths.User("u1"))
	var u models.User
	if err := json.Unmarshal(buf, &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.FollowersCount != 1 || u.FollowingCount != 2 {
		t.Fatalf("repaired user = %+v", u)
	}
}

func TestRunOnceRepairsGroupMemberCount(t *testing.T) {
	db := newStore(t)
	m := &Manager{db: db}

	set(t, db, paths.Group("g1"), models.Group{ID: "g1", MemberCount: 1})
	set(t, db, paths.GroupMember("g1", "a"), models.GroupMember{UID: "a"})
	set(t, db, paths.GroupMember("g1", "b"), models.GroupMember{UID: "b"})
	set(t, db, paths.GroupMember("g1", "c"), models.GroupMember{UID: "c"})

	if err := m.RunOnce(); err != nil {
		t.Fatalf("run once: %v", err)
	}

	buf, _ := db.Get(paths.Group("g1"))
	var g models.Group
	if err := json.Unmarshal(buf, &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if g.MemberCount != 3 {
		t.Fatalf("member count = %d, want 3", g.MemberCount)
	}
}

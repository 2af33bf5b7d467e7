package content

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"yappin/pkg/errs"
	"yappin/pkg/models"
	"yappin/pkg/notify"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := treedb.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, notify.New(db))
}

func seedUser(t *testing.T, e *Engine, uid string, noReyaps bool) models.User {
	t.Helper()
	u := models.User{UID: uid, Username: uid, NeverAllowReyaps: noReyaps}
	buf, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("encode user: %v", err)
	}
	if err := e.DB.Set(paths.User(uid), buf); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestCreateTopLevelYap(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)

	yap, err := e.CreateYap(CreateParams{Author: alice, Text: "hello world"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if yap.ID == "" {
		t.Fatal("no id assigned")
	}

	// mirrored into the author's listing
	listed, err := e.UserYaps("alice")
	if err != nil {
		t.Fatalf("user yaps: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != yap.ID {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestCreateYapValidation(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)

	if _, err := e.CreateYap(CreateParams{Author: alice, Text: "   "}); !errs.IsValidation(err) {
		t.Fatalf("expected validation error on empty yap, got %v", err)
	}
	long := strings.Repeat("x", 281)
	if _, err := e.CreateYap(CreateParams{Author: alice, Text: long}); !errs.IsValidation(err) {
		t.Fatalf("expected validation error on long yap, got %v", err)
	}
	// media-only is allowed
	media := []models.MediaItem{{Type: "image", URL: "http://x/1"}}
	if _, err := e.CreateYap(CreateParams{Author: alice, Media: media}); err != nil {
		t.Fatalf("media-only yap rejected: %v", err)
	}
}

func TestRepliesPartitionedFromUserListing(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)
	bob := seedUser(t, e, "bob", false)

	parent, err := e.CreateYap(CreateParams{Author: alice, Text: "parent"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	reply, err := e.CreateYap(CreateParams{Author: bob, Text: "reply", ReplyTo: parent.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	// reply never shows in bob's top-level listing
	if listed, _ := e.UserYaps("bob"); len(listed) != 0 {
		t.Fatalf("reply leaked into user listing: %+v", listed)
	}
	replies, err := e.Replies(parent.ID)
	if err != nil {
		t.Fatalf("replies: %v", err)
	}
	if len(replies) != 1 || replies[0].ID != reply.ID {
		t.Fatalf("unexpected replies: %+v", replies)
	}

	got, _ := e.GetYap(parent.ID)
	if got.Replies != 1 {
		t.Fatalf("parent reply count = %d, want 1", got.Replies)
	}

	// reply to someone else's yap notifies the parent author
	notifs, _ := notify.New(e.DB).List("alice")
	if len(notifs) != 1 || notifs[0].Type != models.NotifReply {
		t.Fatalf("unexpected notifications: %+v", notifs)
	}
}

func TestSelfReplyDoesNotNotify(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)

	parent, err := e.CreateYap(CreateParams{Author: alice, Text: "parent"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	if _, err := e.CreateYap(CreateParams{Author: alice, Text: "self reply", ReplyTo: parent.ID}); err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if notifs, _ := notify.New(e.DB).List("alice"); len(notifs) != 0 {
		t.Fatalf("self reply notified the author: %+v", notifs)
	}
}

func TestToggleLike(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)
	seedUser(t, e, "bob", false)

	yap, err := e.CreateYap(CreateParams{Author: alice, Text: "like me"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	liked, err := e.ToggleLike(yap.ID, "bob")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !liked {
		t.Fatal("first toggle should like")
	}
	// both sides of the edge exist
	if ok, _ := e.DB.Exists(paths.Like(yap.ID, "bob")); !ok {
		t.Fatal("yap-side edge missing")
	}
	if ok, _ := e.DB.Exists(paths.UserLike("bob", yap.ID)); !ok {
		t.Fatal("user-side edge missing")
	}
	got, _ := e.GetYap(yap.ID)
	if got.Likes != 1 {
		t.Fatalf("likes = %d, want 1", got.Likes)
	}

	likers, _ := e.Likers(yap.ID)
	if len(likers) != 1 || likers[0] != "bob" {
		t.Fatalf("likers = %v", likers)
	}

	// second toggle unlikes and restores the count
	liked, err = e.ToggleLike(yap.ID, "bob")
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if liked {
		t.Fatal("second toggle should unlike")
	}
	got, _ = e.GetYap(yap.ID)
	if got.Likes != 0 {
		t.Fatalf("likes = %d, want 0", got.Likes)
	}
	if ok, _ := e.DB.Exists(paths.Like(yap.ID, "bob")); ok {
		t.Fatal("edge survived unlike")
	}
}

func TestToggleReyapRespectsAuthorSetting(t *testing.T) {
	e := newEngine(t)
	grump := seedUser(t, e, "grump", true)
	seedUser(t, e, "bob", false)

	yap, err := e.CreateYap(CreateParams{Author: grump, Text: "no reyaps"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.ToggleReyap(yap.ID, "bob"); !errs.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestLikeOwnYapDoesNotNotify(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)

	yap, err := e.CreateYap(CreateParams{Author: alice, Text: "self like"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.ToggleLike(yap.ID, "alice"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if notifs, _ := notify.New(e.DB).List("alice"); len(notifs) != 0 {
		t.Fatalf("self like notified the author: %+v", notifs)
	}
}

func TestDeleteYapCascades(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)
	bob := seedUser(t, e, "bob", false)

	yap, err := e.CreateYap(CreateParams{Author: alice, Text: "doomed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.ToggleLike(yap.ID, "bob"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := e.ToggleReyap(yap.ID, "bob"); err != nil {
		t.Fatalf("reyap: %v", err)
	}
	reply, err := e.CreateYap(CreateParams{Author: bob, Text: "orphan to be", ReplyTo: yap.ID})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}

	// only the author may delete
	if err := e.DeleteYap(yap.ID, "bob"); !errs.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := e.DeleteYap(yap.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := e.GetYap(yap.ID); !errs.IsNotFound(err) {
		t.Fatalf("yap still readable: %v", err)
	}
	if listed, _ := e.UserYaps("alice"); len(listed) != 0 {
		t.Fatalf("mirror survived delete: %+v", listed)
	}
	for _, key := range []string{
		paths.Like(yap.ID, "bob"),
		paths.UserLike("bob", yap.ID),
		paths.Reyap(yap.ID, "bob"),
		paths.UserReyap("bob", yap.ID),
		paths.YapReply(yap.ID, reply.ID),
	} {
		if ok, _ := e.DB.Exists(key); ok {
			t.Fatalf("edge %s survived delete", key)
		}
	}

	// the reply itself is orphaned, not deleted
	if _, err := e.GetYap(reply.ID); err != nil {
		t.Fatalf("orphaned reply unreadable: %v", err)
	}
}

func TestDeleteReplyDecrementsParent(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)

	parent, err := e.CreateYap(CreateParams{Author: alice, Text: "parent"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	reply, err := e.CreateYap(CreateParams{Author: alice, Text: "reply", ReplyTo: parent.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	if err := e.DeleteYap(reply.ID, "alice"); err != nil {
		t.Fatalf("delete reply: %v", err)
	}
	got, _ := e.GetYap(parent.ID)
	if got.Replies != 0 {
		t.Fatalf("parent reply count = %d, want 0", got.Replies)
	}
	if replies, _ := e.Replies(parent.ID); len(replies) != 0 {
		t.Fatalf("reply index survived: %+v", replies)
	}
}

func TestReplyToMissingParent(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)
	if _, err := e.CreateYap(CreateParams{Author: alice, Text: "r", ReplyTo: "missing"}); !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// Reply counts are recomputed from a fresh read inside the reply's own
// batch, so concurrent repliers can overwrite each other's increment. The
// index stays exact either way; the counter may only lag behind it, never
// run ahead. The reconciliation job closes the gap later.
func TestConcurrentRepliersMayUndercountParent(t *testing.T) {
	e := newEngine(t)
	alice := seedUser(t, e, "alice", false)

	parent, err := e.CreateYap(CreateParams{Author: alice, Text: "parent"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	const repliers = 64
	start := make(chan struct{})
	errc := make(chan error, repliers)
	var wg sync.WaitGroup
	for i := 0; i < repliers; i++ {
		u := seedUser(t, e, fmt.Sprintf("replier%02d", i), false)
		wg.Add(1)
		go func(u models.User) {
			defer wg.Done()
			<-start
			_, err := e.CreateYap(CreateParams{Author: u, Text: "me too", ReplyTo: parent.ID})
			errc <- err
		}(u)
	}
	close(start)
	wg.Wait()
	close(errc)
	for err := range errc {
		if err != nil {
			t.Fatalf("create reply: %v", err)
		}
	}

	n, err := e.DB.CountChildren(paths.YapRepliesPrefix(parent.ID))
	if err != nil {
		t.Fatalf("count replies: %v", err)
	}
	if n != repliers {
		t.Fatalf("reply index cardinality = %d, want %d", n, repliers)
	}

	got, err := e.GetYap(parent.ID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}
	if got.Replies < 1 || got.Replies > repliers {
		t.Fatalf("parent reply count = %d, want within [1, %d]", got.Replies, repliers)
	}
}

// Group membership of a yap rides on the stored record, not on create
// input: deleting a group yap through the global path still clears its
// group bucket entry.
func TestDeleteGroupYapClearsGroupBucket(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)

	id := e.DB.Push()
	yap := models.Yap{ID: id, UID: "alice", Text: "posted in group", GroupID: "g1"}
	buf, err := json.Marshal(yap)
	if err != nil {
		t.Fatalf("encode yap: %v", err)
	}
	if err := e.DB.Set(paths.Yap(id), buf); err != nil {
		t.Fatalf("seed yap: %v", err)
	}
	if err := e.DB.Set(paths.GroupYap("g1", id), buf); err != nil {
		t.Fatalf("seed group bucket: %v", err)
	}

	if err := e.DeleteYap(id, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := e.DB.Exists(paths.GroupYap("g1", id)); ok {
		t.Fatal("group bucket entry survived delete")
	}
}

package social

import (
	"encoding/json"
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

func seedUser(t *testing.T, e *Engine, uid string, private bool) {
	t.Helper()
	u := models.User{UID: uid, Username: uid}
	u.Privacy.RequireApproval = private
	buf, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("encode user: %v", err)
	}
	if err := e.DB.Set(paths.User(uid), buf); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func getUserT(t *testing.T, e *Engine, uid string) models.User {
	t.Helper()
	buf, err := e.DB.Get(paths.User(uid))
	if err != nil {
		t.Fatalf("read user %s: %v", uid, err)
	}
	var u models.User
	if err := json.Unmarshal(buf, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return u
}

func TestFollowPublicAccount(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)
	seedUser(t, e, "bob", false)

	state, err := e.ToggleFollow("alice", "bob")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if state != StateFollowed {
		t.Fatalf("state = %s, want %s", state, StateFollowed)
	}

	// both edges exist together
	if ok, _ := e.IsFollowing("alice", "bob"); !ok {
		t.Fatal("following edge missing")
	}
	if ok, _ := e.DB.Exists(paths.Follower("bob", "alice")); !ok {
		t.Fatal("follower edge missing")
	}

	if getUserT(t, e, "alice").FollowingCount != 1 {
		t.Fatal("following count not bumped")
	}
	if getUserT(t, e, "bob").FollowersCount != 1 {
		t.Fatal("followers count not bumped")
	}

	// target gets a follow notification
	notifs, err := notify.New(e.DB).List("bob")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Type != models.NotifFollow {
		t.Fatalf("unexpected notifications: %+v", notifs)
	}
}

func TestUnfollowRemovesBothEdges(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)
	seedUser(t, e, "bob", false)

	if _, err := e.ToggleFollow("alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	state, err := e.ToggleFollow("alice", "bob")
	if err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if state != StateUnfollowed {
		t.Fatalf("state = %s, want %s", state, StateUnfollowed)
	}
	if ok, _ := e.IsFollowing("alice", "bob"); ok {
		t.Fatal("following edge survived unfollow")
	}
	if ok, _ := e.DB.Exists(paths.Follower("bob", "alice")); ok {
		t.Fatal("follower edge survived unfollow")
	}
	if c := getUserT(t, e, "bob").FollowersCount; c != 0 {
		t.Fatalf("followers count = %d, want 0", c)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)
	if _, err := e.ToggleFollow("alice", "alice"); !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPrivateAccountRequestFlow(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)
	seedUser(t, e, "prv", true)

	state, err := e.ToggleFollow("alice", "prv")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if state != StateRequested {
		t.Fatalf("state = %s, want %s", state, StateRequested)
	}
	// no edge yet
	if ok, _ := e.IsFollowing("alice", "prv"); ok {
		t.Fatal("edge created for private account without approval")
	}

	reqs, err := e.PendingRequests("prv")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(reqs) != 1 || reqs[0].RequesterUID != "alice" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}

	if err := e.ApproveFollowRequest("prv", "alice"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// approval creates a mutual follow
	if ok, _ := e.IsMutual("alice", "prv"); !ok {
		t.Fatal("approval did not create a mutual follow")
	}
	if reqs, _ := e.PendingRequests("prv"); len(reqs) != 0 {
		t.Fatal("request not consumed by approval")
	}
	if c := getUserT(t, e, "alice").FollowingCount; c != 1 {
		t.Fatalf("alice following count = %d, want 1", c)
	}
	if c := getUserT(t, e, "prv").FollowersCount; c != 1 {
		t.Fatalf("prv followers count = %d, want 1", c)
	}
}

func TestToggleCancelsPendingRequest(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)
	seedUser(t, e, "prv", true)

	if _, err := e.ToggleFollow("alice", "prv"); err != nil {
		t.Fatalf("request: %v", err)
	}
	state, err := e.ToggleFollow("alice", "prv")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if state != StateRequestCancelled {
		t.Fatalf("state = %s, want %s", state, StateRequestCancelled)
	}
	if reqs, _ := e.PendingRequests("prv"); len(reqs) != 0 {
		t.Fatal("request survived cancellation")
	}
}

func TestRejectFollowRequest(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)
	seedUser(t, e, "prv", true)

	if _, err := e.ToggleFollow("alice", "prv"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := e.RejectFollowRequest("prv", "alice"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if ok, _ := e.IsFollowing("alice", "prv"); ok {
		t.Fatal("rejection created an edge")
	}
	if err := e.RejectFollowRequest("prv", "alice"); !errs.IsNotFound(err) {
		t.Fatalf("expected not found on double reject, got %v", err)
	}
}

func TestRemoveFollower(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice", false)
	seedUser(t, e, "bob", false)

	if _, err := e.ToggleFollow("alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := e.RemoveFollower("bob", "alice"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := e.IsFollowing("alice", "bob"); ok {
		t.Fatal("edge survived removal")
	}
	if err := e.RemoveFollower("bob", "alice"); !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFollowersAndFollowingLists(t *testing.T) {
	e := newEngine(t)
	for _, uid := range []string{"a", "b", "c"} {
		seedUser(t, e, uid, false)
	}
	if _, err := e.ToggleFollow("a", "c"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if _, err := e.ToggleFollow("b", "c"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	followers, err := e.Followers("c")
	if err != nil {
		t.Fatalf("followers: %v", err)
	}
	if len(followers) != 2 || followers[0] != "a" || followers[1] != "b" {
		t.Fatalf("followers = %v", followers)
	}
	following, err := e.Following("a")
	if err != nil {
		t.Fatalf("following: %v", err)
	}
	if len(following) != 1 || following[0] != "c" {
		t.Fatalf("following = %v", following)
	}
}

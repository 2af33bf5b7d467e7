package messaging

import (
	"encoding/json"
	"testing"

	"yappin/pkg/errs"
	"yappin/pkg/models"
	"yappin/pkg/notify"
	"yappin/pkg/social"
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
	n := notify.New(db)
	return New(db, social.New(db, n), n)
}

func seedUser(t *testing.T, e *Engine, uid string) {
	t.Helper()
	buf, err := json.Marshal(models.User{UID: uid, Username: uid})
	if err != nil {
		t.Fatalf("encode user: %v", err)
	}
	if err := e.DB.Set(paths.User(uid), buf); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func makeMutual(t *testing.T, e *Engine, a, b string) {
	t.Helper()
	seedUser(t, e, a)
	seedUser(t, e, b)
	if _, err := e.Social.ToggleFollow(a, b); err != nil {
		t.Fatalf("follow %s->%s: %v", a, b, err)
	}
	if _, err := e.Social.ToggleFollow(b, a); err != nil {
		t.Fatalf("follow %s->%s: %v", b, a, err)
	}
}

func TestConversationIDCommutative(t *testing.T) {
	if ConversationID("zoe", "adam") != ConversationID("adam", "zoe") {
		t.Fatal("conversation id not commutative")
	}
	if ConversationID("adam", "zoe") != "adam_zoe" {
		t.Fatalf("got %q", ConversationID("adam", "zoe"))
	}
}

func TestStartConversationRequiresMutual(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice")
	seedUser(t, e, "bob")

	// one-way follow is not enough
	if _, err := e.Social.ToggleFollow("alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if _, err := e.StartConversation("alice", "bob"); !errs.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}

	if _, err := e.Social.ToggleFollow("bob", "alice"); err != nil {
		t.Fatalf("follow back: %v", err)
	}
	convID, err := e.StartConversation("alice", "bob")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// both mirrors seeded
	for _, uid := range []string{"alice", "bob"} {
		convs, cerr := e.Conversations(uid)
		if cerr != nil {
			t.Fatalf("conversations %s: %v", uid, cerr)
		}
		if _, ok := convs[convID]; !ok {
			t.Fatalf("%s missing mirror for %s", uid, convID)
		}
	}
}

func TestStartConversationSelf(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice")
	if _, err := e.StartConversation("alice", "alice"); !errs.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSendMessageUnreadFlow(t *testing.T) {
	e := newEngine(t)
	makeMutual(t, e, "alice", "bob")

	msg, err := e.SendMessage(SendParams{Sender: "alice", Receiver: "bob", Text: "hey"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	convID := ConversationID("alice", "bob")

	msgs, err := e.Messages(convID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != msg.ID || msgs[0].Text != "hey" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	// sender's unread stays zero; receiver's increments
	aConvs, _ := e.Conversations("alice")
	if aConvs[convID].UnreadCount != 0 {
		t.Fatalf("sender unread = %d", aConvs[convID].UnreadCount)
	}
	bConvs, _ := e.Conversations("bob")
	if bConvs[convID].UnreadCount != 1 {
		t.Fatalf("receiver unread = %d, want 1", bConvs[convID].UnreadCount)
	}
	if bConvs[convID].LastMessage != "hey" || bConvs[convID].OtherUID != "alice" {
		t.Fatalf("receiver mirror = %+v", bConvs[convID])
	}

	if _, err := e.SendMessage(SendParams{Sender: "alice", Receiver: "bob", Text: "again"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	bConvs, _ = e.Conversations("bob")
	if bConvs[convID].UnreadCount != 2 {
		t.Fatalf("receiver unread = %d, want 2", bConvs[convID].UnreadCount)
	}

	if err := e.MarkConversationRead("bob", convID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	bConvs, _ = e.Conversations("bob")
	if bConvs[convID].UnreadCount != 0 {
		t.Fatalf("unread after read = %d", bConvs[convID].UnreadCount)
	}

	// receiver got message notifications
	notifs, _ := e.Notif.List("bob")
	var msgNotifs int
	for _, n := range notifs {
		if n.Type == models.NotifMessage {
			msgNotifs++
		}
	}
	if msgNotifs != 2 {
		t.Fatalf("message notifications = %d, want 2", msgNotifs)
	}
}

func TestSendMessageValidation(t *testing.T) {
	e := newEngine(t)
	makeMutual(t, e, "alice", "bob")

	if _, err := e.SendMessage(SendParams{Sender: "alice", Receiver: "alice", Text: "x"}); !errs.IsValidation(err) {
		t.Fatalf("expected validation error on self message, got %v", err)
	}
	if _, err := e.SendMessage(SendParams{Sender: "alice", Receiver: "bob", Text: "  "}); !errs.IsValidation(err) {
		t.Fatalf("expected validation error on empty message, got %v", err)
	}
	// media-only sends with a placeholder preview
	media := []models.MediaItem{{Type: "image", URL: "http://x/1"}}
	if _, err := e.SendMessage(SendParams{Sender: "alice", Receiver: "bob", Media: media}); err != nil {
		t.Fatalf("media-only send: %v", err)
	}
	convs, _ := e.Conversations("bob")
	if convs[ConversationID("alice", "bob")].LastMessage != "[media]" {
		t.Fatalf("preview = %q", convs[ConversationID("alice", "bob")].LastMessage)
	}
}

func TestSendMessageRequiresMutual(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice")
	seedUser(t, e, "bob")
	if _, err := e.SendMessage(SendParams{Sender: "alice", Receiver: "bob", Text: "hi"}); !errs.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	// nothing written
	if msgs, _ := e.Messages(ConversationID("alice", "bob")); len(msgs) != 0 {
		t.Fatalf("gated send wrote messages: %+v", msgs)
	}
}

func TestMessagesInSendOrder(t *testing.T) {
	e := newEngine(t)
	makeMutual(t, e, "alice", "bob")

	texts := []string{"one", "two", "three"}
	for _, txt := range texts {
		if _, err := e.SendMessage(SendParams{Sender: "alice", Receiver: "bob", Text: txt}); err != nil {
			t.Fatalf("send %q: %v", txt, err)
		}
	}
	msgs, err := e.Messages(ConversationID("alice", "bob"))
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != len(texts) {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i, m := range msgs {
		if m.Text != texts[i] {
			t.Fatalf("message %d = %q, want %q", i, m.Text, texts[i])
		}
	}
}

func TestMarkReadMissingConversation(t *testing.T) {
	e := newEngine(t)
	seedUser(t, e, "alice")
	if err := e.MarkConversationRead("alice", "a_b"); !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

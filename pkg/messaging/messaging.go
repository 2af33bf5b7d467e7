package messaging

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/notify"
	"yappin/pkg/social"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
)

// Engine owns direct messages: the shared message partition, and one
// conversation-metadata mirror per participant. Messaging is gated on a
// mutual follow.
type Engine struct {
	DB     *treedb.Store
	Social *social.Engine
	Notif  *notify.Notifier
}

func New(db *treedb.Store, s *social.Engine, n *notify.Notifier) *Engine {
	return &Engine{DB: db, Social: s, Notif: n}
}

// ConversationID derives the shared partition key for a pair of users:
// the two ids sorted lexicographically and joined. Commutative, so both
// participants always address the same message history.
func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

// StartConversation seeds both participants' metadata mirrors. Requires a
// mutual follow; otherwise it fails with a permission error and writes
// nothing.
func (e *Engine) StartConversation(caller, other string) (string, error) {
	telemetry.TrackOp("messaging.start_conversation")
	if caller == other {
		return "", errs.Validation("cannot message yourself")
	}
	if err := e.requireMutual(caller, other); err != nil {
		return "", err
	}

	convID := ConversationID(caller, other)
	var ops []treedb.Op
	for _, side := range [2][2]string{{caller, other}, {other, caller}} {
		key := paths.Conversation(side[0], convID)
		exists, err := e.DB.Exists(key)
		if err != nil {
			return "", errs.Internal("read conversation", err)
		}
		if exists {
			continue
		}
		buf, merr := json.Marshal(models.Conversation{OtherUID: side[1]})
		if merr != nil {
			return "", errs.Internal("encode conversation", merr)
		}
		ops = append(ops, treedb.SetOp(key, buf))
	}
	if len(ops) > 0 {
		if err := e.DB.Update(ops); err != nil {
			return "", errs.Internal("seed conversation", err)
		}
	}
	logger.Info("conversation_started", "conv", convID, "caller", caller)
	return convID, nil
}

type SendParams struct {
	Sender   string
	Receiver string
	Text     string
	Media    []models.MediaItem
}

// SendMessage appends one message row and updates both mirrors. The row,
// the sender's mirror, and the receiver's notification commit in one
// batch; the receiver's mirror moves through a single-path transaction so
// the unread increment cannot lose a concurrent update.
func (e *Engine) SendMessage(p SendParams) (*models.Message, error) {
	telemetry.TrackOp("messaging.send")
	if p.Sender == p.Receiver {
		return nil, errs.Validation("cannot message yourself")
	}
	if strings.TrimSpace(p.Text) == "" && len(p.Media) == 0 {
		return nil, errs.Validation("message needs text or media")
	}
	if err := e.requireMutual(p.Sender, p.Receiver); err != nil {
		return nil, err
	}

	convID := ConversationID(p.Sender, p.Receiver)
	id := e.DB.Push()
	now := time.Now().UnixMilli()
	msg := models.Message{
		ID:         id,
		SenderID:   p.Sender,
		ReceiverID: p.Receiver,
		Text:       p.Text,
		Media:      p.Media,
		TS:         now,
	}
	mbuf, err := json.Marshal(msg)
	if err != nil {
		return nil, errs.Internal("encode message", err)
	}

	preview := p.Text
	if preview == "" {
		preview = "[media]"
	}

	// sender mirror: carry the existing unread count forward unchanged
	senderConv := models.Conversation{OtherUID: p.Receiver}
	if cur, gerr := e.DB.Get(paths.Conversation(p.Sender, convID)); gerr == nil {
		_ = json.Unmarshal(cur, &senderConv)
	}
	senderConv.OtherUID = p.Receiver
	senderConv.LastMessage = preview
	senderConv.LastMessageTS = now
	sbuf, err := json.Marshal(senderConv)
	if err != nil {
		return nil, errs.Internal("encode conversation", err)
	}

	ops := []treedb.Op{
		treedb.SetOp(paths.Message(convID, id), mbuf),
		treedb.SetOp(paths.Conversation(p.Sender, convID), sbuf),
		e.Notif.Op(p.Receiver, models.Notification{
			Type:   models.NotifMessage,
			From:   p.Sender,
			ConvID: convID,
			Text:   preview,
		}),
	}
	if err := e.DB.Update(ops); err != nil {
		return nil, errs.Internal("write message", err)
	}
	telemetry.NotificationWritten(models.NotifMessage)

	// receiver mirror: unread is per-reader and must not lose a concurrent
	// increment, so it goes through the transaction primitive
	var recvConv models.Conversation
	err = e.DB.TxnJSON(paths.Conversation(p.Receiver, convID), &recvConv, func(exists bool) error {
		if !exists {
			recvConv = models.Conversation{OtherUID: p.Sender}
		}
		recvConv.OtherUID = p.Sender
		recvConv.LastMessage = preview
		recvConv.LastMessageTS = now
		recvConv.UnreadCount++
		return nil
	})
	if err != nil {
		logger.Error("receiver_mirror_update_failed", "conv", convID, "error", err)
	}

	logger.Info("message_sent", "conv", convID, "msg", id, "sender", p.Sender)
	return &msg, nil
}

// MarkConversationRead blindly resets the reader's unread count. This is a
// plain overwrite, not a transaction: a message landing at the same
// instant can vanish from the badge count. Known, accepted race.
func (e *Engine) MarkConversationRead(uid, convID string) error {
	telemetry.TrackOp("messaging.mark_read")
	buf, err := e.DB.Get(paths.Conversation(uid, convID))
	if err != nil {
		if treedb.IsNotFound(err) {
			return errs.NotFound("conversation %s", convID)
		}
		return errs.Internal("read conversation", err)
	}
	var conv models.Conversation
	if err := json.Unmarshal(buf, &conv); err != nil {
		return errs.Internal("decode conversation", err)
	}
	conv.UnreadCount = 0
	out, err := json.Marshal(conv)
	if err != nil {
		return errs.Internal("encode conversation", err)
	}
	return e.DB.Set(paths.Conversation(uid, convID), out)
}

// Messages lists a conversation's messages in send order (push-key order).
func (e *Engine) Messages(convID string) ([]models.Message, error) {
	rows, err := e.DB.Children(paths.MessagesPrefix(convID))
	if err != nil {
		return nil, errs.Internal("list messages", err)
	}
	out := make([]models.Message, 0, len(rows))
	for _, kv := range rows {
		var m models.Message
		if err := json.Unmarshal(kv.Value, &m); err != nil {
			logger.Warn("message_decode_failed", "key", kv.Key, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Conversations lists a user's conversation mirrors.
func (e *Engine) Conversations(uid string) (map[string]models.Conversation, error) {
	rows, err := e.DB.Children(paths.ConversationsPrefix(uid))
	if err != nil {
		return nil, errs.Internal("list conversations", err)
	}
	out := make(map[string]models.Conversation, len(rows))
	for _, kv := range rows {
		var c models.Conversation
		if err := json.Unmarshal(kv.Value, &c); err != nil {
			logger.Warn("conversation_decode_failed", "key", kv.Key, "error", err)
			continue
		}
		out[paths.LastSegment(kv.Key)] = c
	}
	return out, nil
}

func (e *Engine) requireMutual(a, b string) error {
	mutual, err := e.Social.IsMutual(a, b)
	if err != nil {
		return errs.Internal("read follow edges", err)
	}
	if !mutual {
		telemetry.OpFailed("messaging.gate", errs.KindAuthorization.String())
		return errs.Authorization("direct messages require a mutual follow")
	}
	return nil
}

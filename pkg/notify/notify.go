package notify

import (
	"encoding/json"
	"time"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
)

// Notifier writes one notification record per interested recipient.
// Records are append-only and never deduplicated.
type Notifier struct {
	DB *treedb.Store
}

func New(db *treedb.Store) *Notifier {
	return &Notifier{DB: db}
}

// Op builds the write op for one recipient so callers can fold the
// notification into the same atomic batch as the event that caused it.
// The push id is assigned here. Nothing is written or counted until the
// caller commits the batch; callers record the telemetry after a
// successful commit.
func (n *Notifier) Op(recipient string, notif models.Notification) treedb.Op {
	notif.ID = n.DB.Push()
	if notif.TS == 0 {
		notif.TS = time.Now().UnixMilli()
	}
	buf, _ := json.Marshal(notif)
	return treedb.SetOp(paths.Notification(recipient, notif.ID), buf)
}

// FanOut writes one record per recipient in a single batch, skipping the
// actor so users never get notified about their own events.
func (n *Notifier) FanOut(recipients []string, actor string, notif models.Notification) error {
	ops := make([]treedb.Op, 0, len(recipients))
	for _, r := range recipients {
		if r == actor {
			continue
		}
		ops = append(ops, n.Op(r, notif))
	}
	if len(ops) == 0 {
		return nil
	}
	if err := n.DB.Update(ops); err != nil {
		return errs.Internal("notification fan-out", err)
	}
	telemetry.NotificationsWritten(notif.Type, len(ops))
	logger.Debug("notification_fanout", "type", notif.Type, "recipients", len(ops))
	return nil
}

// List returns every notification for a recipient, oldest first (push-key
// order).
func (n *Notifier) List(recipient string) ([]models.Notification, error) {
	rows, err := n.DB.Children(paths.NotificationsPrefix(recipient))
	if err != nil {
		return nil, errs.Internal("list notifications", err)
	}
	out := make([]models.Notification, 0, len(rows))
	for _, kv := range rows {
		var rec models.Notification
		if err := json.Unmarshal(kv.Value, &rec); err != nil {
			logger.Warn("notification_decode_failed", "key", kv.Key, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Unread returns notifications not yet marked read.
func (n *Notifier) Unread(recipient string) ([]models.Notification, error) {
	all, err := n.List(recipient)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, rec := range all {
		if !rec.Read {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MarkRead flags a single notification as read.
func (n *Notifier) MarkRead(recipient, id string) error {
	var rec models.Notification
	err := n.DB.TxnJSON(paths.Notification(recipient, id), &rec, func(exists bool) error {
		if !exists {
			return errs.NotFound("notification %s", id)
		}
		rec.Read = true
		return nil
	})
	return err
}

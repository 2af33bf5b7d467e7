package content

import (
	"encoding/json"
	"time"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/notify"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
	"yappin/pkg/validation"
)

// Engine owns the yap table and its denormalized satellites: the per-user
// top-level mirror, reply threading, and the like/reyap edge pairs with
// their counters.
//
// Counter discipline follows two different regimes on purpose. Like and
// reyap counts move through single-path transactions. Reply counts are
// recomputed from a fresh read and written inside the same batch as the
// edge, so two concurrent repliers can race and under-count; the
// reconciliation job repairs the drift out of band.
type Engine struct {
	DB    *treedb.Store
	Notif *notify.Notifier
}

func New(db *treedb.Store, n *notify.Notifier) *Engine {
	return &Engine{DB: db, Notif: n}
}

type CreateParams struct {
	Author  models.User
	Text    string
	Media   []models.MediaItem
	ReplyTo string
}

// CreateYap writes a yap and every index that must change with it in one
// batch. Top-level yaps are mirrored into the author's listing; replies are
// indexed only under their parent, so the two listings partition the yap
// table.
func (e *Engine) CreateYap(p CreateParams) (*models.Yap, error) {
	telemetry.TrackOp("content.create_yap")
	if p.Author.UID == "" {
		return nil, errs.Authorization("not signed in")
	}
	if err := validation.YapContent(p.Text, p.Media); err != nil {
		telemetry.OpFailed("content.create_yap", errs.KindOf(err).String())
		return nil, err
	}

	id := e.DB.Push()
	yap := models.Yap{
		ID:           id,
		UID:          p.Author.UID,
		Username:     p.Author.Username,
		DisplayName:  p.Author.DisplayName,
		UserPhotoURL: p.Author.PhotoURL,
		Text:         p.Text,
		Media:        p.Media,
		TS:           time.Now().UnixMilli(),
		ReplyTo:      p.ReplyTo,
	}
	buf, err := json.Marshal(yap)
	if err != nil {
		return nil, errs.Internal("encode yap", err)
	}

	ops := []treedb.Op{treedb.SetOp(paths.Yap(id), buf)}
	notified := false

	if !yap.IsReply() {
		ops = append(ops, treedb.SetOp(paths.UserYap(p.Author.UID, id), []byte(paths.EdgeValue)))
	} else {
		parent, perr := e.GetYap(p.ReplyTo)
		if perr != nil {
			return nil, perr
		}
		// recompute from a fresh read, written in the same batch; this is
		// a read-increment-write, not a counter transaction, and two
		// concurrent repliers can under-count
		parent.Replies++
		pbuf, merr := json.Marshal(parent)
		if merr != nil {
			return nil, errs.Internal("encode parent yap", merr)
		}
		ops = append(ops,
			treedb.SetOp(paths.YapReply(p.ReplyTo, id), []byte(paths.EdgeValue)),
			treedb.SetOp(paths.Yap(parent.ID), pbuf),
		)
		if parent.UID != p.Author.UID {
			ops = append(ops, e.Notif.Op(parent.UID, models.Notification{
				Type:  models.NotifReply,
				From:  p.Author.UID,
				YapID: parent.ID,
			}))
			notified = true
		}
	}

	if err := e.DB.Update(ops); err != nil {
		return nil, errs.Internal("write yap", err)
	}
	if notified {
		telemetry.NotificationWritten(models.NotifReply)
	}
	logger.Info("yap_created", "id", id, "uid", p.Author.UID, "reply_to", p.ReplyTo)
	return &yap, nil
}

// DeleteYap removes a yap and everything that points at it: the author
// mirror, every like and reyap edge pair, and its own reply bucket. Child
// replies are left orphaned on purpose; they stay readable. All dependent
// indexes are fetched before the single batched write, so a failed batch
// leaves the store untouched. The parent reply-count adjustment runs after
// the batch and can go stale if the process dies in between.
func (e *Engine) DeleteYap(id, caller string) error {
	telemetry.TrackOp("content.delete_yap")
	yap, err := e.GetYap(id)
	if err != nil {
		return err
	}
	if yap.UID != caller {
		telemetry.OpFailed("content.delete_yap", errs.KindAuthorization.String())
		return errs.Authorization("only the author can delete a yap")
	}

	likes, err := e.DB.Children(paths.LikesPrefix(id))
	if err != nil {
		return errs.Internal("gather likes", err)
	}
	reyaps, err := e.DB.Children(paths.ReyapsPrefix(id))
	if err != nil {
		return errs.Internal("gather reyaps", err)
	}
	replies, err := e.DB.Children(paths.YapRepliesPrefix(id))
	if err != nil {
		return errs.Internal("gather replies", err)
	}

	ops := []treedb.Op{treedb.DelOp(paths.Yap(id))}
	if !yap.IsReply() {
		ops = append(ops, treedb.DelOp(paths.UserYap(yap.UID, id)))
	}
	if yap.GroupID != "" {
		ops = append(ops, treedb.DelOp(paths.GroupYap(yap.GroupID, id)))
	}
	for _, kv := range likes {
		uid := paths.LastSegment(kv.Key)
		ops = append(ops, treedb.DelOp(kv.Key), treedb.DelOp(paths.UserLike(uid, id)))
	}
	for _, kv := range reyaps {
		uid := paths.LastSegment(kv.Key)
		ops = append(ops, treedb.DelOp(kv.Key), treedb.DelOp(paths.UserReyap(uid, id)))
	}
	for _, kv := range replies {
		// drop the thread index only; the reply yaps themselves survive
		ops = append(ops, treedb.DelOp(kv.Key))
	}

	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("delete yap", err)
	}
	logger.Info("yap_deleted", "id", id, "uid", caller,
		"likes", len(likes), "reyaps", len(reyaps), "orphaned_replies", len(replies))

	if yap.IsReply() {
		e.decrementReplyCount(yap.ReplyTo)
	}
	return nil
}

// decrementReplyCount is a read-then-write, matching the create side.
func (e *Engine) decrementReplyCount(parentID string) {
	parent, err := e.GetYap(parentID)
	if err != nil {
		if !errs.IsNotFound(err) {
			logger.Error("reply_count_read_failed", "parent", parentID, "error", err)
		}
		return
	}
	parent.Replies--
	if parent.Replies < 0 {
		parent.Replies = 0
	}
	buf, err := json.Marshal(parent)
	if err != nil {
		logger.Error("reply_count_encode_failed", "parent", parentID, "error", err)
		return
	}
	if err := e.DB.Set(paths.Yap(parentID), buf); err != nil {
		logger.Error("reply_count_write_failed", "parent", parentID, "error", err)
	}
}

// GetYap loads a yap document.
func (e *Engine) GetYap(id string) (*models.Yap, error) {
	buf, err := e.DB.Get(paths.Yap(id))
	if err != nil {
		if treedb.IsNotFound(err) {
			return nil, errs.NotFound("yap %s", id)
		}
		return nil, errs.Internal("read yap", err)
	}
	var y models.Yap
	if err := json.Unmarshal(buf, &y); err != nil {
		return nil, errs.Internal("decode yap", err)
	}
	return &y, nil
}

// UserYaps lists a user's top-level yaps in creation order. Replies never
// appear here.
func (e *Engine) UserYaps(uid string) ([]models.Yap, error) {
	return e.yapsFromEdges(paths.UserYapsPrefix(uid))
}

// Replies lists the direct replies of a yap in creation order.
func (e *Engine) Replies(parentID string) ([]models.Yap, error) {
	return e.yapsFromEdges(paths.YapRepliesPrefix(parentID))
}

// Likers lists the uids that like a yap.
func (e *Engine) Likers(yapID string) ([]string, error) {
	rows, err := e.DB.Children(paths.LikesPrefix(yapID))
	if err != nil {
		return nil, errs.Internal("list likers", err)
	}
	out := make([]string, 0, len(rows))
	for _, kv := range rows {
		out = append(out, paths.LastSegment(kv.Key))
	}
	return out, nil
}

func (e *Engine) yapsFromEdges(prefix string) ([]models.Yap, error) {
	rows, err := e.DB.Children(prefix)
	if err != nil {
		return nil, errs.Internal("list yap edges", err)
	}
	out := make([]models.Yap, 0, len(rows))
	for _, kv := range rows {
		y, gerr := e.GetYap(paths.LastSegment(kv.Key))
		if gerr != nil {
			// edge without a row: deleted yap, skip
			if errs.IsNotFound(gerr) {
				continue
			}
			return nil, gerr
		}
		out = append(out, *y)
	}
	return out, nil
}

package groups

import (
	"encoding/json"
	"time"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
	"yappin/pkg/validation"
)

// PostGroupYap writes a member's yap into both the group bucket and the
// global yap table as independent snapshots (no live join between them),
// and fans out one notification per member except the poster, all in a
// single batch.
func (e *Engine) PostGroupYap(groupID string, author models.User, text string, media []models.MediaItem) (*models.Yap, error) {
	telemetry.TrackOp("groups.post_yap")
	if _, err := e.GetGroup(groupID); err != nil {
		return nil, err
	}
	member, err := e.DB.Exists(paths.GroupMember(groupID, author.UID))
	if err != nil {
		return nil, errs.Internal("read membership", err)
	}
	if !member {
		telemetry.OpFailed("groups.post_yap", errs.KindAuthorization.String())
		return nil, errs.Authorization("not a member of %s", groupID)
	}
	if err := validation.YapContent(text, media); err != nil {
		return nil, err
	}

	id := e.DB.Push()
	yap := models.Yap{
		ID:           id,
		UID:          author.UID,
		Username:     author.Username,
		DisplayName:  author.DisplayName,
		UserPhotoURL: author.PhotoURL,
		Text:         text,
		Media:        media,
		TS:           time.Now().UnixMilli(),
		GroupID:      groupID,
	}
	buf, err := json.Marshal(yap)
	if err != nil {
		return nil, errs.Internal("encode yap", err)
	}

	ops := []treedb.Op{
		treedb.SetOp(paths.GroupYap(groupID, id), buf),
		treedb.SetOp(paths.Yap(id), buf),
	}
	members, err := e.Members(groupID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UID == author.UID {
			continue
		}
		ops = append(ops, e.Notif.Op(m.UID, models.Notification{
			Type:    models.NotifGroupYap,
			From:    author.UID,
			GroupID: groupID,
			YapID:   id,
		}))
	}
	if err := e.DB.Update(ops); err != nil {
		return nil, errs.Internal("write group yap", err)
	}
	telemetry.NotificationsWritten(models.NotifGroupYap, len(ops)-2)
	logger.Info("group_yap_posted", "group", groupID, "yap", id, "uid", author.UID, "notified", len(ops)-2)
	return &yap, nil
}

// GroupYaps lists the group's yaps in creation order.
func (e *Engine) GroupYaps(groupID string) ([]models.Yap, error) {
	rows, err := e.DB.Children(paths.GroupYapsPrefix(groupID))
	if err != nil {
		return nil, errs.Internal("list group yaps", err)
	}
	out := make([]models.Yap, 0, len(rows))
	for _, kv := range rows {
		var y models.Yap
		if err := json.Unmarshal(kv.Value, &y); err != nil {
			logger.Warn("group_yap_decode_failed", "key", kv.Key, "error", err)
			continue
		}
		out = append(out, y)
	}
	return out, nil
}

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
)

// RequestJoin is the public entry point for joining: public groups delegate
// to direct join, private groups get a pending request and every admin is
// notified.
func (e *Engine) RequestJoin(groupID string, user models.User) error {
	telemetry.TrackOp("groups.request_join")
	grp, err := e.GetGroup(groupID)
	if err != nil {
		return err
	}
	if grp.IsPublic {
		return e.JoinGroup(groupID, user.UID)
	}

	member, err := e.DB.Exists(paths.GroupMember(groupID, user.UID))
	if err != nil {
		return errs.Internal("read membership", err)
	}
	if member {
		return errs.Conflict("already a member of %s", groupID)
	}
	pending, err := e.DB.Exists(paths.GroupJoin(groupID, user.UID))
	if err != nil {
		return errs.Internal("read join request", err)
	}
	if pending {
		return errs.Conflict("join request already pending")
	}

	req := models.GroupJoinRequest{
		UID:         user.UID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		RequestedTS: time.Now().UnixMilli(),
		Status:      models.FollowRequestPending,
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return errs.Internal("encode join request", err)
	}

	admins, err := e.adminIDs(groupID)
	if err != nil {
		return err
	}
	ops := []treedb.Op{treedb.SetOp(paths.GroupJoin(groupID, user.UID), buf)}
	for _, admin := range admins {
		ops = append(ops, e.Notif.Op(admin, models.Notification{
			Type:    models.NotifGroupJoinReq,
			From:    user.UID,
			GroupID: groupID,
		}))
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("write join request", err)
	}
	telemetry.NotificationsWritten(models.NotifGroupJoinReq, len(admins))
	logger.Info("group_join_requested", "group", groupID, "uid", user.UID, "admins_notified", len(admins))
	return nil
}

// ApproveJoinRequest promotes the requester to member, recomputes
// memberCount from a fresh read, and deletes the request, all in one batch.
// Admin-only.
func (e *Engine) ApproveJoinRequest(groupID, caller, uid string) error {
	telemetry.TrackOp("groups.approve_join")
	if err := e.requireAdmin(groupID, caller); err != nil {
		return err
	}
	grp, err := e.GetGroup(groupID)
	if err != nil {
		return err
	}
	ok, err := e.DB.Exists(paths.GroupJoin(groupID, uid))
	if err != nil {
		return errs.Internal("read join request", err)
	}
	if !ok {
		return errs.NotFound("no pending join request from %s", uid)
	}

	mbuf, err := json.Marshal(models.GroupMember{UID: uid, JoinedTS: time.Now().UnixMilli(), Role: models.RoleMember})
	if err != nil {
		return errs.Internal("encode member", err)
	}
	grp.MemberCount++
	gbuf, err := json.Marshal(grp)
	if err != nil {
		return errs.Internal("encode group", err)
	}

	ops := []treedb.Op{
		treedb.SetOp(paths.GroupMember(groupID, uid), mbuf),
		treedb.SetOp(paths.UserGroup(uid, groupID), []byte(paths.EdgeValue)),
		treedb.SetOp(paths.Group(groupID), gbuf),
		treedb.DelOp(paths.GroupJoin(groupID, uid)),
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("approve join request", err)
	}
	logger.Info("group_join_approved", "group", groupID, "uid", uid, "by", caller)
	return nil
}

// RejectJoinRequest deletes a pending request. Admin-only.
func (e *Engine) RejectJoinRequest(groupID, caller, uid string) error {
	telemetry.TrackOp("groups.reject_join")
	if err := e.requireAdmin(groupID, caller); err != nil {
		return err
	}
	ok, err := e.DB.Exists(paths.GroupJoin(groupID, uid))
	if err != nil {
		return errs.Internal("read join request", err)
	}
	if !ok {
		return errs.NotFound("no pending join request from %s", uid)
	}
	if err := e.DB.Delete(paths.GroupJoin(groupID, uid)); err != nil {
		return errs.Internal("reject join request", err)
	}
	logger.Info("group_join_rejected", "group", groupID, "uid", uid, "by", caller)
	return nil
}

// PendingJoinRequests lists a private group's pending requests.
func (e *Engine) PendingJoinRequests(groupID string) ([]models.GroupJoinRequest, error) {
	rows, err := e.DB.Children(paths.GroupJoinsPrefix(groupID))
	if err != nil {
		return nil, errs.Internal("list join requests", err)
	}
	out := make([]models.GroupJoinRequest, 0, len(rows))
	for _, kv := range rows {
		var req models.GroupJoinRequest
		if err := json.Unmarshal(kv.Value, &req); err != nil {
			logger.Warn("join_request_decode_failed", "key", kv.Key, "error", err)
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

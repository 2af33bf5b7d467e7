package groups

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

// Engine owns groups, their membership index, the per-user back-index, and
// the private-group join workflow. memberCount tracks the cardinality of
// the membership index via fresh-read recompute at each mutation; at least
// one admin exists for as long as the group does.
type Engine struct {
	DB    *treedb.Store
	Notif *notify.Notifier
}

func New(db *treedb.Store, n *notify.Notifier) *Engine {
	return &Engine{DB: db, Notif: n}
}

type CreateParams struct {
	Creator  models.User
	Name     string
	Desc     string
	Topic    string
	IsPublic bool
	ImageURL string
}

// CreateGroup validates the fields, then seeds the group, the creator's
// admin membership, and the back-index in one batch. The creator starts as
// the sole admin.
func (e *Engine) CreateGroup(p CreateParams) (*models.Group, error) {
	telemetry.TrackOp("groups.create")
	if p.Creator.UID == "" {
		return nil, errs.Authorization("not signed in")
	}
	if err := validation.GroupName(p.Name); err != nil {
		return nil, err
	}
	if err := validation.GroupDesc(p.Desc); err != nil {
		return nil, err
	}
	if err := validation.GroupTopic(p.Topic); err != nil {
		return nil, err
	}

	id := e.DB.Push()
	now := time.Now().UnixMilli()
	grp := models.Group{
		ID:          id,
		Name:        p.Name,
		Description: p.Desc,
		Topic:       p.Topic,
		IsPublic:    p.IsPublic,
		CreatedBy:   p.Creator.UID,
		CreatedTS:   now,
		MemberCount: 1,
		ImageURL:    p.ImageURL,
	}
	gbuf, err := json.Marshal(grp)
	if err != nil {
		return nil, errs.Internal("encode group", err)
	}
	mbuf, err := json.Marshal(models.GroupMember{UID: p.Creator.UID, JoinedTS: now, Role: models.RoleAdmin})
	if err != nil {
		return nil, errs.Internal("encode member", err)
	}

	ops := []treedb.Op{
		treedb.SetOp(paths.Group(id), gbuf),
		treedb.SetOp(paths.GroupMember(id, p.Creator.UID), mbuf),
		treedb.SetOp(paths.UserGroup(p.Creator.UID, id), []byte(paths.EdgeValue)),
	}
	if err := e.DB.Update(ops); err != nil {
		return nil, errs.Internal("write group", err)
	}
	logger.Info("group_created", "id", id, "creator", p.Creator.UID, "public", p.IsPublic)
	return &grp, nil
}

// JoinGroup adds uid as a plain member. Called directly it has direct-join
// semantics regardless of the group's visibility; the request workflow
// lives in RequestJoin.
func (e *Engine) JoinGroup(groupID, uid string) error {
	telemetry.TrackOp("groups.join")
	grp, err := e.GetGroup(groupID)
	if err != nil {
		return err
	}
	member, err := e.DB.Exists(paths.GroupMember(groupID, uid))
	if err != nil {
		return errs.Internal("read membership", err)
	}
	if member {
		return errs.Conflict("already a member of %s", groupID)
	}

	mbuf, err := json.Marshal(models.GroupMember{UID: uid, JoinedTS: time.Now().UnixMilli(), Role: models.RoleMember})
	if err != nil {
		return errs.Internal("encode member", err)
	}
	// count derives from a fresh read of the group row, not a counter
	// transaction; concurrent joiners can under-count (repaired by the
	// reconciliation job)
	grp.MemberCount++
	gbuf, err := json.Marshal(grp)
	if err != nil {
		return errs.Internal("encode group", err)
	}

	ops := []treedb.Op{
		treedb.SetOp(paths.GroupMember(groupID, uid), mbuf),
		treedb.SetOp(paths.UserGroup(uid, groupID), []byte(paths.EdgeValue)),
		treedb.SetOp(paths.Group(groupID), gbuf),
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("join group", err)
	}
	logger.Info("group_joined", "group", groupID, "uid", uid)
	return nil
}

// LeaveGroup removes uid's membership. The last remaining admin may not
// leave; the call fails closed on Conflict.
func (e *Engine) LeaveGroup(groupID, uid string) error {
	telemetry.TrackOp("groups.leave")
	grp, err := e.GetGroup(groupID)
	if err != nil {
		return err
	}
	m, err := e.getMember(groupID, uid)
	if err != nil {
		return err
	}

	if m.Role == models.RoleAdmin {
		admins, aerr := e.countAdmins(groupID)
		if aerr != nil {
			return aerr
		}
		if admins <= 1 {
			telemetry.OpFailed("groups.leave", errs.KindConflict.String())
			return errs.Conflict("the last admin cannot leave the group")
		}
	}

	grp.MemberCount--
	if grp.MemberCount < 0 {
		grp.MemberCount = 0
	}
	gbuf, err := json.Marshal(grp)
	if err != nil {
		return errs.Internal("encode group", err)
	}
	ops := []treedb.Op{
		treedb.DelOp(paths.GroupMember(groupID, uid)),
		treedb.DelOp(paths.UserGroup(uid, groupID)),
		treedb.SetOp(paths.Group(groupID), gbuf),
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("leave group", err)
	}
	logger.Info("group_left", "group", groupID, "uid", uid)
	return nil
}

// DeleteGroup removes the group, its membership index, its yap bucket, and
// every member's back-index in one batch. The mirrored entries in the
// global yap table survive: group deletion is not content deletion.
func (e *Engine) DeleteGroup(groupID, caller string) error {
	telemetry.TrackOp("groups.delete")
	if _, err := e.GetGroup(groupID); err != nil {
		return err
	}
	if err := e.requireAdmin(groupID, caller); err != nil {
		return err
	}

	members, err := e.DB.Children(paths.GroupMembersPrefix(groupID))
	if err != nil {
		return errs.Internal("gather members", err)
	}
	yaps, err := e.DB.Children(paths.GroupYapsPrefix(groupID))
	if err != nil {
		return errs.Internal("gather group yaps", err)
	}
	reqs, err := e.DB.Children(paths.GroupJoinsPrefix(groupID))
	if err != nil {
		return errs.Internal("gather join requests", err)
	}

	ops := []treedb.Op{treedb.DelOp(paths.Group(groupID))}
	for _, kv := range members {
		uid := paths.LastSegment(kv.Key)
		ops = append(ops, treedb.DelOp(kv.Key), treedb.DelOp(paths.UserGroup(uid, groupID)))
	}
	for _, kv := range yaps {
		ops = append(ops, treedb.DelOp(kv.Key))
	}
	for _, kv := range reqs {
		ops = append(ops, treedb.DelOp(kv.Key))
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("delete group", err)
	}
	logger.Info("group_deleted", "group", groupID, "caller", caller, "members", len(members))
	return nil
}

// GetGroup loads a group row.
func (e *Engine) GetGroup(id string) (*models.Group, error) {
	buf, err := e.DB.Get(paths.Group(id))
	if err != nil {
		if treedb.IsNotFound(err) {
			return nil, errs.NotFound("group %s", id)
		}
		return nil, errs.Internal("read group", err)
	}
	var g models.Group
	if err := json.Unmarshal(buf, &g); err != nil {
		return nil, errs.Internal("decode group", err)
	}
	return &g, nil
}

// Members lists the group's membership rows.
func (e *Engine) Members(groupID string) ([]models.GroupMember, error) {
	rows, err := e.DB.Children(paths.GroupMembersPrefix(groupID))
	if err != nil {
		return nil, errs.Internal("list members", err)
	}
	out := make([]models.GroupMember, 0, len(rows))
	for _, kv := range rows {
		var m models.GroupMember
		if err := json.Unmarshal(kv.Value, &m); err != nil {
			logger.Warn("member_decode_failed", "key", kv.Key, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// UserGroups lists the group ids uid belongs to.
func (e *Engine) UserGroups(uid string) ([]string, error) {
	rows, err := e.DB.Children(paths.UserGroupsPrefix(uid))
	if err != nil {
		return nil, errs.Internal("list user groups", err)
	}
	out := make([]string, 0, len(rows))
	for _, kv := range rows {
		out = append(out, paths.LastSegment(kv.Key))
	}
	return out, nil
}

// PromoteMember raises a member to admin.
func (e *Engine) PromoteMember(groupID, caller, uid string) error {
	telemetry.TrackOp("groups.promote")
	if err := e.requireAdmin(groupID, caller); err != nil {
		return err
	}
	var m models.GroupMember
	err := e.DB.TxnJSON(paths.GroupMember(groupID, uid), &m, func(exists bool) error {
		if !exists {
			return errs.NotFound("%s is not a member of %s", uid, groupID)
		}
		m.Role = models.RoleAdmin
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("member_promoted", "group", groupID, "uid", uid, "by", caller)
	return nil
}

func (e *Engine) getMember(groupID, uid string) (*models.GroupMember, error) {
	buf, err := e.DB.Get(paths.GroupMember(groupID, uid))
	if err != nil {
		if treedb.IsNotFound(err) {
			return nil, errs.NotFound("%s is not a member of %s", uid, groupID)
		}
		return nil, errs.Internal("read membership", err)
	}
	var m models.GroupMember
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, errs.Internal("decode member", err)
	}
	return &m, nil
}

// requireAdmin authorizes caller by reading their own membership row.
func (e *Engine) requireAdmin(groupID, caller string) error {
	m, err := e.getMember(groupID, caller)
	if err != nil {
		if errs.IsNotFound(err) {
			return errs.Authorization("not a member of %s", groupID)
		}
		return err
	}
	if m.Role != models.RoleAdmin {
		return errs.Authorization("admin role required")
	}
	return nil
}

func (e *Engine) countAdmins(groupID string) (int, error) {
	members, err := e.Members(groupID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (e *Engine) adminIDs(groupID string) ([]string, error) {
	members, err := e.Members(groupID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.Role == models.RoleAdmin {
			out = append(out, m.UID)
		}
	}
	return out, nil
}

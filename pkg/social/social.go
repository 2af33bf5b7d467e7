package social

import (
	"encoding/json"
	"sync"
	"time"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/notify"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
)

// Engine maintains the follow graph: the symmetric following/follower edge
// pair, the pending-request workflow for private accounts, and the advisory
// follower/following counters on user records.
type Engine struct {
	DB    *treedb.Store
	Notif *notify.Notifier
}

func New(db *treedb.Store, n *notify.Notifier) *Engine {
	return &Engine{DB: db, Notif: n}
}

// FollowState is the observable outcome of ToggleFollow.
type FollowState string

const (
	StateFollowed         FollowState = "followed"
	StateUnfollowed       FollowState = "unfollowed"
	StateRequested        FollowState = "requested"
	StateRequestCancelled FollowState = "request_cancelled"
)

// ToggleFollow drives the per-pair state machine:
// none -> pending -> following, none -> following, pending -> none,
// following -> none. No state re-enters without passing through none.
func (e *Engine) ToggleFollow(requester, target string) (FollowState, error) {
	telemetry.TrackOp("social.toggle_follow")
	if requester == target {
		return "", errs.Validation("cannot follow yourself")
	}

	// edge and pending request are independent paths; read both at once
	var (
		wg        sync.WaitGroup
		following bool
		pending   bool
		readErrs  [2]error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		following, readErrs[0] = e.DB.Exists(paths.Following(requester, target))
	}()
	go func() {
		defer wg.Done()
		pending, readErrs[1] = e.DB.Exists(paths.FollowRequest(target, requester))
	}()
	wg.Wait()
	for _, err := range readErrs {
		if err != nil {
			return "", errs.Internal("read follow state", err)
		}
	}

	switch {
	case following:
		if err := e.unfollow(requester, target); err != nil {
			return "", err
		}
		return StateUnfollowed, nil
	case pending:
		if err := e.DB.Delete(paths.FollowRequest(target, requester)); err != nil {
			return "", errs.Internal("cancel follow request", err)
		}
		logger.Info("follow_request_cancelled", "requester", requester, "target", target)
		return StateRequestCancelled, nil
	}

	targetUser, err := e.getUser(target)
	if err != nil {
		return "", err
	}

	if targetUser.Privacy.RequireApproval {
		req := models.FollowRequest{
			RequesterUID: requester,
			RequestedTS:  time.Now().UnixMilli(),
			Status:       models.FollowRequestPending,
		}
		buf, merr := json.Marshal(req)
		if merr != nil {
			return "", errs.Internal("encode follow request", merr)
		}
		ops := []treedb.Op{
			treedb.SetOp(paths.FollowRequest(target, requester), buf),
			e.Notif.Op(target, models.Notification{Type: models.NotifFollowRequest, From: requester}),
		}
		if err := e.DB.Update(ops); err != nil {
			return "", errs.Internal("write follow request", err)
		}
		telemetry.NotificationWritten(models.NotifFollowRequest)
		logger.Info("follow_requested", "requester", requester, "target", target)
		return StateRequested, nil
	}

	ops := []treedb.Op{
		treedb.SetOp(paths.Following(requester, target), []byte(paths.EdgeValue)),
		treedb.SetOp(paths.Follower(target, requester), []byte(paths.EdgeValue)),
		e.Notif.Op(target, models.Notification{Type: models.NotifFollow, From: requester}),
	}
	if err := e.DB.Update(ops); err != nil {
		return "", errs.Internal("write follow edge", err)
	}
	telemetry.NotificationWritten(models.NotifFollow)
	e.bumpCounter(requester, counterFollowing, 1)
	e.bumpCounter(target, counterFollowers, 1)
	logger.Info("follow_edge_created", "requester", requester, "target", target)
	return StateFollowed, nil
}

func (e *Engine) unfollow(requester, target string) error {
	ops := []treedb.Op{
		treedb.DelOp(paths.Following(requester, target)),
		treedb.DelOp(paths.Follower(target, requester)),
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("delete follow edge", err)
	}
	e.bumpCounter(requester, counterFollowing, -1)
	e.bumpCounter(target, counterFollowers, -1)
	logger.Info("follow_edge_removed", "requester", requester, "target", target)
	return nil
}

// ApproveFollowRequest turns a pending request into a mutual follow: both
// directions are created together so direct messaging unlocks immediately.
// The four counters are bumped by individual transactions afterwards; a
// crash mid-sequence can leave them transiently inconsistent, which is
// acceptable for advisory display counts.
func (e *Engine) ApproveFollowRequest(target, requester string) error {
	telemetry.TrackOp("social.approve_follow_request")
	ok, err := e.DB.Exists(paths.FollowRequest(target, requester))
	if err != nil {
		return errs.Internal("read follow request", err)
	}
	if !ok {
		return errs.NotFound("no pending follow request from %s", requester)
	}

	ops := []treedb.Op{
		treedb.DelOp(paths.FollowRequest(target, requester)),
		treedb.SetOp(paths.Following(requester, target), []byte(paths.EdgeValue)),
		treedb.SetOp(paths.Follower(target, requester), []byte(paths.EdgeValue)),
		treedb.SetOp(paths.Following(target, requester), []byte(paths.EdgeValue)),
		treedb.SetOp(paths.Follower(requester, target), []byte(paths.EdgeValue)),
		e.Notif.Op(requester, models.Notification{Type: models.NotifFollowAccept, From: target}),
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("approve follow request", err)
	}
	telemetry.NotificationWritten(models.NotifFollowAccept)
	e.bumpCounter(requester, counterFollowing, 1)
	e.bumpCounter(target, counterFollowers, 1)
	e.bumpCounter(target, counterFollowing, 1)
	e.bumpCounter(requester, counterFollowers, 1)
	logger.Info("follow_request_approved", "requester", requester, "target", target)
	return nil
}

// RejectFollowRequest deletes the pending request; the pair returns to none.
func (e *Engine) RejectFollowRequest(target, requester string) error {
	telemetry.TrackOp("social.reject_follow_request")
	ok, err := e.DB.Exists(paths.FollowRequest(target, requester))
	if err != nil {
		return errs.Internal("read follow request", err)
	}
	if !ok {
		return errs.NotFound("no pending follow request from %s", requester)
	}
	if err := e.DB.Delete(paths.FollowRequest(target, requester)); err != nil {
		return errs.Internal("reject follow request", err)
	}
	logger.Info("follow_request_rejected", "requester", requester, "target", target)
	return nil
}

// RemoveFollower severs follower's edge onto target. The caller is expected
// to have confirmed the action with the user; the engine performs the
// deletion unconditionally.
func (e *Engine) RemoveFollower(target, follower string) error {
	telemetry.TrackOp("social.remove_follower")
	ok, err := e.DB.Exists(paths.Follower(target, follower))
	if err != nil {
		return errs.Internal("read follower edge", err)
	}
	if !ok {
		return errs.NotFound("%s does not follow %s", follower, target)
	}
	ops := []treedb.Op{
		treedb.DelOp(paths.Following(follower, target)),
		treedb.DelOp(paths.Follower(target, follower)),
	}
	if err := e.DB.Update(ops); err != nil {
		return errs.Internal("remove follower", err)
	}
	e.bumpCounter(follower, counterFollowing, -1)
	e.bumpCounter(target, counterFollowers, -1)
	logger.Info("follower_removed", "target", target, "follower", follower)
	return nil
}

// IsFollowing reports whether uid follows target.
func (e *Engine) IsFollowing(uid, target string) (bool, error) {
	return e.DB.Exists(paths.Following(uid, target))
}

// IsMutual reports whether both directions of the edge exist; required for
// direct messaging.
func (e *Engine) IsMutual(a, b string) (bool, error) {
	ab, err := e.DB.Exists(paths.Following(a, b))
	if err != nil || !ab {
		return false, err
	}
	return e.DB.Exists(paths.Following(b, a))
}

// Followers lists the uids following target.
func (e *Engine) Followers(target string) ([]string, error) {
	return e.edgeIDs(paths.FollowersPrefix(target))
}

// Following lists the uids that uid follows.
func (e *Engine) Following(uid string) ([]string, error) {
	return e.edgeIDs(paths.FollowingPrefix(uid))
}

// PendingRequests lists pending follow requests addressed to target.
func (e *Engine) PendingRequests(target string) ([]models.FollowRequest, error) {
	rows, err := e.DB.Children(paths.FollowReqsPrefix(target))
	if err != nil {
		return nil, errs.Internal("list follow requests", err)
	}
	out := make([]models.FollowRequest, 0, len(rows))
	for _, kv := range rows {
		var req models.FollowRequest
		if err := json.Unmarshal(kv.Value, &req); err != nil {
			logger.Warn("follow_request_decode_failed", "key", kv.Key, "error", err)
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (e *Engine) edgeIDs(prefix string) ([]string, error) {
	rows, err := e.DB.Children(prefix)
	if err != nil {
		return nil, errs.Internal("list edges", err)
	}
	out := make([]string, 0, len(rows))
	for _, kv := range rows {
		out = append(out, paths.LastSegment(kv.Key))
	}
	return out, nil
}

type userCounter int

const (
	counterFollowers userCounter = iota
	counterFollowing
)

// bumpCounter adjusts one advisory counter on a user record via a
// single-path transaction, flooring at zero. Failures are logged, not
// propagated: the edge write already committed and counts are display data.
func (e *Engine) bumpCounter(uid string, c userCounter, delta int64) {
	var u models.User
	err := e.DB.TxnJSON(paths.User(uid), &u, func(exists bool) error {
		if !exists {
			return treedb.ErrTxnAbort
		}
		switch c {
		case counterFollowers:
			u.FollowersCount += delta
			if u.FollowersCount < 0 {
				u.FollowersCount = 0
			}
		case counterFollowing:
			u.FollowingCount += delta
			if u.FollowingCount < 0 {
				u.FollowingCount = 0
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("follow_counter_bump_failed", "uid", uid, "error", err)
	}
}

func (e *Engine) getUser(uid string) (*models.User, error) {
	buf, err := e.DB.Get(paths.User(uid))
	if err != nil {
		if treedb.IsNotFound(err) {
			return nil, errs.NotFound("user %s", uid)
		}
		return nil, errs.Internal("read user", err)
	}
	var u models.User
	if err := json.Unmarshal(buf, &u); err != nil {
		return nil, errs.Internal("decode user", err)
	}
	return &u, nil
}

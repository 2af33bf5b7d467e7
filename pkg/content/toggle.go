package content

import (
	"encoding/json"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
)

// ToggleLike flips uid's like on a yap. The edge pair commits in one batch;
// the counter moves through a single-path transaction afterwards, floored
// at zero. The two are not coupled: two concurrent toggles from the same
// user can race past the existence read.
func (e *Engine) ToggleLike(yapID, uid string) (bool, error) {
	telemetry.TrackOp("content.toggle_like")
	return e.toggleEdge(yapID, uid, edgeLike)
}

// ToggleReyap flips uid's reyap. Rejected when the yap's author has
// disabled reyaps.
func (e *Engine) ToggleReyap(yapID, uid string) (bool, error) {
	telemetry.TrackOp("content.toggle_reyap")
	return e.toggleEdge(yapID, uid, edgeReyap)
}

type edgeKind int

const (
	edgeLike edgeKind = iota
	edgeReyap
)

func (e *Engine) toggleEdge(yapID, uid string, kind edgeKind) (bool, error) {
	yap, err := e.GetYap(yapID)
	if err != nil {
		return false, err
	}

	if kind == edgeReyap {
		author, aerr := e.authorOf(yap)
		if aerr != nil {
			return false, aerr
		}
		if author.NeverAllowReyaps {
			return false, errs.Authorization("author does not allow reyaps")
		}
	}

	var yapSide, userSide string
	var notifType string
	switch kind {
	case edgeLike:
		yapSide = paths.Like(yapID, uid)
		userSide = paths.UserLike(uid, yapID)
		notifType = models.NotifLike
	case edgeReyap:
		yapSide = paths.Reyap(yapID, uid)
		userSide = paths.UserReyap(uid, yapID)
		notifType = models.NotifReyap
	}

	present, err := e.DB.Exists(userSide)
	if err != nil {
		return false, errs.Internal("read edge", err)
	}

	if present {
		ops := []treedb.Op{treedb.DelOp(yapSide), treedb.DelOp(userSide)}
		if err := e.DB.Update(ops); err != nil {
			return false, errs.Internal("delete edge", err)
		}
		e.bumpYapCounter(yapID, kind, -1)
		return false, nil
	}

	ops := []treedb.Op{
		treedb.SetOp(yapSide, []byte(paths.EdgeValue)),
		treedb.SetOp(userSide, []byte(paths.EdgeValue)),
	}
	if yap.UID != uid {
		ops = append(ops, e.Notif.Op(yap.UID, models.Notification{
			Type:  notifType,
			From:  uid,
			YapID: yapID,
		}))
	}
	if err := e.DB.Update(ops); err != nil {
		return false, errs.Internal("write edge", err)
	}
	if yap.UID != uid {
		telemetry.NotificationWritten(notifType)
	}
	e.bumpYapCounter(yapID, kind, 1)
	return true, nil
}

// bumpYapCounter adjusts likes/reyaps via a single-path transaction,
// flooring at zero. Failures are logged: the edge already committed.
func (e *Engine) bumpYapCounter(yapID string, kind edgeKind, delta int64) {
	var y models.Yap
	err := e.DB.TxnJSON(paths.Yap(yapID), &y, func(exists bool) error {
		if !exists {
			return treedb.ErrTxnAbort
		}
		switch kind {
		case edgeLike:
			y.Likes += delta
			if y.Likes < 0 {
				y.Likes = 0
			}
		case edgeReyap:
			y.Reyaps += delta
			if y.Reyaps < 0 {
				y.Reyaps = 0
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("yap_counter_bump_failed", "yap", yapID, "error", err)
	}
}

func (e *Engine) authorOf(yap *models.Yap) (*models.User, error) {
	buf, err := e.DB.Get(paths.User(yap.UID))
	if err != nil {
		if treedb.IsNotFound(err) {
			return nil, errs.NotFound("user %s", yap.UID)
		}
		return nil, errs.Internal("read author", err)
	}
	var u models.User
	if err := json.Unmarshal(buf, &u); err != nil {
		return nil, errs.Internal("decode author", err)
	}
	return &u, nil
}

package identity

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/store/paths"
	"yappin/pkg/telemetry"
)

// CreateInvite mints a new single-use invite code for creator. Codes are
// uuid-derived and claimed via a transaction so a generator collision (or a
// handcrafted duplicate) surfaces as Conflict instead of an overwrite.
func (e *Engine) CreateInvite(creator string) (*models.InviteCode, error) {
	telemetry.TrackOp("identity.create_invite")
	if creator == "" {
		return nil, errs.Authorization("not signed in")
	}
	code := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	inv := models.InviteCode{
		Code:      code,
		CreatedBy: creator,
		CreatedTS: time.Now().UnixMilli(),
	}
	buf, err := json.Marshal(inv)
	if err != nil {
		return nil, errs.Internal("encode invite", err)
	}
	err = e.DB.Txn(paths.Invite(code), func(cur []byte) ([]byte, error) {
		if cur != nil {
			return nil, errs.Conflict("invite code %s already exists", code)
		}
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("invite_created", "code", code, "creator", creator)
	return &inv, nil
}

// RedeemInvite marks a code used by uid. A code is immutable once used.
func (e *Engine) RedeemInvite(code, uid string) error {
	telemetry.TrackOp("identity.redeem_invite")
	var inv models.InviteCode
	err := e.DB.TxnJSON(paths.Invite(code), &inv, func(exists bool) error {
		if !exists {
			return errs.NotFound("invite code %s", code)
		}
		if inv.Used {
			return errs.Conflict("invite code %s already used", code)
		}
		inv.Used = true
		inv.UsedBy = uid
		inv.UsedTS = time.Now().UnixMilli()
		return nil
	})
	if err != nil {
		telemetry.OpFailed("identity.redeem_invite", errs.KindOf(err).String())
		return err
	}
	logger.Info("invite_redeemed", "code", code, "uid", uid)
	return nil
}

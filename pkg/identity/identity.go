package identity

import (
	"encoding/json"
	"strings"
	"time"

	"yappin/pkg/errs"
	"yappin/pkg/logger"
	"yappin/pkg/models"
	"yappin/pkg/store/paths"
	"yappin/pkg/store/treedb"
	"yappin/pkg/telemetry"
	"yappin/pkg/validation"
)

// Engine owns the user table, the lowercase username index, and invite
// codes. The username index and user record are bidirectional: the index
// entry maps to exactly the uid whose record carries that lowercase name.
type Engine struct {
	DB *treedb.Store
}

func New(db *treedb.Store) *Engine {
	return &Engine{DB: db}
}

type SignupParams struct {
	UID         string
	Username    string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Signup creates exactly one user record per authenticated identity and
// claims the lowercase username. Uniqueness is enforced by a transaction on
// the index path; the user record itself commits afterwards, with a
// compensating index delete if that write fails.
func (e *Engine) Signup(p SignupParams) (*models.User, error) {
	telemetry.TrackOp("identity.signup")
	if p.UID == "" {
		return nil, errs.Validation("uid is required")
	}
	if err := validation.Username(p.Username); err != nil {
		return nil, err
	}
	if err := validation.Email(p.Email); err != nil {
		return nil, err
	}

	lc := strings.ToLower(p.Username)
	err := e.DB.Txn(paths.Username(lc), func(cur []byte) ([]byte, error) {
		if cur != nil {
			return nil, errs.Conflict("username %q already exists", lc)
		}
		return []byte(p.UID), nil
	})
	if err != nil {
		telemetry.OpFailed("identity.signup", errs.KindOf(err).String())
		return nil, err
	}

	user := models.User{
		UID:               p.UID,
		Username:          p.Username,
		LowercaseUsername: lc,
		Email:             p.Email,
		DisplayName:       p.DisplayName,
		PhotoURL:          p.PhotoURL,
		CreatedTS:         time.Now().UnixMilli(),
	}
	buf, err := json.Marshal(user)
	if err != nil {
		return nil, errs.Internal("encode user", err)
	}
	if err := e.DB.Set(paths.User(p.UID), buf); err != nil {
		// roll back the claimed name so the signup can be retried
		_ = e.DB.Delete(paths.Username(lc))
		return nil, errs.Internal("write user record", err)
	}
	logger.Info("user_created", "uid", p.UID, "username", lc)
	return &user, nil
}

// GetUser loads a user record.
func (e *Engine) GetUser(uid string) (*models.User, error) {
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

// LookupUsername resolves a (case-insensitive) username to a uid.
func (e *Engine) LookupUsername(username string) (string, error) {
	buf, err := e.DB.Get(paths.Username(strings.ToLower(username)))
	if err != nil {
		if treedb.IsNotFound(err) {
			return "", errs.NotFound("username %s", username)
		}
		return "", errs.Internal("read username index", err)
	}
	return string(buf), nil
}

type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	PhotoURL    *string
}

// UpdateProfile mutates display fields on the user record.
func (e *Engine) UpdateProfile(uid string, upd ProfileUpdate) error {
	telemetry.TrackOp("identity.update_profile")
	if upd.Bio != nil && len([]rune(*upd.Bio)) > 160 {
		return errs.Validation("bio must be at most 160 characters")
	}
	var u models.User
	return e.DB.TxnJSON(paths.User(uid), &u, func(exists bool) error {
		if !exists {
			return errs.NotFound("user %s", uid)
		}
		if upd.DisplayName != nil {
			u.DisplayName = *upd.DisplayName
		}
		if upd.Bio != nil {
			u.Bio = *upd.Bio
		}
		if upd.PhotoURL != nil {
			u.PhotoURL = *upd.PhotoURL
		}
		return nil
	})
}

type SettingsUpdate struct {
	RequireApproval  *bool
	NeverAllowReyaps *bool
}

// UpdateSettings mutates privacy switches on the user record.
func (e *Engine) UpdateSettings(uid string, upd SettingsUpdate) error {
	telemetry.TrackOp("identity.update_settings")
	var u models.User
	return e.DB.TxnJSON(paths.User(uid), &u, func(exists bool) error {
		if !exists {
			return errs.NotFound("user %s", uid)
		}
		if upd.RequireApproval != nil {
			u.Privacy.RequireApproval = *upd.RequireApproval
		}
		if upd.NeverAllowReyaps != nil {
			u.NeverAllowReyaps = *upd.NeverAllowReyaps
		}
		return nil
	})
}

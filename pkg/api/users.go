package api

import (
	"github.com/valyala/fasthttp"

	"yappin/pkg/api/router"
	"yappin/pkg/identity"
)

func (a *API) Signup(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoURL"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	u, err := a.Identity.Signup(identity.SignupParams{
		UID:         uid,
		Username:    body.Username,
		Email:       body.Email,
		DisplayName: body.DisplayName,
		PhotoURL:    body.PhotoURL,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, u)
}

func (a *API) GetUser(ctx *fasthttp.RequestCtx) {
	u, err := a.Identity.GetUser(router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, u)
}

func (a *API) LookupUsername(ctx *fasthttp.RequestCtx) {
	uid, err := a.Identity.LookupUsername(router.Param(ctx, "username"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"uid": uid})
}

func (a *API) UpdateProfile(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		DisplayName *string `json:"displayName"`
		Bio         *string `json:"bio"`
		PhotoURL    *string `json:"photoURL"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	err := a.Identity.UpdateProfile(uid, identity.ProfileUpdate{
		DisplayName: body.DisplayName,
		Bio:         body.Bio,
		PhotoURL:    body.PhotoURL,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "updated"})
}

func (a *API) UpdateSettings(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		RequireApproval  *bool `json:"requireApproval"`
		NeverAllowReyaps *bool `json:"neverAllowReyaps"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	err := a.Identity.UpdateSettings(uid, identity.SettingsUpdate{
		RequireApproval:  body.RequireApproval,
		NeverAllowReyaps: body.NeverAllowReyaps,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "updated"})
}

func (a *API) CreateInvite(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	inv, err := a.Identity.CreateInvite(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, inv)
}

func (a *API) RedeemInvite(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Identity.RedeemInvite(router.Param(ctx, "code"), uid); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "redeemed"})
}

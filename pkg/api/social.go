package api

import (
	"github.com/valyala/fasthttp"

	"yappin/pkg/api/router"
)

func (a *API) ToggleFollow(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	state, err := a.Social.ToggleFollow(uid, router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"state": string(state)})
}

func (a *API) ApproveFollowRequest(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Social.ApproveFollowRequest(uid, router.Param(ctx, "uid")); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "approved"})
}

func (a *API) RejectFollowRequest(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Social.RejectFollowRequest(uid, router.Param(ctx, "uid")); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "rejected"})
}

func (a *API) RemoveFollower(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Social.RemoveFollower(uid, router.Param(ctx, "uid")); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "removed"})
}

func (a *API) Followers(ctx *fasthttp.RequestCtx) {
	ids, err := a.Social.Followers(router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"followers": ids})
}

func (a *API) Following(ctx *fasthttp.RequestCtx) {
	ids, err := a.Social.Following(router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"following": ids})
}

func (a *API) PendingFollowRequests(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	reqs, err := a.Social.PendingRequests(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"requests": reqs})
}

package api

import (
	"github.com/valyala/fasthttp"

	"yappin/pkg/api/router"
	"yappin/pkg/groups"
	"yappin/pkg/models"
)

func (a *API) CreateGroup(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		Name     string `json:"name"`
		Desc     string `json:"desc"`
		Topic    string `json:"topic"`
		IsPublic bool   `json:"isPublic"`
		ImageURL string `json:"imageURL"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	creator, err := a.Identity.GetUser(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	g, err := a.Groups.CreateGroup(groups.CreateParams{
		Creator:  *creator,
		Name:     body.Name,
		Desc:     body.Desc,
		Topic:    body.Topic,
		IsPublic: body.IsPublic,
		ImageURL: body.ImageURL,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, g)
}

func (a *API) GetGroup(ctx *fasthttp.RequestCtx) {
	g, err := a.Groups.GetGroup(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, g)
}

func (a *API) DeleteGroup(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Groups.DeleteGroup(router.Param(ctx, "id"), uid); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) JoinGroup(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Groups.JoinGroup(router.Param(ctx, "id"), uid); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "joined"})
}

func (a *API) LeaveGroup(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Groups.LeaveGroup(router.Param(ctx, "id"), uid); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "left"})
}

func (a *API) RequestJoin(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	user, err := a.Identity.GetUser(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	if err := a.Groups.RequestJoin(router.Param(ctx, "id"), *user); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "requested"})
}

func (a *API) ApproveJoinRequest(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	err := a.Groups.ApproveJoinRequest(router.Param(ctx, "id"), uid, router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "approved"})
}

func (a *API) RejectJoinRequest(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	err := a.Groups.RejectJoinRequest(router.Param(ctx, "id"), uid, router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "rejected"})
}

func (a *API) PendingJoinRequests(ctx *fasthttp.RequestCtx) {
	reqs, err := a.Groups.PendingJoinRequests(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"requests": reqs})
}

func (a *API) GroupMembers(ctx *fasthttp.RequestCtx) {
	members, err := a.Groups.Members(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"members": members})
}

func (a *API) PromoteMember(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	err := a.Groups.PromoteMember(router.Param(ctx, "id"), uid, router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "promoted"})
}

func (a *API) PostGroupYap(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		Text  string             `json:"text"`
		Media []models.MediaItem `json:"media"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	author, err := a.Identity.GetUser(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	yap, err := a.Groups.PostGroupYap(router.Param(ctx, "id"), *author, body.Text, body.Media)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, yap)
}

func (a *API) GroupYaps(ctx *fasthttp.RequestCtx) {
	yaps, err := a.Groups.GroupYaps(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"yaps": yaps})
}

func (a *API) UserGroups(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	ids, err := a.Groups.UserGroups(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"groups": ids})
}

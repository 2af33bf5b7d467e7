package api

import (
	"github.com/valyala/fasthttp"

	"yappin/pkg/api/router"
	"yappin/pkg/content"
	"yappin/pkg/models"
)

func (a *API) CreateYap(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		Text    string             `json:"text"`
		Media   []models.MediaItem `json:"media"`
		ReplyTo string             `json:"replyTo"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	author, err := a.Identity.GetUser(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	yap, err := a.Content.CreateYap(content.CreateParams{
		Author:  *author,
		Text:    body.Text,
		Media:   body.Media,
		ReplyTo: body.ReplyTo,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, yap)
}

func (a *API) GetYap(ctx *fasthttp.RequestCtx) {
	yap, err := a.Content.GetYap(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, yap)
}

func (a *API) DeleteYap(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Content.DeleteYap(router.Param(ctx, "id"), uid); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) Replies(ctx *fasthttp.RequestCtx) {
	yaps, err := a.Content.Replies(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"replies": yaps})
}

func (a *API) Likers(ctx *fasthttp.RequestCtx) {
	ids, err := a.Content.Likers(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"likers": ids})
}

func (a *API) UserYaps(ctx *fasthttp.RequestCtx) {
	yaps, err := a.Content.UserYaps(router.Param(ctx, "uid"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"yaps": yaps})
}

func (a *API) ToggleLike(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	liked, err := a.Content.ToggleLike(router.Param(ctx, "id"), uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]bool{"liked": liked})
}

func (a *API) ToggleReyap(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	reyapped, err := a.Content.ToggleReyap(router.Param(ctx, "id"), uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]bool{"reyapped": reyapped})
}

package api

import (
	"github.com/valyala/fasthttp"

	"yappin/pkg/api/router"
)

func (a *API) Notifications(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	notifs, err := a.Notif.List(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"notifications": notifs})
}

func (a *API) UnreadNotifications(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	notifs, err := a.Notif.Unread(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"notifications": notifs})
}

func (a *API) MarkNotificationRead(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Notif.MarkRead(uid, router.Param(ctx, "id")); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "read"})
}

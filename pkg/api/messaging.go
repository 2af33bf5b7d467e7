package api

import (
	"github.com/valyala/fasthttp"

	"yappin/pkg/api/router"
	"yappin/pkg/messaging"
	"yappin/pkg/models"
)

func (a *API) StartConversation(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		Other string `json:"other"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	convID, err := a.Messaging.StartConversation(uid, body.Other)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, map[string]string{"conversationId": convID})
}

func (a *API) SendMessage(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	var body struct {
		Receiver string             `json:"receiver"`
		Text     string             `json:"text"`
		Media    []models.MediaItem `json:"media"`
	}
	if !decodeBody(ctx, &body) {
		return
	}
	msg, err := a.Messaging.SendMessage(messaging.SendParams{
		Sender:   uid,
		Receiver: body.Receiver,
		Text:     body.Text,
		Media:    body.Media,
	})
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, msg)
}

func (a *API) Conversations(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	convs, err := a.Messaging.Conversations(uid)
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"conversations": convs})
}

func (a *API) Messages(ctx *fasthttp.RequestCtx) {
	if _, ok := requireIdentity(ctx); !ok {
		return
	}
	msgs, err := a.Messaging.Messages(router.Param(ctx, "id"))
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"messages": msgs})
}

func (a *API) MarkConversationRead(ctx *fasthttp.RequestCtx) {
	uid, ok := requireIdentity(ctx)
	if !ok {
		return
	}
	if err := a.Messaging.MarkConversationRead(uid, router.Param(ctx, "id")); err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "read"})
}

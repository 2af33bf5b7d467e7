package api

import (
	"github.com/valyala/fasthttp"

	"yappin/pkg/api/router"
)

// allowed upload kinds; the kind segments the media directory.
var mediaKinds = map[string]struct{}{
	"image": {},
	"video": {},
}

func (a *API) UploadMedia(ctx *fasthttp.RequestCtx) {
	if _, ok := requireIdentity(ctx); !ok {
		return
	}
	kind := router.Param(ctx, "kind")
	if _, ok := mediaKinds[kind]; !ok {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "unknown media kind")
		return
	}
	url, err := a.Media.Upload(kind, ctx.PostBody())
	if err != nil {
		router.WriteError(ctx, err)
		return
	}
	router.WriteJSON(ctx, fasthttp.StatusCreated, map[string]string{"url": url, "type": kind})
}

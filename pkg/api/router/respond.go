package router

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	"yappin/pkg/errs"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	b, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":"encoding failed"}`)
		return
	}
	ctx.SetBody(b)
}

// WriteJSONError writes a JSON error body {"error": msg} with the status.
func WriteJSONError(ctx *fasthttp.RequestCtx, status int, msg string) {
	WriteJSON(ctx, status, map[string]string{"error": msg})
}

// WriteError maps an error's kind onto an HTTP status and writes it.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	status := fasthttp.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = fasthttp.StatusBadRequest
	case errs.KindAuthorization:
		status = fasthttp.StatusForbidden
	case errs.KindNotFound:
		status = fasthttp.StatusNotFound
	case errs.KindConflict:
		status = fasthttp.StatusConflict
	}
	if status == fasthttp.StatusInternalServerError {
		WriteJSONError(ctx, status, "internal error")
		return
	}
	WriteJSONError(ctx, status, err.Error())
}

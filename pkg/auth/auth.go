package auth

import (
	"strings"

	"github.com/valyala/fasthttp"

	"yappin/pkg/logger"
)

// SecConfig carries the API security settings.
type SecConfig struct {
	APIKeys map[string]struct{}
	RPS     float64
	Burst   int
}

// Identity returns the acting user id from the request, or "" when the
// caller is not signed in. The service trusts the fronting auth layer to
// have verified the header (the authentication UI itself is an external
// collaborator).
func Identity(ctx *fasthttp.RequestCtx) string {
	return strings.TrimSpace(string(ctx.Request.Header.Peek("X-Yappin-User")))
}

// Middleware authenticates the API key, applies per-identifier rate
// limiting, and passes health and metrics probes through unauthenticated.
func Middleware(cfg SecConfig) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	limiters := &limiterPool{cfg: cfg}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			path := string(ctx.Path())
			if (path == "/healthz" || path == "/metrics") && string(ctx.Method()) == fasthttp.MethodGet {
				next(ctx)
				return
			}

			key := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Yappin-Key")))
			if len(cfg.APIKeys) > 0 {
				if _, ok := cfg.APIKeys[key]; !ok {
					logger.Warn("request_unauthorized", "path", path, "remote", ctx.RemoteAddr().String())
					ctx.SetStatusCode(fasthttp.StatusUnauthorized)
					ctx.SetContentType("application/json")
					ctx.SetBodyString(`{"error":"unauthorized"}`)
					return
				}
			}

			id := key
			if id == "" {
				id = ctx.RemoteIP().String()
			}
			if !limiters.get(id).Allow() {
				ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
				ctx.SetContentType("application/json")
				ctx.SetBodyString(`{"error":"rate limit exceeded"}`)
				return
			}

			next(ctx)
		}
	}
}

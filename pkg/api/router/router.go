package router

import (
	"strings"

	"github.com/valyala/fasthttp"
)

// Router is a minimal fasthttp router supporting parameterised paths using
// {name} segments, dispatching by HTTP method.
type Router struct {
	routes   map[string][]route
	notFound fasthttp.RequestHandler
}

type route struct {
	segments []segment
	handler  fasthttp.RequestHandler
}

type segment struct {
	name    string
	isParam bool
}

func New() *Router {
	return &Router{routes: make(map[string][]route)}
}

// Handler satisfies the fasthttp.Server handler interface.
func (r *Router) Handler(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := string(ctx.Path())
	for _, rt := range r.routes[method] {
		if values, ok := match(path, rt.segments); ok {
			for k, v := range values {
				ctx.SetUserValue(k, v)
			}
			rt.handler(ctx)
			return
		}
	}
	if r.notFound != nil {
		r.notFound(ctx)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNotFound)
}

func (r *Router) GET(path string, h fasthttp.RequestHandler)    { r.add("GET", path, h) }
func (r *Router) POST(path string, h fasthttp.RequestHandler)   { r.add("POST", path, h) }
func (r *Router) PUT(path string, h fasthttp.RequestHandler)    { r.add("PUT", path, h) }
func (r *Router) PATCH(path string, h fasthttp.RequestHandler)  { r.add("PATCH", path, h) }
func (r *Router) DELETE(path string, h fasthttp.RequestHandler) { r.add("DELETE", path, h) }

// NotFound registers a handler for unmatched routes.
func (r *Router) NotFound(h fasthttp.RequestHandler) { r.notFound = h }

func (r *Router) add(method, path string, h fasthttp.RequestHandler) {
	r.routes[method] = append(r.routes[method], route{segments: parse(path), handler: h})
}

func parse(path string) []segment {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			segs = append(segs, segment{name: p[1 : len(p)-1], isParam: true})
			continue
		}
		segs = append(segs, segment{name: p})
	}
	return segs
}

func match(path string, segs []segment) (map[string]string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != len(segs) {
		return nil, false
	}
	var values map[string]string
	for i, s := range segs {
		if s.isParam {
			if values == nil {
				values = make(map[string]string)
			}
			values[s.name] = parts[i]
			continue
		}
		if s.name != parts[i] {
			return nil, false
		}
	}
	return values, true
}

// Param returns a path parameter captured by a {name} segment.
func Param(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

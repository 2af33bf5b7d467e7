package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"yappin/pkg/api/router"
	"yappin/pkg/auth"
	"yappin/pkg/content"
	"yappin/pkg/groups"
	"yappin/pkg/identity"
	"yappin/pkg/media"
	"yappin/pkg/messaging"
	"yappin/pkg/notify"
	"yappin/pkg/social"
)

// API holds the engines behind the HTTP surface.
type API struct {
	Identity  *identity.Engine
	Social    *social.Engine
	Content   *content.Engine
	Groups    *groups.Engine
	Messaging *messaging.Engine
	Notif     *notify.Notifier
	Media     media.Uploader
}

// wrapHTTPHandler adapts a net/http handler onto fasthttp.
func wrapHTTPHandler(h http.Handler) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(h)
}

// RegisterRoutes wires all API routes onto the provided router.
func (a *API) RegisterRoutes(r *router.Router) {
	// identity
	r.POST("/v1/users", a.Signup)
	r.GET("/v1/users/{uid}", a.GetUser)
	r.PATCH("/v1/users/me/profile", a.UpdateProfile)
	r.PATCH("/v1/users/me/settings", a.UpdateSettings)
	r.GET("/v1/usernames/{username}", a.LookupUsername)
	r.POST("/v1/invites", a.CreateInvite)
	r.POST("/v1/invites/{code}/redeem", a.RedeemInvite)

	// follow graph
	r.POST("/v1/users/{uid}/follow", a.ToggleFollow)
	r.POST("/v1/follow-requests/{uid}/approve", a.ApproveFollowRequest)
	r.POST("/v1/follow-requests/{uid}/reject", a.RejectFollowRequest)
	r.DELETE("/v1/users/me/followers/{uid}", a.RemoveFollower)
	r.GET("/v1/users/{uid}/followers", a.Followers)
	r.GET("/v1/users/{uid}/following", a.Following)
	r.GET("/v1/users/me/follow-requests", a.PendingFollowRequests)

	// yaps
	r.POST("/v1/yaps", a.CreateYap)
	r.GET("/v1/yaps/{id}", a.GetYap)
	r.DELETE("/v1/yaps/{id}", a.DeleteYap)
	r.GET("/v1/yaps/{id}/replies", a.Replies)
	r.GET("/v1/yaps/{id}/likers", a.Likers)
	r.POST("/v1/yaps/{id}/like", a.ToggleLike)
	r.POST("/v1/yaps/{id}/reyap", a.ToggleReyap)
	r.GET("/v1/users/{uid}/yaps", a.UserYaps)

	// groups
	r.POST("/v1/groups", a.CreateGroup)
	r.GET("/v1/groups/{id}", a.GetGroup)
	r.DELETE("/v1/groups/{id}", a.DeleteGroup)
	r.POST("/v1/groups/{id}/join", a.JoinGroup)
	r.POST("/v1/groups/{id}/leave", a.LeaveGroup)
	r.POST("/v1/groups/{id}/requests", a.RequestJoin)
	r.POST("/v1/groups/{id}/requests/{uid}/approve", a.ApproveJoinRequest)
	r.POST("/v1/groups/{id}/requests/{uid}/reject", a.RejectJoinRequest)
	r.GET("/v1/groups/{id}/requests", a.PendingJoinRequests)
	r.GET("/v1/groups/{id}/members", a.GroupMembers)
	r.POST("/v1/groups/{id}/members/{uid}/promote", a.PromoteMember)
	r.POST("/v1/groups/{id}/yaps", a.PostGroupYap)
	r.GET("/v1/groups/{id}/yaps", a.GroupYaps)
	r.GET("/v1/users/me/groups", a.UserGroups)

	// messaging
	r.POST("/v1/conversations", a.StartConversation)
	r.GET("/v1/conversations", a.Conversations)
	r.GET("/v1/conversations/{id}/messages", a.Messages)
	r.POST("/v1/conversations/{id}/read", a.MarkConversationRead)
	r.POST("/v1/messages", a.SendMessage)

	// notifications
	r.GET("/v1/notifications", a.Notifications)
	r.GET("/v1/notifications/unread", a.UnreadNotifications)
	r.POST("/v1/notifications/{id}/read", a.MarkNotificationRead)

	// media
	r.POST("/v1/media/{kind}", a.UploadMedia)

	// probes
	r.GET("/healthz", a.Health)
	r.GET("/metrics", wrapHTTPHandler(promhttp.Handler()))
}

// Handler returns the fasthttp handler for the Yappin' API with the
// security middleware applied.
func (a *API) Handler(sec auth.SecConfig) fasthttp.RequestHandler {
	r := router.New()
	a.RegisterRoutes(r)
	return auth.Middleware(sec)(r.Handler)
}

func (a *API) Health(ctx *fasthttp.RequestCtx) {
	router.WriteJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

// requireIdentity resolves the acting user or writes a 401. The bool
// reports whether the handler may proceed.
func requireIdentity(ctx *fasthttp.RequestCtx) (string, bool) {
	uid := auth.Identity(ctx)
	if uid == "" {
		router.WriteJSONError(ctx, fasthttp.StatusUnauthorized, "not signed in")
		return "", false
	}
	return uid, true
}

func decodeBody(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

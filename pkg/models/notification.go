package models

// Notification types written by the engines.
const (
	NotifFollow        = "follow"
	NotifFollowRequest = "follow_request"
	NotifFollowAccept  = "follow_accept"
	NotifLike          = "like"
	NotifReyap         = "reyap"
	NotifReply         = "reply"
	NotifGroupJoinReq  = "group_join_request"
	NotifGroupYap      = "group_yap"
	NotifMessage       = "message"
)

// Notification is append-only and never deduplicated: one record per
// (event, recipient) pair.
type Notification struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	From    string `json:"from"`
	YapID   string `json:"yap_id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
	ConvID  string `json:"conv_id,omitempty"`
	Text    string `json:"text,omitempty"`
	TS      int64  `json:"ts"`
	Read    bool   `json:"read"`
}

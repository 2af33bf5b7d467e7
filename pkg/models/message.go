package models

// Conversation is one participant's metadata mirror of a two-party thread.
// The two mirrors share LastMessage/LastMessageTS; UnreadCount is per-reader.
type Conversation struct {
	OtherUID      string `json:"other_uid"`
	LastMessage   string `json:"last_message"`
	LastMessageTS int64  `json:"last_message_ts"`
	UnreadCount   int64  `json:"unread_count"`
}

type Message struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"sender_id"`
	ReceiverID string      `json:"receiver_id"`
	Text       string      `json:"text,omitempty"`
	Media      []MediaItem `json:"media,omitempty"`
	TS         int64       `json:"ts"`
	Read       bool        `json:"read"`
}

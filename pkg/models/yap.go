package models

// MediaItem is one attachment; order in the slice is display order.
type MediaItem struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Yap struct {
	ID           string      `json:"id"`
	UID          string      `json:"uid"`
	Username     string      `json:"username"`
	DisplayName  string      `json:"display_name,omitempty"`
	UserPhotoURL string      `json:"user_photo_url,omitempty"`
	Text         string      `json:"text,omitempty"`
	Media        []MediaItem `json:"media,omitempty"`
	TS           int64       `json:"ts"`
	Likes        int64       `json:"likes"`
	Reyaps       int64       `json:"reyaps"`
	Replies      int64       `json:"replies"`
	// ReplyTo links a reply to its parent yap. Replies are never mirrored
	// into the author's top-level listing.
	ReplyTo string `json:"reply_to,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}

// IsReply reports whether the yap is threaded under a parent.
func (y *Yap) IsReply() bool { return y.ReplyTo != "" }

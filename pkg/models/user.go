package models

// Privacy holds per-user visibility settings.
type Privacy struct {
	RequireApproval bool `json:"require_approval"`
}

type User struct {
	UID               string  `json:"uid"`
	Username          string  `json:"username"`
	LowercaseUsername string  `json:"lowercase_username"`
	Email             string  `json:"email"`
	DisplayName       string  `json:"display_name,omitempty"`
	PhotoURL          string  `json:"photo_url,omitempty"`
	Bio               string  `json:"bio"`
	CreatedTS         int64   `json:"created_ts"`
	FollowersCount    int64   `json:"followers_count"`
	FollowingCount    int64   `json:"following_count"`
	Privacy           Privacy `json:"privacy"`
	NeverAllowReyaps  bool    `json:"never_allow_reyaps,omitempty"`
}

// FollowRequest exists only while pending; approval or rejection removes it.
type FollowRequest struct {
	RequesterUID string `json:"requester_uid"`
	RequestedTS  int64  `json:"requested_ts"`
	Status       string `json:"status"`
}

const FollowRequestPending = "pending"

package models

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
	IsPublic    bool   `json:"is_public"`
	CreatedBy   string `json:"created_by"`
	CreatedTS   int64  `json:"created_ts"`
	MemberCount int64  `json:"member_count"`
	ImageURL    string `json:"image_url,omitempty"`
}

type GroupMember struct {
	UID      string `json:"uid"`
	JoinedTS int64  `json:"joined_ts"`
	Role     string `json:"role"`
}

// GroupJoinRequest is only meaningful for private groups.
type GroupJoinRequest struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	RequestedTS int64  `json:"requested_ts"`
	Status      string `json:"status"`
}

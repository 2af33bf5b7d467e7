package models

// InviteCode is immutable once Used is set.
type InviteCode struct {
	Code      string `json:"code"`
	CreatedBy string `json:"created_by"`
	CreatedTS int64  `json:"created_ts"`
	Used      bool   `json:"used"`
	UsedBy    string `json:"used_by,omitempty"`
	UsedTS    int64  `json:"used_ts,omitempty"`
}

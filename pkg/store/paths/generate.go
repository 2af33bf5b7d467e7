package paths

import (
	"fmt"
	"strings"
)

func User(uid string) string            { return fmt.Sprintf(UserKey, uid) }
func Username(lc string) string         { return fmt.Sprintf(UsernameKey, lc) }
func Yap(id string) string              { return fmt.Sprintf(YapKey, id) }
func UserYap(uid, id string) string     { return fmt.Sprintf(UserYapKey, uid, id) }
func YapReply(parent, id string) string { return fmt.Sprintf(YapReplyKey, parent, id) }

func Like(yapID, uid string) string      { return fmt.Sprintf(LikeKey, yapID, uid) }
func UserLike(uid, yapID string) string  { return fmt.Sprintf(UserLikeKey, uid, yapID) }
func Reyap(yapID, uid string) string     { return fmt.Sprintf(ReyapKey, yapID, uid) }
func UserReyap(uid, yapID string) string { return fmt.Sprintf(UserReyapKey, uid, yapID) }

func Following(uid, target string) string     { return fmt.Sprintf(FollowingKey, uid, target) }
func Follower(target, uid string) string      { return fmt.Sprintf(FollowerKey, target, uid) }
func FollowRequest(target, uid string) string { return fmt.Sprintf(FollowRequestKey, target, uid) }

func Group(id string) string              { return fmt.Sprintf(GroupKey, id) }
func GroupMember(id, uid string) string   { return fmt.Sprintf(GroupMemberKey, id, uid) }
func UserGroup(uid, id string) string     { return fmt.Sprintf(UserGroupKey, uid, id) }
func GroupJoin(id, uid string) string     { return fmt.Sprintf(GroupJoinKey, id, uid) }
func GroupYap(id, yapID string) string    { return fmt.Sprintf(GroupYapKey, id, yapID) }

func Conversation(uid, convID string) string { return fmt.Sprintf(ConversationKey, uid, convID) }
func Message(convID, pushID string) string   { return fmt.Sprintf(MessageKey, convID, pushID) }

func Notification(uid, pushID string) string { return fmt.Sprintf(NotificationKey, uid, pushID) }

func Invite(code string) string { return fmt.Sprintf(InviteKey, code) }

// prefix builders for child scans

func YapRepliesPrefix(parent string) string  { return fmt.Sprintf("yr:%s:", parent) }
func LikesPrefix(yapID string) string        { return fmt.Sprintf("lk:%s:", yapID) }
func ReyapsPrefix(yapID string) string       { return fmt.Sprintf("ry:%s:", yapID) }
func UserYapsPrefix(uid string) string       { return fmt.Sprintf("uy:%s:", uid) }
func UserLikesPrefix(uid string) string      { return fmt.Sprintf("ulk:%s:", uid) }
func UserReyapsPrefix(uid string) string     { return fmt.Sprintf("ury:%s:", uid) }
func FollowingPrefix(uid string) string      { return fmt.Sprintf("fg:%s:", uid) }
func FollowersPrefix(target string) string   { return fmt.Sprintf("fr:%s:", target) }
func FollowReqsPrefix(target string) string  { return fmt.Sprintf("freq:%s:", target) }
func GroupMembersPrefix(id string) string    { return fmt.Sprintf("gm:%s:", id) }
func UserGroupsPrefix(uid string) string     { return fmt.Sprintf("ug:%s:", uid) }
func GroupJoinsPrefix(id string) string      { return fmt.Sprintf("gjr:%s:", id) }
func GroupYapsPrefix(id string) string       { return fmt.Sprintf("gy:%s:", id) }
func ConversationsPrefix(uid string) string  { return fmt.Sprintf("cv:%s:", uid) }
func MessagesPrefix(convID string) string    { return fmt.Sprintf("ms:%s:", convID) }
func NotificationsPrefix(uid string) string  { return fmt.Sprintf("nt:%s:", uid) }
func UsersPrefix() string                    { return "u:" }
func YapsPrefix() string                     { return "y:" }
func GroupsPrefix() string                   { return "g:" }

// LastSegment returns the final ":"-separated segment of a key. Edge scans
// use it to recover the child id from a full key.
func LastSegment(key string) string {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return key
	}
	return key[i+1:]
}

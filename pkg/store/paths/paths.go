package paths

const (
	// notation dictionary for key formats:
	// u    = user
	// un   = username index
	// y    = yap
	// uy   = user's top-level yap mirror
	// yr   = reply edge under a parent yap
	// lk   = like edge (yap side)
	// ulk  = like edge (user side)
	// ry   = reyap edge (yap side)
	// ury  = reyap edge (user side)
	// fg   = following edge
	// fr   = follower edge
	// freq = pending follow request
	// g    = group
	// gm   = group membership
	// ug   = user's group back-index
	// gjr  = group join request
	// gy   = group yap mirror
	// cv   = conversation metadata mirror (per reader)
	// ms   = message
	// nt   = notification
	// iv   = invite code
	// All keys are lowercase; segments are separated by ":"
	// <...> = variable segment (e.g. <uid>, <yap_id>)

	UserKey     = "u:%s"  // u:<uid>
	UsernameKey = "un:%s" // un:<lowercase_username>

	YapKey      = "y:%s"     // y:<yap_id>
	UserYapKey  = "uy:%s:%s" // uy:<uid>:<yap_id>
	YapReplyKey = "yr:%s:%s" // yr:<parent_id>:<reply_id>

	LikeKey      = "lk:%s:%s"  // lk:<yap_id>:<uid>
	UserLikeKey  = "ulk:%s:%s" // ulk:<uid>:<yap_id>
	ReyapKey     = "ry:%s:%s"  // ry:<yap_id>:<uid>
	UserReyapKey = "ury:%s:%s" // ury:<uid>:<yap_id>

	FollowingKey     = "fg:%s:%s"   // fg:<uid>:<target_uid>
	FollowerKey      = "fr:%s:%s"   // fr:<target_uid>:<uid>
	FollowRequestKey = "freq:%s:%s" // freq:<target_uid>:<requester_uid>

	GroupKey       = "g:%s"      // g:<group_id>
	GroupMemberKey = "gm:%s:%s"  // gm:<group_id>:<uid>
	UserGroupKey   = "ug:%s:%s"  // ug:<uid>:<group_id>
	GroupJoinKey   = "gjr:%s:%s" // gjr:<group_id>:<uid>
	GroupYapKey    = "gy:%s:%s"  // gy:<group_id>:<yap_id>

	ConversationKey = "cv:%s:%s" // cv:<uid>:<conversation_id>
	MessageKey      = "ms:%s:%s" // ms:<conversation_id>:<push_id>

	NotificationKey = "nt:%s:%s" // nt:<recipient_uid>:<push_id>

	InviteKey = "iv:%s" // iv:<code>
)

// EdgeValue marks a bare membership/edge key. The edge's presence is the
// fact; the value is a constant.
const EdgeValue = "1"

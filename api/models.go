package api

// Villa is a villa's profile.
type Villa struct {
	VillaID        uint64   `json:"villa_id"`
	Name           string   `json:"name"`
	VillaAvatarURL string   `json:"villa_avatar_url"`
	OwnerUID       uint64   `json:"owner_uid"`
	IsOfficial     bool     `json:"is_official"`
	Introduce      string   `json:"introduce"`
	CategoryID     int      `json:"category_id"`
	Tags           []string `json:"tags"`
}

// MemberBasic is a member's profile summary.
type MemberBasic struct {
	UID       uint64 `json:"uid"`
	Nickname  string `json:"nickname"`
	Introduce string `json:"introduce"`
	AvatarURL string `json:"avatar_url"`
}

// MemberRole is one role a member holds.
type MemberRole struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	VillaID   uint64 `json:"villa_id"`
	Color     string `json:"color"`
	RoleType  string `json:"role_type"`
	IsAllRoom bool   `json:"is_all_room"`
}

// Member is a villa member with roles.
type Member struct {
	Basic      MemberBasic  `json:"basic"`
	RoleIDList []uint64     `json:"role_id_list"`
	JoinedAt   int64        `json:"joined_at,string"`
	RoleList   []MemberRole `json:"role_list"`
}

// MemberList is one page of a villa's member roster.
type MemberList struct {
	List       []Member `json:"list"`
	NextOffset string   `json:"next_offset_str"`
}

// Group is a room group inside a villa.
type Group struct {
	GroupID   uint64 `json:"group_id"`
	GroupName string `json:"group_name"`
}

// AuditStatus values for Audit submissions.
const (
	AuditContentText  = "AuditContentTypeText"
	AuditContentImage = "AuditContentTypeImage"
)

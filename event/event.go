// Package event defines the typed events the Villa platform delivers
// over webhook callbacks, and the decoder that turns a raw callback
// body into one of them.
package event

import (
	"encoding/json"

	"github.com/keepmind9/villabot/message"
)

// Kind is the platform's integer event type discriminator.
type Kind int

// Event kinds delivered by the platform. Zero is reserved for payloads
// whose type this version does not recognize.
const (
	KindUnknown          Kind = 0
	KindJoinVilla        Kind = 1
	KindSendMessage      Kind = 2
	KindCreateRobot      Kind = 3
	KindDeleteRobot      Kind = 4
	KindAddQuickEmoticon Kind = 5
	KindAuditCallback    Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindJoinVilla:
		return "JoinVilla"
	case KindSendMessage:
		return "SendMessage"
	case KindCreateRobot:
		return "CreateRobot"
	case KindDeleteRobot:
		return "DeleteRobot"
	case KindAddQuickEmoticon:
		return "AddQuickEmoticon"
	case KindAuditCallback:
		return "AuditCallback"
	default:
		return "Unknown"
	}
}

// Audit results carried by AuditCallback events.
const (
	AuditCompatibility = 0
	AuditPass          = 1
	AuditReject        = 2
)

// Command is one preset command of a bot template.
type Command struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// Template is the bot template metadata the platform attaches to every
// event.
type Template struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Desc     string    `json:"desc,omitempty"`
	Icon     string    `json:"icon"`
	Commands []Command `json:"commands,omitempty"`
}

// Robot identifies which bot instance, in which villa, received the
// event. It identifies the origin only; the receiving Identity is
// owned by the registry.
type Robot struct {
	VillaID  uint64   `json:"villa_id"`
	Template Template `json:"template"`
}

// Meta is the envelope every event variant shares.
type Meta struct {
	ID        string `json:"id"`
	Type      Kind   `json:"type"`
	CreatedAt int64  `json:"created_at"`
	SendAt    int64  `json:"send_at"`
	Robot     Robot  `json:"robot"`
}

// GetMeta returns the shared envelope; it lets variants satisfy Event
// by embedding. The name avoids colliding with the embedded field.
func (m *Meta) GetMeta() *Meta { return m }

// Event is one decoded callback. Exactly one concrete variant backs
// every value.
type Event interface {
	Kind() Kind
	Name() string
	GetMeta() *Meta
}

// JoinVilla reports a new member joining the villa.
type JoinVilla struct {
	Meta
	JoinUID          uint64 `json:"join_uid"`
	JoinUserNickname string `json:"join_user_nickname"`
	JoinAt           int64  `json:"join_at"`
	VillaID          uint64 `json:"villa_id"`
}

func (JoinVilla) Kind() Kind   { return KindJoinVilla }
func (JoinVilla) Name() string { return "JoinVilla" }

// SendMessage reports a member message that mentioned the bot.
type SendMessage struct {
	Meta
	FromUserID uint64 `json:"from_user_id"`
	RoomID     uint64 `json:"room_id"`
	ObjectName int    `json:"object_name"`
	Nickname   string `json:"nickname"`
	MsgUID     string `json:"msg_uid"`
	BotMsgID   string `json:"bot_msg_id,omitempty"`
	VillaID    uint64 `json:"villa_id"`
	BotID      string `json:"bot_id"`

	// RawContent is the MsgContentInfo as delivered. The platform sends
	// it either inline or as a JSON-encoded string; Decode normalizes
	// it into Content and Message.
	RawContent json.RawMessage `json:"content"`

	// Content and Message are derived from RawContent by Decode.
	Content message.Content `json:"-"`
	Message message.Chain   `json:"-"`
}

func (SendMessage) Kind() Kind   { return KindSendMessage }
func (SendMessage) Name() string { return "SendMessage" }

// PlainText returns the typed text of the message with mentions and
// attachments stripped.
func (m *SendMessage) PlainText() string { return m.Message.PlainText() }

// CreateRobot reports the bot being added to a villa.
type CreateRobot struct {
	Meta
	VillaID uint64 `json:"villa_id"`
}

func (CreateRobot) Kind() Kind   { return KindCreateRobot }
func (CreateRobot) Name() string { return "CreateRobot" }

// DeleteRobot reports the bot being removed from a villa.
type DeleteRobot struct {
	Meta
	VillaID uint64 `json:"villa_id"`
}

func (DeleteRobot) Kind() Kind   { return KindDeleteRobot }
func (DeleteRobot) Name() string { return "DeleteRobot" }

// AddQuickEmoticon reports an emoticon reaction on one of the bot's
// messages.
type AddQuickEmoticon struct {
	Meta
	VillaID    uint64 `json:"villa_id"`
	RoomID     uint64 `json:"room_id"`
	UID        uint64 `json:"uid"`
	EmoticonID uint64 `json:"emoticon_id"`
	Emoticon   string `json:"emoticon"`
	MsgUID     string `json:"msg_uid"`
	BotMsgID   string `json:"bot_msg_id,omitempty"`
	IsCancel   bool   `json:"is_cancel"`
}

func (AddQuickEmoticon) Kind() Kind   { return KindAddQuickEmoticon }
func (AddQuickEmoticon) Name() string { return "AddQuickEmoticon" }

// AuditCallback reports the result of a content audit the bot
// submitted earlier.
type AuditCallback struct {
	Meta
	AuditID     string `json:"audit_id"`
	BotTplID    string `json:"bot_tpl_id"`
	VillaID     uint64 `json:"villa_id"`
	RoomID      uint64 `json:"room_id"`
	UserID      uint64 `json:"user_id"`
	PassThrough string `json:"pass_through,omitempty"`
	AuditResult int    `json:"audit_result"`
}

func (AuditCallback) Kind() Kind   { return KindAuditCallback }
func (AuditCallback) Name() string { return "AuditCallback" }

// Unknown wraps a well-formed event whose type discriminator this
// version does not know. It keeps forward compatibility: new upstream
// event types flow through dispatch instead of failing it.
type Unknown struct {
	Meta
	RawType int             `json:"-"`
	Raw     json.RawMessage `json:"-"`
}

func (Unknown) Kind() Kind   { return KindUnknown }
func (Unknown) Name() string { return "Unknown" }

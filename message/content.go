package message

import (
	"fmt"
	"unicode/utf16"
)

// Mention types used in MentionedInfo.
const (
	MentionTypeAll  = 1
	MentionTypePart = 2
)

// Entity type discriminators on the wire.
const (
	entityMentionedRobot = "mentioned_robot"
	entityMentionedUser  = "mentioned_user"
	entityMentionAll     = "mention_all"
	entityVillaRoomLink  = "villa_room_link"
	entityLink           = "link"
)

// Content is the MsgContentInfo structure the platform exchanges on
// sendMessage calls and SendMessage events.
type Content struct {
	Content   Body           `json:"content"`
	Mentioned *MentionedInfo `json:"mentionedInfo,omitempty"`
	Quote     *QuoteInfo     `json:"quote,omitempty"`
}

// Body holds the rendered text plus entity annotations over it.
type Body struct {
	Text     string      `json:"text"`
	Entities []Entity    `json:"entities"`
	Images   []ImageInfo `json:"images,omitempty"`
}

// Entity annotates a range of Body.Text. Offset and Length count
// UTF-16 code units, as the platform does.
type Entity struct {
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	Entity EntityData `json:"entity"`
}

// EntityData is the type-tagged entity payload. Only the fields
// matching Type are populated.
type EntityData struct {
	Type                   string `json:"type"`
	BotID                  string `json:"bot_id,omitempty"`
	UserID                 string `json:"user_id,omitempty"`
	VillaID                string `json:"villa_id,omitempty"`
	RoomID                 string `json:"room_id,omitempty"`
	URL                    string `json:"url,omitempty"`
	RequiresBotAccessToken bool   `json:"requires_bot_access_token,omitempty"`
}

// MentionedInfo summarizes who a message mentions.
type MentionedInfo struct {
	Type       int      `json:"type"`
	UserIDList []string `json:"userIdList,omitempty"`
}

// QuoteInfo links a message to the one it replies to.
type QuoteInfo struct {
	QuotedMessageID         string `json:"quoted_message_id"`
	QuotedMessageSendTime   int64  `json:"quoted_message_send_time"`
	OriginalMessageID       string `json:"original_message_id,omitempty"`
	OriginalMessageSendTime int64  `json:"original_message_send_time,omitempty"`
}

// ImageInfo describes an attached image.
type ImageInfo struct {
	URL      string     `json:"url"`
	Size     *ImageSize `json:"size,omitempty"`
	FileSize int        `json:"file_size,omitempty"`
}

// ImageSize is an image's pixel dimensions.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// utf16Len returns the length of s in UTF-16 code units, the unit the
// platform uses for entity offsets.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// Build renders a chain into the wire content structure, computing
// entity offsets and deriving MentionedInfo from mention segments.
func Build(chain Chain) Content {
	var (
		text      string
		offset    int
		entities  []Entity
		images    []ImageInfo
		quote     *QuoteInfo
		mentioned *MentionedInfo
	)

	addMentioned := func(userID string, all bool) {
		if mentioned == nil {
			mentioned = &MentionedInfo{Type: MentionTypePart}
		}
		if all {
			mentioned.Type = MentionTypeAll
			return
		}
		mentioned.UserIDList = append(mentioned.UserIDList, userID)
	}

	appendEntity := func(display string, data EntityData) {
		length := utf16Len(display)
		entities = append(entities, Entity{Offset: offset, Length: length, Entity: data})
		text += display
		offset += length
	}

	for _, seg := range chain {
		switch s := seg.(type) {
		case Text:
			text += s.Content
			offset += utf16Len(s.Content)
		case MentionRobot:
			appendEntity("@"+s.BotName+" ", EntityData{Type: entityMentionedRobot, BotID: s.BotID})
			addMentioned(s.BotID, false)
		case MentionUser:
			uid := fmt.Sprintf("%d", s.UserID)
			appendEntity("@"+s.UserName+" ", EntityData{Type: entityMentionedUser, UserID: uid})
			addMentioned(uid, false)
		case MentionAll:
			appendEntity("@"+s.ShowText+" ", EntityData{Type: entityMentionAll})
			addMentioned("", true)
		case RoomLink:
			appendEntity("#"+s.RoomName+" ", EntityData{
				Type:    entityVillaRoomLink,
				VillaID: fmt.Sprintf("%d", s.VillaID),
				RoomID:  fmt.Sprintf("%d", s.RoomID),
			})
		case Link:
			display := s.ShowText
			if display == "" {
				display = s.URL
			}
			appendEntity(display, EntityData{
				Type:                   entityLink,
				URL:                    s.URL,
				RequiresBotAccessToken: s.RequiresBotAccessToken,
			})
		case Image:
			info := ImageInfo{URL: s.URL, FileSize: s.FileSize}
			if s.Width > 0 && s.Height > 0 {
				info.Size = &ImageSize{Width: s.Width, Height: s.Height}
			}
			images = append(images, info)
		case Quote:
			quote = &QuoteInfo{
				QuotedMessageID:         s.MessageID,
				QuotedMessageSendTime:   s.MessageSendTime,
				OriginalMessageID:       s.MessageID,
				OriginalMessageSendTime: s.MessageSendTime,
			}
		}
	}

	if entities == nil {
		entities = []Entity{}
	}
	return Content{
		Content:   Body{Text: text, Entities: entities, Images: images},
		Mentioned: mentioned,
		Quote:     quote,
	}
}

// Parse reverses Build: it splits the wire text by entity ranges and
// reconstructs a segment chain. Text between and around entities
// becomes Text segments.
func Parse(content Content) Chain {
	var chain Chain

	if q := content.Quote; q != nil {
		chain = append(chain, Quote{
			MessageID:       q.QuotedMessageID,
			MessageSendTime: q.QuotedMessageSendTime,
		})
	}

	units := utf16.Encode([]rune(content.Content.Text))
	cursor := 0
	for _, ent := range content.Content.Entities {
		if ent.Offset < cursor || ent.Offset+ent.Length > len(units) {
			// Out-of-range annotation, keep the raw text instead.
			continue
		}
		if ent.Offset > cursor {
			chain = append(chain, Text{Content: string(utf16.Decode(units[cursor:ent.Offset]))})
		}
		display := string(utf16.Decode(units[ent.Offset : ent.Offset+ent.Length]))
		chain = append(chain, entitySegment(ent.Entity, display))
		cursor = ent.Offset + ent.Length
	}
	if cursor < len(units) {
		chain = append(chain, Text{Content: string(utf16.Decode(units[cursor:]))})
	}

	for _, img := range content.Content.Images {
		seg := Image{URL: img.URL, FileSize: img.FileSize}
		if img.Size != nil {
			seg.Width = img.Size.Width
			seg.Height = img.Size.Height
		}
		chain = append(chain, seg)
	}
	return chain
}

// entitySegment maps one wire entity back to its segment form. The
// display text carries the "@name " decoration, which is stripped to
// recover the name.
func entitySegment(data EntityData, display string) Segment {
	name := trimMentionDecoration(display)
	switch data.Type {
	case entityMentionedRobot:
		return MentionRobot{BotID: data.BotID, BotName: name}
	case entityMentionedUser:
		var uid uint64
		fmt.Sscanf(data.UserID, "%d", &uid)
		return MentionUser{UserID: uid, UserName: name}
	case entityMentionAll:
		return MentionAll{ShowText: name}
	case entityVillaRoomLink:
		var villaID, roomID uint64
		fmt.Sscanf(data.VillaID, "%d", &villaID)
		fmt.Sscanf(data.RoomID, "%d", &roomID)
		return RoomLink{VillaID: villaID, RoomID: roomID, RoomName: name}
	case entityLink:
		return Link{URL: data.URL, ShowText: display, RequiresBotAccessToken: data.RequiresBotAccessToken}
	default:
		return Text{Content: display}
	}
}

func trimMentionDecoration(display string) string {
	s := display
	if len(s) > 0 && (s[0] == '@' || s[0] == '#') {
		s = s[1:]
	}
	if len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

// Package message models Villa message content as a chain of typed
// segments and converts between the chain form and the platform's
// MsgContentInfo wire shape.
//
// Outbound messages are built segment by segment:
//
//	chain := message.NewChain().
//		MentionUser(12345, "traveler").
//		Text("welcome to the villa")
//	content := message.Build(chain)
//
// Inbound message content decodes back into a chain, so handlers can
// inspect mentions and extract the plain text the sender typed.
package message

import "strings"

// Segment is one typed piece of a message.
type Segment interface {
	segType() string
}

// Text is a plain text run.
type Text struct {
	Content string
}

// MentionRobot mentions a bot by its template ID.
type MentionRobot struct {
	BotID   string
	BotName string
}

// MentionUser mentions a villa member.
type MentionUser struct {
	UserID   uint64
	UserName string
}

// MentionAll mentions every member of the room.
type MentionAll struct {
	ShowText string
}

// RoomLink is a clickable link to a room inside a villa.
type RoomLink struct {
	VillaID  uint64
	RoomID   uint64
	RoomName string
}

// Link is an external URL with optional display text.
type Link struct {
	URL                    string
	ShowText               string
	RequiresBotAccessToken bool
}

// Image attaches an image by URL.
type Image struct {
	URL      string
	Width    int
	Height   int
	FileSize int
}

// Quote marks the message as a reply to an earlier message.
type Quote struct {
	MessageID       string
	MessageSendTime int64
}

func (Text) segType() string         { return "text" }
func (MentionRobot) segType() string { return "mention_robot" }
func (MentionUser) segType() string  { return "mention_user" }
func (MentionAll) segType() string   { return "mention_all" }
func (RoomLink) segType() string     { return "room_link" }
func (Link) segType() string         { return "link" }
func (Image) segType() string        { return "image" }
func (Quote) segType() string        { return "quote" }

// Chain is an ordered sequence of segments.
type Chain []Segment

// NewChain creates an empty chain.
func NewChain(segments ...Segment) Chain {
	return Chain(segments)
}

// Append adds a segment and returns the extended chain.
func (c Chain) Append(seg Segment) Chain {
	return append(c, seg)
}

// Text appends a plain text segment.
func (c Chain) Text(content string) Chain {
	return append(c, Text{Content: content})
}

// MentionRobot appends a bot mention.
func (c Chain) MentionRobot(botID, botName string) Chain {
	return append(c, MentionRobot{BotID: botID, BotName: botName})
}

// MentionUser appends a member mention.
func (c Chain) MentionUser(userID uint64, userName string) Chain {
	return append(c, MentionUser{UserID: userID, UserName: userName})
}

// MentionAll appends an @everyone mention.
func (c Chain) MentionAll() Chain {
	return append(c, MentionAll{ShowText: "全体成员"})
}

// RoomLink appends a room link.
func (c Chain) RoomLink(villaID, roomID uint64, roomName string) Chain {
	return append(c, RoomLink{VillaID: villaID, RoomID: roomID, RoomName: roomName})
}

// Link appends an external link.
func (c Chain) Link(url, showText string) Chain {
	return append(c, Link{URL: url, ShowText: showText})
}

// Image appends an image segment.
func (c Chain) Image(url string) Chain {
	return append(c, Image{URL: url})
}

// Quote marks the chain as a reply to the given message.
func (c Chain) Quote(messageID string, sendTime int64) Chain {
	return append(c, Quote{MessageID: messageID, MessageSendTime: sendTime})
}

// PlainText returns the concatenation of all Text segments. Mentions,
// links and attachments are excluded, which matches what a sender
// actually typed and is the string handler predicates match against.
func (c Chain) PlainText() string {
	var sb strings.Builder
	for _, seg := range c {
		if t, ok := seg.(Text); ok {
			sb.WriteString(t.Content)
		}
	}
	return strings.TrimSpace(sb.String())
}

// FirstQuote returns the quote segment if the chain is a reply, nil otherwise.
func (c Chain) FirstQuote() *Quote {
	for _, seg := range c {
		if q, ok := seg.(Quote); ok {
			return &q
		}
	}
	return nil
}

// Images returns every image segment in order.
func (c Chain) Images() []Image {
	var out []Image
	for _, seg := range c {
		if img, ok := seg.(Image); ok {
			out = append(out, img)
		}
	}
	return out
}

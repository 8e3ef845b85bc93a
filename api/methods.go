package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/keepmind9/villabot/message"
	"github.com/keepmind9/villabot/pkg/constants"
)

// SendMessage sends message content to a room and returns the bot
// message ID. The content structure is serialized into the msg_content
// string field, as the platform requires.
func (c *Client) SendMessage(ctx context.Context, villaID, roomID uint64, content message.Content) (string, error) {
	encoded, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("api: encode message content: %w", err)
	}
	var data struct {
		BotMsgID string `json:"bot_msg_id"`
	}
	err = c.request(ctx, http.MethodPost, "sendMessage", villaID, map[string]any{
		"room_id":     roomID,
		"object_name": constants.ObjectNameText,
		"msg_content": string(encoded),
	}, &data)
	if err != nil {
		return "", err
	}
	return data.BotMsgID, nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, villaID, roomID uint64, text string) (string, error) {
	return c.SendMessage(ctx, villaID, roomID, message.Build(message.NewChain().Text(text)))
}

// RecallMessage withdraws a previously sent message.
func (c *Client) RecallMessage(ctx context.Context, villaID, roomID uint64, msgUID string, msgTime int64) error {
	return c.request(ctx, http.MethodPost, "recallMessage", villaID, map[string]any{
		"room_id":  roomID,
		"msg_uid":  msgUID,
		"msg_time": msgTime,
	}, nil)
}

// PinMessage pins or unpins a message in its room.
func (c *Client) PinMessage(ctx context.Context, villaID, roomID uint64, msgUID string, msgTime int64, unpin bool) error {
	return c.request(ctx, http.MethodPost, "pinMessage", villaID, map[string]any{
		"room_id":   roomID,
		"msg_uid":   msgUID,
		"send_at":   msgTime,
		"is_cancel": unpin,
	}, nil)
}

// GetVilla fetches the villa profile.
func (c *Client) GetVilla(ctx context.Context, villaID uint64) (*Villa, error) {
	var data struct {
		Villa Villa `json:"villa"`
	}
	if err := c.request(ctx, http.MethodGet, "getVilla", villaID, nil, &data); err != nil {
		return nil, err
	}
	return &data.Villa, nil
}

// GetMember fetches one villa member.
func (c *Client) GetMember(ctx context.Context, villaID, uid uint64) (*Member, error) {
	var data struct {
		Member Member `json:"member"`
	}
	err := c.request(ctx, http.MethodGet, "getMember", villaID, map[string]any{
		"uid": uid,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &data.Member, nil
}

// GetVillaMembers pages through the villa roster.
func (c *Client) GetVillaMembers(ctx context.Context, villaID uint64, offset string, size int) (*MemberList, error) {
	var data MemberList
	err := c.request(ctx, http.MethodGet, "getVillaMembers", villaID, map[string]any{
		"offset_str": offset,
		"size":       size,
	}, &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// DeleteVillaMember kicks a member out of the villa.
func (c *Client) DeleteVillaMember(ctx context.Context, villaID, uid uint64) error {
	return c.request(ctx, http.MethodPost, "deleteVillaMember", villaID, map[string]any{
		"uid": uid,
	}, nil)
}

// CreateGroup creates a room group and returns its ID.
func (c *Client) CreateGroup(ctx context.Context, villaID uint64, groupName string) (uint64, error) {
	var data struct {
		GroupID uint64 `json:"group_id"`
	}
	err := c.request(ctx, http.MethodPost, "createGroup", villaID, map[string]any{
		"group_name": groupName,
	}, &data)
	if err != nil {
		return 0, err
	}
	return data.GroupID, nil
}

// GetGroupList lists the villa's room groups.
func (c *Client) GetGroupList(ctx context.Context, villaID uint64) ([]Group, error) {
	var data struct {
		List []Group `json:"list"`
	}
	if err := c.request(ctx, http.MethodGet, "getGroupList", villaID, nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// Audit submits user-generated content for review and returns the
// audit ID; the verdict arrives later as an AuditCallback event
// carrying the passThrough value.
func (c *Client) Audit(ctx context.Context, villaID uint64, content, contentType string, roomID, uid uint64, passThrough string) (string, error) {
	var data struct {
		AuditID string `json:"audit_id"`
	}
	err := c.request(ctx, http.MethodPost, "audit", villaID, map[string]any{
		"audit_content": content,
		"content_type":  contentType,
		"room_id":       roomID,
		"uid":           uid,
		"pass_through":  passThrough,
	}, &data)
	if err != nil {
		return "", err
	}
	return data.AuditID, nil
}

// TransferImage re-hosts an external image URL on the platform so it
// can be used in messages.
func (c *Client) TransferImage(ctx context.Context, villaID uint64, url string) (string, error) {
	var data struct {
		NewURL string `json:"new_url"`
	}
	err := c.request(ctx, http.MethodPost, "transferImage", villaID, map[string]any{
		"url": url,
	}, &data)
	if err != nil {
		return "", err
	}
	return data.NewURL, nil
}

package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keepmind9/villabot/message"
)

// ErrMalformed reports a callback body that cannot be parsed as a
// structured event payload at all. A well-formed payload with an
// unrecognized type is not malformed; it decodes to Unknown.
var ErrMalformed = errors.New("event: malformed payload")

// Decode parses a webhook callback body into a typed event. The body
// is the JSON envelope {"event": {...}} where the inner object carries
// the integer type discriminator and the per-type fields.
//
// Decode is pure: it performs no I/O and touches no shared state.
func Decode(body []byte) (Event, error) {
	var envelope struct {
		Event json.RawMessage `json:"event"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(envelope.Event) == 0 || bytes.Equal(envelope.Event, []byte("null")) {
		return nil, fmt.Errorf("%w: missing event object", ErrMalformed)
	}
	return decodeInner(envelope.Event)
}

func decodeInner(raw json.RawMessage) (Event, error) {
	var probe struct {
		Type int `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch Kind(probe.Type) {
	case KindJoinVilla:
		var ev JoinVilla
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &ev, nil
	case KindSendMessage:
		var ev SendMessage
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := normalizeContent(&ev); err != nil {
			return nil, err
		}
		return &ev, nil
	case KindCreateRobot:
		var ev CreateRobot
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &ev, nil
	case KindDeleteRobot:
		var ev DeleteRobot
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &ev, nil
	case KindAddQuickEmoticon:
		var ev AddQuickEmoticon
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &ev, nil
	case KindAuditCallback:
		var ev AuditCallback
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return &ev, nil
	default:
		ev := Unknown{RawType: probe.Type, Raw: append(json.RawMessage(nil), raw...)}
		// Envelope metadata is best effort for unknown kinds.
		_ = json.Unmarshal(raw, &ev.Meta)
		return &ev, nil
	}
}

// normalizeContent decodes the message content, which arrives either
// as an inline MsgContentInfo object or as a JSON-encoded string
// containing one.
func normalizeContent(ev *SendMessage) error {
	raw := bytes.TrimSpace(ev.RawContent)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("%w: content string: %v", ErrMalformed, err)
		}
		raw = []byte(inner)
	}
	if err := json.Unmarshal(raw, &ev.Content); err != nil {
		return fmt.Errorf("%w: content: %v", ErrMalformed, err)
	}
	ev.Message = message.Parse(ev.Content)
	return nil
}

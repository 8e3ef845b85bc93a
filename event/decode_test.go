package event

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/villabot/message"
)

const robotJSON = `{"villa_id":100,"template":{"id":"bot_abc","name":"helper","icon":"https://x/icon.png"}}`

// wrap builds the webhook envelope around an inner event object.
func wrap(inner string) []byte {
	return []byte(fmt.Sprintf(`{"event":%s}`, inner))
}

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name  string
		inner string
		check func(t *testing.T, ev Event)
	}{
		{
			name: "join villa",
			inner: `{"robot":` + robotJSON + `,"type":1,"id":"ev-1","created_at":1690000000,
				"join_uid":42,"join_user_nickname":"traveler","join_at":1690000001,"villa_id":100}`,
			check: func(t *testing.T, ev Event) {
				join, ok := ev.(*JoinVilla)
				require.True(t, ok)
				assert.Equal(t, KindJoinVilla, ev.Kind())
				assert.Equal(t, uint64(42), join.JoinUID)
				assert.Equal(t, "traveler", join.JoinUserNickname)
				assert.Equal(t, uint64(100), join.VillaID)
				assert.Equal(t, "ev-1", join.Meta.ID)
				assert.Equal(t, "bot_abc", join.Robot.Template.ID)
			},
		},
		{
			name: "create robot",
			inner: `{"robot":` + robotJSON + `,"type":3,"id":"ev-3","villa_id":100}`,
			check: func(t *testing.T, ev Event) {
				created, ok := ev.(*CreateRobot)
				require.True(t, ok)
				assert.Equal(t, uint64(100), created.VillaID)
			},
		},
		{
			name: "delete robot",
			inner: `{"robot":` + robotJSON + `,"type":4,"id":"ev-4","villa_id":100}`,
			check: func(t *testing.T, ev Event) {
				_, ok := ev.(*DeleteRobot)
				require.True(t, ok)
				assert.Equal(t, KindDeleteRobot, ev.Kind())
			},
		},
		{
			name: "quick emoticon",
			inner: `{"robot":` + robotJSON + `,"type":5,"id":"ev-5","villa_id":100,"room_id":7,
				"uid":42,"emoticon_id":9,"emoticon":"wave","msg_uid":"m-1","is_cancel":true}`,
			check: func(t *testing.T, ev Event) {
				emo, ok := ev.(*AddQuickEmoticon)
				require.True(t, ok)
				assert.Equal(t, "wave", emo.Emoticon)
				assert.True(t, emo.IsCancel)
				assert.Equal(t, uint64(7), emo.RoomID)
			},
		},
		{
			name: "audit callback",
			inner: `{"robot":` + robotJSON + `,"type":6,"id":"ev-6","audit_id":"a-1","bot_tpl_id":"bot_abc",
				"villa_id":100,"room_id":7,"user_id":42,"pass_through":"ticket-9","audit_result":1}`,
			check: func(t *testing.T, ev Event) {
				audit, ok := ev.(*AuditCallback)
				require.True(t, ok)
				assert.Equal(t, "a-1", audit.AuditID)
				assert.Equal(t, AuditPass, audit.AuditResult)
				assert.Equal(t, "ticket-9", audit.PassThrough)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode(wrap(tt.inner))
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestDecodeSendMessage(t *testing.T) {
	content := message.Build(message.NewChain().
		MentionRobot("bot_abc", "helper").
		Text("@Bot hello"))
	contentJSON, err := json.Marshal(content)
	require.NoError(t, err)

	t.Run("inline content object", func(t *testing.T) {
		inner := fmt.Sprintf(`{"robot":%s,"type":2,"id":"ev-2","from_user_id":42,"room_id":7,
			"nickname":"traveler","msg_uid":"m-1","villa_id":100,"bot_id":"bot_abc","content":%s}`,
			robotJSON, contentJSON)
		ev, err := Decode(wrap(inner))
		require.NoError(t, err)
		msg, ok := ev.(*SendMessage)
		require.True(t, ok)
		assert.Equal(t, uint64(42), msg.FromUserID)
		assert.Equal(t, uint64(7), msg.RoomID)
		assert.Equal(t, "bot_abc", msg.BotID)
		assert.Equal(t, "@Bot hello", msg.PlainText())
	})

	t.Run("content as JSON string", func(t *testing.T) {
		quoted, err := json.Marshal(string(contentJSON))
		require.NoError(t, err)
		inner := fmt.Sprintf(`{"robot":%s,"type":2,"id":"ev-2","from_user_id":42,"room_id":7,
			"villa_id":100,"bot_id":"bot_abc","content":%s}`, robotJSON, quoted)
		ev, err := Decode(wrap(inner))
		require.NoError(t, err)
		msg := ev.(*SendMessage)
		assert.Equal(t, "@Bot hello", msg.PlainText())
	})

	t.Run("undecodable content is malformed", func(t *testing.T) {
		inner := fmt.Sprintf(`{"robot":%s,"type":2,"id":"ev-2","content":"{not json"}`, robotJSON)
		_, err := Decode(wrap(inner))
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestDecodeUnknownKind(t *testing.T) {
	inner := `{"robot":` + robotJSON + `,"type":99,"id":"ev-99","future_field":"x"}`
	ev, err := Decode(wrap(inner))
	require.NoError(t, err)

	unknown, ok := ev.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, KindUnknown, ev.Kind())
	assert.Equal(t, 99, unknown.RawType)
	assert.Equal(t, "ev-99", unknown.Meta.ID)
	assert.Contains(t, string(unknown.Raw), "future_field")
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `this is not json`},
		{name: "missing event key", body: `{"other":1}`},
		{name: "null event", body: `{"event":null}`},
		{name: "event not an object", body: `{"event":[1,2,3]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

// TestDecodeRoundTrip checks that marshaling a variant and decoding it
// back recovers the original field values.
func TestDecodeRoundTrip(t *testing.T) {
	original := &JoinVilla{
		Meta: Meta{
			ID:        "ev-rt",
			Type:      KindJoinVilla,
			CreatedAt: 1690000000,
			Robot: Robot{
				VillaID:  100,
				Template: Template{ID: "bot_abc", Name: "helper", Icon: "i"},
			},
		},
		JoinUID:          42,
		JoinUserNickname: "traveler",
		JoinAt:           1690000001,
		VillaID:          100,
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)
	decoded, err := Decode(wrap(string(encoded)))
	require.NoError(t, err)

	assert.Equal(t, original, decoded)
}

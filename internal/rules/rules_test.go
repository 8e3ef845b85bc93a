package rules

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepmind9/villabot/event"
	"github.com/keepmind9/villabot/internal/config"
	"github.com/keepmind9/villabot/message"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSender) SendText(ctx context.Context, villaID, roomID uint64, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.texts = append(f.texts, text)
	return "bot-msg-1", nil
}

func messageEvent(text string) *event.SendMessage {
	return &event.SendMessage{
		Meta:    event.Meta{Type: event.KindSendMessage},
		VillaID: 100,
		RoomID:  7,
		Message: message.NewChain().Text(text),
	}
}

func TestBuildHandlers(t *testing.T) {
	cfg := config.BotConfig{
		BotID: "bot_abc",
		Rules: []config.RuleConfig{
			{
				Name:     "greeter",
				Priority: 1,
				Block:    true,
				Match:    config.MatchConfig{Keywords: []string{"hello"}},
				Reply:    "world",
			},
			{
				Name:  "joiner",
				Match: config.MatchConfig{Events: []string{"JoinVilla"}},
				Reply: "welcome",
			},
		},
	}

	handlers, err := Build(cfg, &fakeSender{})
	require.NoError(t, err)
	require.Len(t, handlers, 2)

	greeter := handlers[0]
	assert.Equal(t, "greeter", greeter.Name)
	assert.Equal(t, 1, greeter.Priority)
	assert.True(t, greeter.Block)
	assert.True(t, greeter.Predicate(messageEvent("well hello there")))
	assert.False(t, greeter.Predicate(messageEvent("goodbye")))

	joiner := handlers[1]
	assert.True(t, joiner.Predicate(&event.JoinVilla{Meta: event.Meta{Type: event.KindJoinVilla}}))
	assert.False(t, joiner.Predicate(messageEvent("hello")))
}

func TestBuildUnknownEventName(t *testing.T) {
	cfg := config.BotConfig{
		BotID: "bot_abc",
		Rules: []config.RuleConfig{
			{Name: "bad", Match: config.MatchConfig{Events: []string{"TeleportVilla"}}, Reply: "x"},
		},
	}

	_, err := Build(cfg, &fakeSender{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TeleportVilla")
}

func TestBuildEmptyMatchFiresOnMessagesOnly(t *testing.T) {
	cfg := config.BotConfig{
		BotID: "bot_abc",
		Rules: []config.RuleConfig{{Name: "catch-all", Reply: "hi"}},
	}

	handlers, err := Build(cfg, &fakeSender{})
	require.NoError(t, err)
	require.Len(t, handlers, 1)

	assert.True(t, handlers[0].Predicate(messageEvent("anything")))
	assert.False(t, handlers[0].Predicate(&event.JoinVilla{Meta: event.Meta{Type: event.KindJoinVilla}}))
}

func TestBuildCombinedCriteria(t *testing.T) {
	cfg := config.BotConfig{
		BotID: "bot_abc",
		Rules: []config.RuleConfig{
			{
				Name: "scoped",
				Match: config.MatchConfig{
					StartsWith: []string{"roll"},
					Prefixes:   []string{"/", "!"},
					Rooms:      []uint64{7},
				},
				Reply: "rolling",
			},
		},
	}

	handlers, err := Build(cfg, &fakeSender{})
	require.NoError(t, err)
	predicate := handlers[0].Predicate

	assert.True(t, predicate(messageEvent("/roll 2d6")))
	assert.True(t, predicate(messageEvent("!roll")))
	assert.False(t, predicate(messageEvent("roll")), "prefix required")

	other := messageEvent("/roll 2d6")
	other.RoomID = 8
	assert.False(t, predicate(other), "wrong room")
}

func TestReplyAction(t *testing.T) {
	t.Run("replies into the source room", func(t *testing.T) {
		sender := &fakeSender{}
		action := replyAction("world", sender)

		require.NoError(t, action(context.Background(), messageEvent("hello")))
		assert.Equal(t, []string{"world"}, sender.texts)
	})

	t.Run("send failure propagates", func(t *testing.T) {
		wantErr := errors.New("network down")
		action := replyAction("world", &fakeSender{err: wantErr})

		err := action(context.Background(), messageEvent("hello"))
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("non-message events are skipped", func(t *testing.T) {
		sender := &fakeSender{}
		action := replyAction("welcome", sender)

		join := &event.JoinVilla{Meta: event.Meta{Type: event.KindJoinVilla}}
		require.NoError(t, action(context.Background(), join))
		assert.Empty(t, sender.texts)
	})
}

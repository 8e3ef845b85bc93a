// Package rules translates declarative reply rules from the
// configuration into dispatch handlers, so the serve binary can run
// useful bots without any code.
package rules

import (
	"context"
	"fmt"
	"regexp"

	"github.com/keepmind9/villabot/bot"
	"github.com/keepmind9/villabot/event"
	"github.com/keepmind9/villabot/internal/config"
	"github.com/keepmind9/villabot/internal/logger"
)

// Sender is the outbound capability a reply rule needs. *api.Client
// satisfies it.
type Sender interface {
	SendText(ctx context.Context, villaID, roomID uint64, text string) (string, error)
}

var kindNames = map[string]event.Kind{
	"JoinVilla":        event.KindJoinVilla,
	"SendMessage":      event.KindSendMessage,
	"CreateRobot":      event.KindCreateRobot,
	"DeleteRobot":      event.KindDeleteRobot,
	"AddQuickEmoticon": event.KindAddQuickEmoticon,
	"AuditCallback":    event.KindAuditCallback,
	"Unknown":          event.KindUnknown,
}

// Build converts every rule of a bot into a handler whose action sends
// the configured reply into the room the triggering message came from.
func Build(cfg config.BotConfig, sender Sender) ([]*bot.Handler, error) {
	handlers := make([]*bot.Handler, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		predicate, err := buildPredicate(rule.Match)
		if err != nil {
			return nil, fmt.Errorf("rules: bot %s rule %s: %w", cfg.BotID, rule.Name, err)
		}
		handlers = append(handlers, &bot.Handler{
			Name:      rule.Name,
			Predicate: predicate,
			Priority:  rule.Priority,
			Block:     rule.Block,
			Action:    replyAction(rule.Reply, sender),
		})
	}
	return handlers, nil
}

// buildPredicate combines every populated criterion with AND
// semantics. A rule with message-content criteria but no explicit
// event list is implicitly scoped to SendMessage events, which the
// content predicates enforce on their own.
func buildPredicate(m config.MatchConfig) (bot.Predicate, error) {
	var predicates []bot.Predicate

	if len(m.Events) > 0 {
		kinds := make([]event.Kind, 0, len(m.Events))
		for _, name := range m.Events {
			kind, ok := kindNames[name]
			if !ok {
				return nil, fmt.Errorf("unknown event type %q", name)
			}
			kinds = append(kinds, kind)
		}
		predicates = append(predicates, bot.OnEvent(kinds...))
	}
	if len(m.StartsWith) > 0 {
		predicates = append(predicates, bot.StartsWith(m.Prefixes, m.StartsWith...))
	}
	if len(m.EndsWith) > 0 {
		predicates = append(predicates, bot.EndsWith(m.EndsWith...))
	}
	if len(m.Keywords) > 0 {
		predicates = append(predicates, bot.Keyword(m.Keywords...))
	}
	if m.Regex != "" {
		pattern, err := regexp.Compile(m.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		predicates = append(predicates, bot.Regex(pattern))
	}
	if len(m.FromUsers) > 0 {
		predicates = append(predicates, bot.FromUser(m.FromUsers...))
	}
	if len(m.Rooms) > 0 {
		predicates = append(predicates, bot.InRoom(m.Rooms...))
	}
	if len(m.Villas) > 0 {
		predicates = append(predicates, bot.InVilla(m.Villas...))
	}

	if len(predicates) == 0 {
		// A rule with no criteria fires on every message, not on every
		// event; replying to membership or audit events makes no sense.
		return bot.OnMessage(), nil
	}
	return bot.And(predicates...), nil
}

// replyAction sends the reply text into the room of the triggering
// message. Non-message events have no reply target and are only
// logged.
func replyAction(reply string, sender Sender) bot.Action {
	return func(ctx context.Context, ev event.Event) error {
		msg, ok := ev.(*event.SendMessage)
		if !ok {
			logger.WithField("event", ev.Name()).Debug("rule-matched-non-message-event")
			return nil
		}
		msgID, err := sender.SendText(ctx, msg.VillaID, msg.RoomID, reply)
		if err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
		logger.WithField("bot_msg_id", msgID).Debug("rule-reply-sent")
		return nil
	}
}

package bot

import (
	"regexp"
	"strings"

	"github.com/keepmind9/villabot/event"
)

// Built-in predicates. Message-content predicates match only
// SendMessage events; every other variant, including Unknown, is
// rejected unless a handler opts in explicitly with OnEvent or a
// custom predicate.

// OnEvent accepts events of any of the given kinds.
func OnEvent(kinds ...event.Kind) Predicate {
	set := make(map[event.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return func(ev event.Event) bool {
		_, ok := set[ev.Kind()]
		return ok
	}
}

// OnMessage accepts every SendMessage event.
func OnMessage() Predicate {
	return func(ev event.Event) bool {
		_, ok := ev.(*event.SendMessage)
		return ok
	}
}

// messageText extracts the plain text of a message event, or reports
// that the event is not a message.
func messageText(ev event.Event) (string, bool) {
	msg, ok := ev.(*event.SendMessage)
	if !ok {
		return "", false
	}
	return msg.PlainText(), true
}

// StartsWith accepts messages whose text starts with any of the given
// strings, each optionally combined with one of the given prefixes.
// With prefixes {"/", "!"} and words {"help"}, the accepted openings
// are "/help" and "!help".
func StartsWith(prefixes []string, words ...string) Predicate {
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	var openings []string
	for _, p := range prefixes {
		for _, w := range words {
			openings = append(openings, p+w)
		}
	}
	return func(ev event.Event) bool {
		text, ok := messageText(ev)
		if !ok {
			return false
		}
		for _, opening := range openings {
			if strings.HasPrefix(text, opening) {
				return true
			}
		}
		return false
	}
}

// EndsWith accepts messages whose text ends with any of the given
// strings.
func EndsWith(suffixes ...string) Predicate {
	return func(ev event.Event) bool {
		text, ok := messageText(ev)
		if !ok {
			return false
		}
		for _, s := range suffixes {
			if strings.HasSuffix(text, s) {
				return true
			}
		}
		return false
	}
}

// Keyword accepts messages whose text contains any of the given
// keywords.
func Keyword(keywords ...string) Predicate {
	return func(ev event.Event) bool {
		text, ok := messageText(ev)
		if !ok {
			return false
		}
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}
}

// Regex accepts messages whose text matches the pattern.
func Regex(pattern *regexp.Regexp) Predicate {
	return func(ev event.Event) bool {
		text, ok := messageText(ev)
		if !ok {
			return false
		}
		return pattern.MatchString(text)
	}
}

// FromUser accepts messages sent by any of the given user IDs.
func FromUser(userIDs ...uint64) Predicate {
	set := make(map[uint64]struct{}, len(userIDs))
	for _, id := range userIDs {
		set[id] = struct{}{}
	}
	return func(ev event.Event) bool {
		msg, ok := ev.(*event.SendMessage)
		if !ok {
			return false
		}
		_, ok = set[msg.FromUserID]
		return ok
	}
}

// InRoom accepts messages sent in any of the given rooms.
func InRoom(roomIDs ...uint64) Predicate {
	set := make(map[uint64]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		set[id] = struct{}{}
	}
	return func(ev event.Event) bool {
		msg, ok := ev.(*event.SendMessage)
		if !ok {
			return false
		}
		_, ok = set[msg.RoomID]
		return ok
	}
}

// InVilla accepts events originating from any of the given villas.
func InVilla(villaIDs ...uint64) Predicate {
	set := make(map[uint64]struct{}, len(villaIDs))
	for _, id := range villaIDs {
		set[id] = struct{}{}
	}
	return func(ev event.Event) bool {
		_, ok := set[ev.GetMeta().Robot.VillaID]
		return ok
	}
}

// And combines predicates; all must accept.
func And(predicates ...Predicate) Predicate {
	return func(ev event.Event) bool {
		for _, p := range predicates {
			if p != nil && !p(ev) {
				return false
			}
		}
		return true
	}
}

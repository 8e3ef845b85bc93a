package bot

import (
	"context"
	"sort"

	"github.com/keepmind9/villabot/event"
)

// Predicate decides whether a handler wants an event. Predicates must
// be pure: no I/O, no mutation of shared state. Anything that needs a
// lookup belongs in the handler action.
type Predicate func(event.Event) bool

// Action is the work a handler performs for a matched event. The
// context carries the per-handler timeout; actions should pass it to
// any outbound API call they make.
type Action func(context.Context, event.Event) error

// Handler pairs a predicate with an action.
//
// Priority orders handlers: lower values run earlier. Two handlers
// with equal priority keep their registration order, so execution
// order is reproducible from configuration alone. Block excludes every
// later handler once this one matches, which expresses
// first-match-wins next to fan-out in the same list.
type Handler struct {
	// Name identifies the handler in logs.
	Name string
	// Predicate accepts or rejects an event. A nil predicate accepts
	// everything.
	Predicate Predicate
	// Priority orders execution, ascending.
	Priority int
	// Block stops matching after this handler.
	Block bool
	// Action runs when the handler matches.
	Action Action
}

func (h *Handler) matches(ev event.Event) bool {
	if h.Predicate == nil {
		return true
	}
	return h.Predicate(ev)
}

// sortHandlers returns a copy ordered by ascending priority, stable in
// registration order. The registry sorts once at registration so every
// Match call walks an already-ordered list.
func sortHandlers(handlers []*Handler) []*Handler {
	sorted := make([]*Handler, len(handlers))
	copy(sorted, handlers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// Match returns the handlers whose predicates accept ev, in priority
// order, truncated after the first accepting handler with Block set.
// handlers must already be priority-ordered, which registry snapshots
// guarantee. Match is deterministic: the same event and handler list
// always produce the same result.
func Match(ev event.Event, handlers []*Handler) []*Handler {
	var matched []*Handler
	for _, h := range handlers {
		if !h.matches(ev) {
			continue
		}
		matched = append(matched, h)
		if h.Block {
			break
		}
	}
	return matched
}

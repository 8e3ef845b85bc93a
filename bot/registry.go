package bot

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateBot reports a second registration for a bot ID. This is
// a startup configuration error and is not recoverable at runtime.
var ErrDuplicateBot = errors.New("bot: bot id already registered")

// registration is the immutable snapshot stored per bot: the identity
// plus its priority-ordered handler list. Snapshots are replaced, never
// mutated, so concurrent dispatches always see a consistent list.
type registration struct {
	identity *Identity
	handlers []*Handler
}

// Registry maps bot IDs to their identities and handlers. Registration
// normally happens before serving starts; it is nonetheless guarded so
// dynamic registration stays safe against concurrent lookups.
type Registry struct {
	mu   sync.RWMutex
	bots map[string]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bots: make(map[string]*registration)}
}

// Register stores an identity with its handlers. The handler list is
// copied and sorted by ascending priority (stable, so registration
// order breaks ties) and is read-only afterwards.
func (r *Registry) Register(identity *Identity, handlers []*Handler) error {
	if identity == nil || identity.BotID == "" {
		return errors.New("bot: identity with bot id is required")
	}
	if identity.PubKey == nil {
		return fmt.Errorf("bot: identity %s has no public key", identity.BotID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bots[identity.BotID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBot, identity.BotID)
	}
	r.bots[identity.BotID] = &registration{
		identity: identity,
		handlers: sortHandlers(handlers),
	}
	return nil
}

// Lookup returns the identity and handler snapshot for a bot ID. The
// returned slice must not be modified.
func (r *Registry) Lookup(botID string) (*Identity, []*Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.bots[botID]
	if !ok {
		return nil, nil, false
	}
	return reg.identity, reg.handlers, true
}

// Identities returns every registered identity. Used to set up one
// webhook route per callback path.
func (r *Registry) Identities() []*Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Identity, 0, len(r.bots))
	for _, reg := range r.bots {
		out = append(out, reg.identity)
	}
	return out
}

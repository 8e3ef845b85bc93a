package bot

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	_, pemText := newTestKey(t)
	identity := newTestIdentity(t, pemText)
	registry := NewRegistry()

	handlers := []*Handler{
		{Name: "late", Priority: 5},
		{Name: "early", Priority: 1},
		{Name: "mid-a", Priority: 3},
		{Name: "mid-b", Priority: 3},
	}
	require.NoError(t, registry.Register(identity, handlers))

	got, snapshot, ok := registry.Lookup(identity.BotID)
	require.True(t, ok)
	assert.Same(t, identity, got)

	// Snapshot is priority sorted, stable on ties.
	require.Len(t, snapshot, 4)
	assert.Equal(t, "early", snapshot[0].Name)
	assert.Equal(t, "mid-a", snapshot[1].Name)
	assert.Equal(t, "mid-b", snapshot[2].Name)
	assert.Equal(t, "late", snapshot[3].Name)

	// Sorting copied the list; the caller's slice is untouched.
	assert.Equal(t, "late", handlers[0].Name)
}

func TestRegistryDuplicate(t *testing.T) {
	_, pemText := newTestKey(t)
	identity := newTestIdentity(t, pemText)
	registry := NewRegistry()

	require.NoError(t, registry.Register(identity, nil))
	err := registry.Register(identity, nil)
	assert.ErrorIs(t, err, ErrDuplicateBot)
}

func TestRegistryValidation(t *testing.T) {
	registry := NewRegistry()

	assert.Error(t, registry.Register(nil, nil))
	assert.Error(t, registry.Register(&Identity{}, nil))
	// Public key is mandatory.
	assert.Error(t, registry.Register(&Identity{BotID: "b", Secret: "s"}, nil))
}

func TestRegistryLookupMissing(t *testing.T) {
	registry := NewRegistry()
	_, _, ok := registry.Lookup("nobody")
	assert.False(t, ok)
}

func TestRegistryConcurrentLookup(t *testing.T) {
	registry := NewRegistry()
	_, pemText := newTestKey(t)
	for i := 0; i < 4; i++ {
		identity, err := NewIdentity(fmt.Sprintf("bot_%d", i), "secret", pemText, fmt.Sprintf("/cb/%d", i))
		require.NoError(t, err)
		require.NoError(t, registry.Register(identity, []*Handler{{Name: "h"}}))
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, handlers, ok := registry.Lookup(fmt.Sprintf("bot_%d", i%4))
				assert.True(t, ok)
				assert.Len(t, handlers, 1)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, registry.Identities(), 4)
}
